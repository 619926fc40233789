package cryptox

import (
	"encoding/json"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

// Seal serializes record as JSON and encrypts it under key.
func Seal(record any, key []byte) (string, error) {
	plaintext, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(plaintext)

	return Encrypt(plaintext, key)
}

// Open decrypts envelope and decodes the JSON record into out.
//
// A JSON error after a successful decryption means the record was written
// by something other than Seal; it is reported as common.ErrMalformedRecord
// so callers can tell it apart from tampering.
func Open(envelope string, key []byte, out any) error {
	plaintext, err := Decrypt(envelope, key)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)

	if err := json.Unmarshal(plaintext, out); err != nil {
		return common.ErrMalformedRecord
	}
	return nil
}

// SealString seals a single string value, e.g. a TOTP secret.
func SealString(value string, key []byte) (string, error) {
	return Seal(value, key)
}

// OpenString is the inverse of SealString.
func OpenString(envelope string, key []byte) (string, error) {
	var value string
	if err := Open(envelope, key, &value); err != nil {
		return "", err
	}
	return value, nil
}
