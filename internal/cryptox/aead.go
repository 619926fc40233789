// Package cryptox implements the authenticated encryption used for every
// secret persisted by the server: vault payloads and TOTP seeds.
//
// An envelope is the standard base64 encoding of nonce || ciphertext || tag,
// produced by AES-256-GCM with a fresh 12-byte nonce per call and no
// associated data.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
)

var (
	ErrEmptyPlaintext = errors.New("cryptox: empty plaintext")
	ErrInvalidKeySize = errors.New("cryptox: key must be 32 bytes")
)

// randomNonce is a seam for tests.
var randomNonce = func() ([]byte, error) {
	return common.RandomBytes(NonceSize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under key and returns the envelope.
func Encrypt(plaintext, key []byte) (string, error) {
	if len(plaintext) == 0 {
		return "", ErrEmptyPlaintext
	}
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce, err := randomNonce()
	if err != nil {
		return "", err
	}

	out := make([]byte, 0, NonceSize+len(plaintext)+TagSize)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens an envelope produced by Encrypt. Bad base64, a truncated
// envelope, a wrong key and any modification all yield
// common.ErrAuthenticationFailed.
func Decrypt(envelope string, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, common.ErrAuthenticationFailed
	}
	if len(raw) < NonceSize+TagSize {
		return nil, common.ErrAuthenticationFailed
	}

	nonce, sealed := raw[:NonceSize], raw[NonceSize:]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, common.ErrAuthenticationFailed
	}
	return plaintext, nil
}
