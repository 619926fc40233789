// Package kdf derives vault keys and password hashes with Argon2id.
//
// It lives under services/internal so that only the services package can
// reach it; key derivation is owned by the credential service.
package kdf

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	KeySize      = 32
	SaltSize     = 32
	hashSaltSize = 16
)

// Params are the Argon2id cost parameters. Memory is in KiB.
type Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// DefaultParams are t=3, m=64 MiB, p=4.
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 4}

func (p Params) valid() bool {
	return p.Time >= 1 && p.Threads >= 1 && p.Memory >= 8*uint32(p.Threads)
}

var b64 = base64.RawStdEncoding

// GenerateSalt returns a fresh per-user vault salt.
func GenerateSalt() ([]byte, error) {
	return common.RandomBytes(SaltSize)
}

// DeriveKey returns the 32-byte vault key for password and salt.
func DeriveKey(password string, salt []byte, p Params) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, KeySize)
}

// HashPassword returns a PHC-formatted Argon2id hash with its own random
// salt, unrelated to the vault salt.
func HashPassword(password string, p Params) (string, error) {
	if !p.valid() {
		return "", fmt.Errorf("kdf: invalid params %+v", p)
	}
	salt, err := common.RandomBytes(hashSaltSize)
	if err != nil {
		return "", err
	}
	sum := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, KeySize)
	defer common.WipeByteArray(sum)

	return encodeHash(p, salt, sum), nil
}

// DummyHash is a well-formed hash with params p that matches no password.
// Verifying against it costs the same as verifying a real hash.
func DummyHash(p Params) string {
	return encodeHash(p, make([]byte, hashSaltSize), make([]byte, KeySize))
}

func encodeHash(p Params, salt, sum []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(sum))
}

// VerifyPassword recomputes the hash with the parameters embedded in
// encoded and compares in constant time. Malformed input returns false.
func VerifyPassword(password, encoded string) bool {
	p, salt, want, ok := decodeHash(encoded)
	if !ok {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, uint32(len(want)))
	defer common.WipeByteArray(got)

	return subtle.ConstantTimeCompare(got, want) == 1
}

func decodeHash(encoded string) (Params, []byte, []byte, bool) {
	var p Params
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil || !p.valid() {
		return p, nil, nil, false
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, false
	}
	sum, err := b64.DecodeString(parts[5])
	if err != nil || len(sum) == 0 {
		return p, nil, nil, false
	}
	return p, salt, sum, true
}
