package common

import (
	"crypto/rand"
	"fmt"

	"github.com/awnumar/memguard"
)

// RandomBytes returns size bytes read from crypto/rand. A failing entropy
// source is reported to the caller; there is no fallback.
func RandomBytes(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return b, nil
}

// WipeByteArray overwrites b with zeros. Nil is a no-op.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	memguard.WipeBytes(b)
}
