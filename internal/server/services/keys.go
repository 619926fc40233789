package services

import "github.com/awnumar/memguard"

// VaultKey holds a derived vault key in locked memory for the duration of a
// single request. It must be destroyed by the caller.
type VaultKey struct {
	buf *memguard.LockedBuffer
}

// newVaultKey moves raw into a locked buffer and wipes raw.
func newVaultKey(raw []byte) *VaultKey {
	return &VaultKey{buf: memguard.NewBufferFromBytes(raw)}
}

// Bytes returns the key. The slice is only valid until Destroy.
func (k *VaultKey) Bytes() []byte {
	return k.buf.Bytes()
}

func (k *VaultKey) Destroy() {
	if k == nil || k.buf == nil {
		return
	}
	k.buf.Destroy()
}
