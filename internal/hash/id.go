// Package hash provides the hash functions used by csfkit: a fast 64-bit label
// hash for lookups and a cryptographic digest for verifying round trips.
package hash

import (
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// LabelID computes the xxHash64 of a label.
func LabelID(label string) uint64 {
	return xxhash.Sum64String(label)
}

// Digest computes the hex-encoded BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint is an order-sensitive xxHash64 over a sequence of byte strings.
// Each part is length-prefixed so ("ab","c") and ("a","bc") differ.
type Fingerprint struct {
	d *xxhash.Digest
}

// NewFingerprint creates an empty Fingerprint.
func NewFingerprint() *Fingerprint {
	return &Fingerprint{d: xxhash.New()}
}

// Add appends one part.
func (f *Fingerprint) Add(part []byte) {
	var n [8]byte
	l := uint64(len(part))
	for i := range n {
		n[i] = byte(l >> (8 * i))
	}
	_, _ = f.d.Write(n[:])
	_, _ = f.d.Write(part)
}

// AddString appends one string part.
func (f *Fingerprint) AddString(part string) {
	f.Add([]byte(part))
}

// Sum64 returns the fingerprint value.
func (f *Fingerprint) Sum64() uint64 {
	return f.d.Sum64()
}
