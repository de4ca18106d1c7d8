// Package hash holds the hash functions catsnap relies on: keyed SipHash-2-4
// for hash index placement and xxHash64 for envelope checksums.
package hash

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dchest/siphash"
)

// SipHash24 computes SipHash-2-4 of key under the 128-bit key (key0, key1).
func SipHash24(key0, key1 uint64, key []byte) uint64 {
	return siphash.Hash(key0, key1, key)
}

// Checksum computes the xxHash64 of data.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
