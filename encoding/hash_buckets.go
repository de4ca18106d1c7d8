package encoding

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/bits"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/endian"
	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/internal/collision"
	"github.com/arloliu/catsnap/internal/hash"
	"github.com/arloliu/catsnap/internal/wire"
)

// HashBuckets field numbers. Field 2 is the only member of the hash_function
// oneof today; new algorithms get new field numbers.
const (
	hashBucketsBucketsField   protowire.Number = 1
	hashBucketsSipHash24Field protowire.Number = 2

	sipHash24Key0Field protowire.Number = 1
	sipHash24Key1Field protowire.Number = 2
)

// MaxLoadFactor is the highest ratio of entries to buckets a built index has.
// Bucket counts are powers of two, so actual load factors range from about
// 0.43 to 0.85.
const MaxLoadFactor = 0.85

// HashFunction identifies the keyed hash a HashBuckets index was built with.
type HashFunction uint8

const (
	HashFunctionUnknown HashFunction = iota
	HashFunctionSipHash24
)

func (f HashFunction) String() string {
	switch f {
	case HashFunctionSipHash24:
		return "SipHash24"
	default:
		return "Unknown"
	}
}

// HashSeed is the 128-bit SipHash key of one snapshot's hash indexes.
type HashSeed struct {
	Key0 uint64
	Key1 uint64
}

// NewRandomHashSeed draws a seed from crypto/rand.
func NewRandomHashSeed() HashSeed {
	var b [16]byte
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(b[:])

	return HashSeed{
		Key0: binary.LittleEndian.Uint64(b[0:8]),
		Key1: binary.LittleEndian.Uint64(b[8:16]),
	}
}

// ParseHashSeed parses a seed from 32 hex characters (16 bytes, key0 first,
// each half little-endian).
func ParseHashSeed(s string) (HashSeed, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 16 {
		return HashSeed{}, fmt.Errorf("%w: want 32 hex characters, got %q", errs.ErrInvalidHashSeed, s)
	}

	return HashSeed{
		Key0: binary.LittleEndian.Uint64(b[0:8]),
		Key1: binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}

// String returns the seed in the form accepted by ParseHashSeed.
func (s HashSeed) String() string {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], s.Key0)
	binary.LittleEndian.PutUint64(b[8:16], s.Key1)

	return hex.EncodeToString(b[:])
}

// HashBuckets is an open-addressing hash index mapping keys to element
// indexes of a parallel collection (usually a MessageList). Keys are not
// stored in the index; lookups resolve candidate indexes back to keys
// through the caller.
//
// # Layout
//
// The bucket array holds N slots, N a power of two (or zero for an empty
// index). Slot width depends on the number of entries n:
//
//	n < 255     1 byte
//	n < 65535   2 bytes
//	otherwise   4 bytes
//
// A slot value of 0 marks an empty bucket, v > 0 references element v-1.
// Slots are little-endian. A key's home bucket is SipHash24(seed, key) & (N-1);
// collisions probe linearly forward, wrapping at the end.
type HashBuckets struct {
	buckets []byte
	width   int
	count   int // number of buckets
	entries int // size of the parallel collection
	fn      HashFunction
	seed    HashSeed
}

// BuildHashBuckets builds an index over keys, where keys[i] maps to index i.
//
// Keys must be unique (ErrDuplicateKey otherwise). When several keys share a
// home bucket, the one inserted first keeps it.
func BuildHashBuckets(keys [][]byte, seed HashSeed) (HashBuckets, error) {
	return buildHashBuckets(keys, seed, bucketCountFor(len(keys)))
}

func buildHashBuckets(keys [][]byte, seed HashSeed, bucketCount int) (HashBuckets, error) {
	h := HashBuckets{
		width:   slotWidth(len(keys)),
		count:   bucketCount,
		entries: len(keys),
		fn:      HashFunctionSipHash24,
		seed:    seed,
	}
	h.buckets = make([]byte, h.count*h.width)

	engine := endian.GetLittleEndianEngine()
	tracker := collision.NewTracker(len(keys))
	for i, key := range keys {
		if err := tracker.Track(key, i); err != nil {
			return HashBuckets{}, err
		}

		sum := hash.SipHash24(seed.Key0, seed.Key1, key)
		slot, ok := h.findEmpty(sum)
		if !ok {
			return HashBuckets{}, fmt.Errorf("%w: no empty bucket for key %d among %d buckets",
				errs.ErrHashIndexOverflow, i, h.count)
		}
		endian.PutUint(engine, h.buckets[slot*h.width:], h.width, uint32(i+1)) //nolint:gosec
	}

	return h, nil
}

func (h HashBuckets) findEmpty(sum uint64) (int, bool) {
	if h.count == 0 {
		return 0, false
	}

	mask := uint64(h.count - 1) //nolint:gosec
	slot := int(sum & mask)     //nolint:gosec
	for range h.count {
		if h.slot(slot) == 0 {
			return slot, true
		}
		slot = (slot + 1) & int(mask) //nolint:gosec
	}

	return 0, false
}

func (h HashBuckets) slot(i int) uint32 {
	return endian.Uint(endian.GetLittleEndianEngine(), h.buckets[i*h.width:], h.width)
}

// Lookup returns the index of key.
//
// keyAt resolves a candidate index to its key in the parallel collection. The
// probe stops at the first empty bucket or after visiting every bucket, so a
// corrupted table without empty buckets still terminates. Errors from keyAt
// are returned unchanged.
func (h HashBuckets) Lookup(key []byte, keyAt func(i int) ([]byte, error)) (int, bool, error) {
	if h.count == 0 {
		return 0, false, nil
	}

	sum := hash.SipHash24(h.seed.Key0, h.seed.Key1, key)
	mask := h.count - 1
	slot := int(sum & uint64(mask)) //nolint:gosec
	for range h.count {
		v := h.slot(slot)
		if v == 0 {
			return 0, false, nil
		}

		idx := int(v - 1)
		candidate, err := keyAt(idx)
		if err != nil {
			return 0, false, err
		}
		if string(candidate) == string(key) {
			return idx, true, nil
		}
		slot = (slot + 1) & mask
	}

	return 0, false, nil
}

// Len returns the number of indexed entries.
func (h HashBuckets) Len() int {
	return h.entries
}

// BucketCount returns the number of buckets.
func (h HashBuckets) BucketCount() int {
	return h.count
}

// LoadFactor returns entries per bucket.
func (h HashBuckets) LoadFactor() float64 {
	if h.count == 0 {
		return 0
	}

	return float64(h.entries) / float64(h.count)
}

// HashFunction returns the hash algorithm of the index.
func (h HashBuckets) HashFunction() HashFunction {
	return h.fn
}

// Seed returns the hash seed of the index.
func (h HashBuckets) Seed() HashSeed {
	return h.seed
}

// Bytes encodes the index as a standalone message.
func (h HashBuckets) Bytes() []byte {
	return h.AppendTo(nil)
}

// AppendTo appends the index's message encoding (without a field tag) to b.
func (h HashBuckets) AppendTo(b []byte) []byte {
	b = wire.AppendBytes(b, hashBucketsBucketsField, h.buckets)

	var sip []byte
	sip = wire.AppendFixed64(sip, sipHash24Key0Field, h.seed.Key0)
	sip = wire.AppendFixed64(sip, sipHash24Key1Field, h.seed.Key1)

	return wire.AppendMessage(b, hashBucketsSipHash24Field, sip)
}

// DecodeHashBuckets decodes and validates an index over a collection of
// entries elements.
//
// Validation checks that the bucket array splits into slots of the width
// implied by entries, that the bucket count is a power of two, and that the
// occupied buckets reference every index in [0, entries) exactly once. An
// index without a known hash function fails with ErrUnknownHashFunction.
// The bucket array aliases b.
func DecodeHashBuckets(b []byte, entries int) (HashBuckets, error) {
	h := HashBuckets{
		width:   slotWidth(entries),
		entries: entries,
	}

	d := wire.NewDecoder(b)
	for d.Next() {
		var err error
		switch d.Number() {
		case hashBucketsBucketsField:
			h.buckets, err = d.Bytes()
		case hashBucketsSipHash24Field:
			var msg []byte
			if msg, err = d.Bytes(); err == nil {
				h.seed, err = decodeSipHash24(msg)
				h.fn = HashFunctionSipHash24
			}
		}
		if err != nil {
			return HashBuckets{}, fmt.Errorf("hash buckets: %w", err)
		}
	}
	if err := d.Err(); err != nil {
		return HashBuckets{}, fmt.Errorf("hash buckets: %w", err)
	}

	if h.fn == HashFunctionUnknown {
		return HashBuckets{}, errs.ErrUnknownHashFunction
	}

	if err := h.validate(); err != nil {
		return HashBuckets{}, err
	}

	return h, nil
}

func decodeSipHash24(b []byte) (HashSeed, error) {
	var (
		seed HashSeed
		err  error
	)

	d := wire.NewDecoder(b)
	for d.Next() {
		switch d.Number() {
		case sipHash24Key0Field:
			seed.Key0, err = d.Fixed64()
		case sipHash24Key1Field:
			seed.Key1, err = d.Fixed64()
		}
		if err != nil {
			return HashSeed{}, err
		}
	}

	return seed, d.Err()
}

func (h *HashBuckets) validate() error {
	if len(h.buckets)%h.width != 0 {
		return fmt.Errorf("%w: %d bucket bytes do not split into %d-byte slots",
			errs.ErrMalformedHashBuckets, len(h.buckets), h.width)
	}

	h.count = len(h.buckets) / h.width
	if h.count == 0 {
		if h.entries != 0 {
			return fmt.Errorf("%w: no buckets for %d entries", errs.ErrMalformedHashBuckets, h.entries)
		}

		return nil
	}

	if bits.OnesCount(uint(h.count)) != 1 {
		return fmt.Errorf("%w: bucket count %d is not a power of two", errs.ErrMalformedHashBuckets, h.count)
	}

	seen := make([]bool, h.entries)
	occupied := 0
	for i := range h.count {
		v := h.slot(i)
		if v == 0 {
			continue
		}

		idx := int(v - 1)
		if idx >= h.entries {
			return fmt.Errorf("%w: bucket %d references index %d of %d",
				errs.ErrMalformedHashBuckets, i, idx, h.entries)
		}
		if seen[idx] {
			return fmt.Errorf("%w: index %d referenced by more than one bucket", errs.ErrMalformedHashBuckets, idx)
		}
		seen[idx] = true
		occupied++
	}

	if occupied != h.entries {
		return fmt.Errorf("%w: %d occupied buckets for %d entries", errs.ErrMalformedHashBuckets, occupied, h.entries)
	}

	return nil
}

// bucketCountFor returns the smallest power of two holding n entries at a
// load factor of at most MaxLoadFactor. Zero entries need zero buckets.
func bucketCountFor(n int) int {
	if n == 0 {
		return 0
	}

	count := 1
	for float64(n) > MaxLoadFactor*float64(count) {
		count <<= 1
	}

	return count
}

// slotWidth returns the slot width in bytes for an index over n entries.
// Slot values go up to n, and 0 is reserved for empty buckets.
func slotWidth(n int) int {
	switch {
	case n < 0xFF:
		return 1
	case n < 0xFFFF:
		return 2
	default:
		return 4
	}
}
