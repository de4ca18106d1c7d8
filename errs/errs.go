// Package errs defines the sentinel errors returned by catsnap.
//
// Callers match on these with errors.Is; the returned errors usually wrap them
// with positional context (element index, offset, field number).
package errs

import "errors"

// Structural decode errors.
var (
	// ErrMalformedOffsets is returned when a MessageList offsets array is not
	// monotonic, does not start at zero, or does not end at the value length.
	ErrMalformedOffsets = errors.New("malformed message list offsets")

	// ErrIndexOutOfBounds is returned for element indices or bit positions past the logical length.
	ErrIndexOutOfBounds = errors.New("index out of bounds")

	// ErrTruncatedBuffer is returned when a declared length exceeds the available bytes.
	ErrTruncatedBuffer = errors.New("truncated buffer")

	// ErrInvalidBitmaskPadding is returned when bits past the logical length of a bitmask are set.
	ErrInvalidBitmaskPadding = errors.New("invalid bitmask padding")

	// ErrMalformedBitMask is returned when the mask byte length does not match its logical length.
	ErrMalformedBitMask = errors.New("malformed bitmask")

	// ErrMalformedHashBuckets is returned when a bucket array has an invalid shape or references.
	ErrMalformedHashBuckets = errors.New("malformed hash buckets")

	// ErrUnknownHashFunction is returned when a hash index carries no hash function this decoder knows.
	ErrUnknownHashFunction = errors.New("unknown hash function")

	// ErrMalformedMessage is returned for wire-level violations such as wrong wire types.
	ErrMalformedMessage = errors.New("malformed message")
)

// Build errors.
var (
	// ErrHashIndexOverflow is returned when an insertion cannot find an empty bucket.
	ErrHashIndexOverflow = errors.New("hash index overflow")

	// ErrOffsetOverflow is returned when the total encoded size exceeds the offset width.
	ErrOffsetOverflow = errors.New("message list offset overflow")

	// ErrDuplicateKey is returned when a hash index is built over non-unique keys.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrEncoderFinished is returned when an encoder is used after Finish.
	ErrEncoderFinished = errors.New("encoder already finished")
)

// Catalog schema errors.
var (
	// ErrColumnMaskLength is returned when a file column mask does not cover the partition columns.
	ErrColumnMaskLength = errors.New("column mask length mismatch")

	// ErrUnknownColumn is returned when a file references a column the partition does not list.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidPartitionTemplate is returned for partition templates that fail validation.
	ErrInvalidPartitionTemplate = errors.New("invalid partition template")

	// ErrInvalidColumnType is returned for column types outside the known set.
	ErrInvalidColumnType = errors.New("invalid column type")
)

// Envelope errors.
var (
	ErrInvalidHeader    = errors.New("invalid snapshot header")
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")
	ErrPayloadTooLarge  = errors.New("snapshot payload too large")
	ErrKindMismatch     = errors.New("snapshot kind mismatch")
)

// Configuration errors.
var (
	// ErrInvalidPeers is returned when the peer list does not resolve to exactly two remote peers.
	ErrInvalidPeers = errors.New("expected exactly two peers")

	// ErrInvalidHashSeed is returned for hash seeds that are not 32 hex characters.
	ErrInvalidHashSeed = errors.New("invalid hash seed")
)
