// Package section defines the fixed binary layout of the catsnap envelope.
//
// An envelope wraps one encoded catalog entity so it can be cached and
// shipped as a self-identifying unit:
//
//	┌───────────────────────────────────────────────┐
//	│ Header (32 bytes, little-endian)              │
//	│   0-1   magic 0xCA75                          │
//	│   2     version                               │
//	│   3     entity kind                           │
//	│   4     compression                           │
//	│   5-7   reserved (zero)                       │
//	│   8-11  payload size, uncompressed            │
//	│   12-15 stored size                           │
//	│   16-23 xxHash64 of the stored bytes          │
//	│   24-31 reserved (zero)                       │
//	├───────────────────────────────────────────────┤
//	│ Stored payload (StoredSize bytes)             │
//	└───────────────────────────────────────────────┘
//
// This package only lays out and validates the header. Sealing and opening
// envelopes lives in the root catsnap package.
package section
