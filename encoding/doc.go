// Package encoding provides the building blocks of catsnap snapshots.
//
// Every snapshot entity is a protobuf message assembled from four primitives:
//
//   - MessageList: a list of variable-length byte slices addressed through an
//     offsets table, giving O(1) access to element i.
//   - HashBuckets: an open-addressing hash index over the keys of a parallel
//     MessageList. The index stores element positions only; keys are compared
//     by resolving positions back through the list.
//   - BitMask: a packed bit vector, used to record which of a partition's
//     columns a file carries.
//   - UUID: a 128-bit identifier stored as two fixed64 words.
//
// # Decoding
//
// All Decode functions validate the full shape of their input before
// returning, then alias the input buffer instead of copying it. Validation
// cost is linear in the size of the structure (offsets, bucket slots, mask
// bytes), never in the number of lookups performed later.
//
// Decoded values are immutable and safe for concurrent use.
//
// # Building
//
// Build functions copy their inputs. A HashBuckets build needs a HashSeed;
// callers normally draw one per snapshot with NewRandomHashSeed so that
// bucket placement cannot be predicted from key contents.
package encoding
