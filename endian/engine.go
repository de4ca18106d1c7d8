// Package endian provides the byte order used by catsnap's fixed-width fields.
//
// Everything catsnap lays out itself (envelope header fields, hash bucket
// slots) is little-endian. Protobuf-encoded fields carry their own byte order
// and do not go through this package.
package endian

import "encoding/binary"

// EndianEngine combines binary.ByteOrder and binary.AppendByteOrder so a single
// value can both read and append fixed-width integers.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// PutUint writes v into b using width bytes (1, 2 or 4).
// The caller guarantees len(b) >= width and that v fits in width bytes.
func PutUint(engine EndianEngine, b []byte, width int, v uint32) {
	switch width {
	case 1:
		b[0] = uint8(v) //nolint:gosec
	case 2:
		engine.PutUint16(b, uint16(v)) //nolint:gosec
	case 4:
		engine.PutUint32(b, v)
	default:
		panic("endian: unsupported width")
	}
}

// Uint reads a width-byte (1, 2 or 4) unsigned integer from b.
func Uint(engine EndianEngine, b []byte, width int) uint32 {
	switch width {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(engine.Uint16(b))
	case 4:
		return engine.Uint32(b)
	default:
		panic("endian: unsupported width")
	}
}
