package section

import (
	"fmt"

	"github.com/arloliu/catsnap/endian"
	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/format"
)

// Header is the fixed-size header in front of every snapshot payload.
//
// All multi-byte fields are little-endian.
type Header struct {
	// Flag is the magic number, version, kind and compression (byte offset 0-4).
	Flag Flag
	// PayloadSize is the size of the encoded snapshot before compression (byte offset 8-11).
	PayloadSize uint32
	// StoredSize is the size of the bytes following the header (byte offset 12-15).
	StoredSize uint32
	// Checksum is the xxHash64 of the stored bytes (byte offset 16-23).
	Checksum uint64
}

// NewHeader creates a header for a payload of the given kind. Sizes and
// checksum are filled in when the envelope is sealed.
func NewHeader(kind format.EntityKind) *Header {
	return &Header{Flag: NewFlag(kind)}
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: Byte slice containing header (must be exactly 32 bytes)
//
// Returns:
//   - error: ErrInvalidHeader for a wrong size, non-zero reserved bytes or flag validation errors
func (h *Header) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return fmt.Errorf("%w: header is %d bytes, want %d", errs.ErrInvalidHeader, len(data), HeaderSize)
	}

	engine := endian.GetLittleEndianEngine()

	h.Flag.Magic = engine.Uint16(data[magicOffset:])
	h.Flag.Version = data[versionOffset]
	h.Flag.Kind = format.EntityKind(data[kindOffset])
	h.Flag.Compression = format.CompressionType(data[compressionOffset])

	for _, b := range data[compressionOffset+1 : payloadSizeOffset] {
		if b != 0 {
			return fmt.Errorf("%w: reserved bytes 5-7 are not zero", errs.ErrInvalidHeader)
		}
	}
	for _, b := range data[reservedOffset:HeaderSize] {
		if b != 0 {
			return fmt.Errorf("%w: reserved bytes 24-31 are not zero", errs.ErrInvalidHeader)
		}
	}

	h.PayloadSize = engine.Uint32(data[payloadSizeOffset:])
	h.StoredSize = engine.Uint32(data[storedSizeOffset:])
	h.Checksum = engine.Uint64(data[checksumOffset:])

	return h.Flag.Validate()
}

// Bytes serializes the Header into a byte slice.
func (h *Header) Bytes() []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize))
}

// AppendTo appends the serialized header to b.
func (h *Header) AppendTo(b []byte) []byte {
	engine := endian.GetLittleEndianEngine()

	b = engine.AppendUint16(b, h.Flag.Magic)
	b = append(b, h.Flag.Version, uint8(h.Flag.Kind), uint8(h.Flag.Compression), 0, 0, 0)
	b = engine.AppendUint32(b, h.PayloadSize)
	b = engine.AppendUint32(b, h.StoredSize)
	b = engine.AppendUint64(b, h.Checksum)

	return engine.AppendUint64(b, 0)
}

// ParseHeader parses a Header from the start of data.
//
// Returns:
//   - Header: Parsed header struct
//   - error: ErrTruncatedBuffer if data is shorter than HeaderSize, or header validation errors
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, header needs %d", errs.ErrTruncatedBuffer, len(data), HeaderSize)
	}

	h := Header{}
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return Header{}, err
	}

	return h, nil
}
