package section

import (
	"fmt"

	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/format"
)

// Flag holds the identification bytes of an envelope header.
type Flag struct {
	// Magic must be MagicNumber.
	Magic uint16
	// Version is the envelope layout version.
	Version uint8
	// Kind is the entity encoded in the payload.
	Kind format.EntityKind
	// Compression is the codec applied to the payload.
	Compression format.CompressionType
}

var validCompressions = map[format.CompressionType]struct{}{
	format.CompressionNone: {},
	format.CompressionZstd: {},
	format.CompressionS2:   {},
	format.CompressionLZ4:  {},
}

// NewFlag creates a current-version flag for kind, stored uncompressed.
func NewFlag(kind format.EntityKind) Flag {
	return Flag{
		Magic:       MagicNumber,
		Version:     VersionV1,
		Kind:        kind,
		Compression: format.CompressionNone,
	}
}

// WithCompression sets the payload compression.
func (f *Flag) WithCompression(compression format.CompressionType) {
	f.Compression = compression
}

// IsValidMagicNumber reports whether the magic number matches.
func (f Flag) IsValidMagicNumber() bool {
	return f.Magic == MagicNumber
}

// Validate checks magic, version, kind and compression.
func (f Flag) Validate() error {
	if !f.IsValidMagicNumber() {
		return fmt.Errorf("%w: magic 0x%04X", errs.ErrInvalidHeader, f.Magic)
	}
	if f.Version != VersionV1 {
		return fmt.Errorf("%w: unsupported version %d", errs.ErrInvalidHeader, f.Version)
	}
	if !f.Kind.IsValid() {
		return fmt.Errorf("%w: unknown entity kind %d", errs.ErrInvalidHeader, f.Kind)
	}
	if _, ok := validCompressions[f.Compression]; !ok {
		return fmt.Errorf("%w: unknown compression %d", errs.ErrInvalidHeader, f.Compression)
	}

	return nil
}

func (f Flag) String() string {
	return fmt.Sprintf("v%d %s %s", f.Version, f.Kind, f.Compression)
}
