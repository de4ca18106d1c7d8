// Package catsnap encodes catalog snapshots into compact, self-describing
// byte buffers that can be cached and shipped between processes.
//
// A snapshot is one catalog entity (a namespace, a table or a partition)
// encoded with the catalog package, wrapped in a small envelope that records
// what the payload is, how it is compressed and a checksum of the stored
// bytes.
//
// # Basic Usage
//
// Encoding a namespace snapshot:
//
//	import "github.com/arloliu/catsnap"
//
//	enc, _ := catalog.NewNamespaceEncoder(catalog.NamespaceInfo{ID: 1, Name: "ns"})
//	_ = enc.AddTable(10, "metrics")
//	_ = enc.AddTable(11, "events")
//
//	data, _ := catsnap.SealNamespace(enc, catsnap.WithCompression(format.CompressionS2))
//
// Reading it back:
//
//	ns, _ := catsnap.OpenNamespace(data)
//	table, found, _ := ns.TableByName("events")
//
// Readers decode lazily: opening a snapshot validates the envelope and the
// top-level structure, and child records are decoded on access.
//
// # Package Structure
//
// This package provides the envelope and convenience wrappers. The catalog
// package holds the entity encoders and readers, and the encoding package the
// primitives they are built from.
package catsnap

import (
	"fmt"
	"math"

	"github.com/arloliu/catsnap/catalog"
	"github.com/arloliu/catsnap/compress"
	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/format"
	"github.com/arloliu/catsnap/internal/hash"
	"github.com/arloliu/catsnap/internal/options"
	"github.com/arloliu/catsnap/section"
)

// DefaultMaxPayloadSize bounds the uncompressed payload of a snapshot unless
// overridden with WithMaxPayloadSize.
const DefaultMaxPayloadSize = 256 << 20

// EnvelopeConfig holds the settings used by Seal and Open.
type EnvelopeConfig struct {
	compression    format.CompressionType
	maxPayloadSize uint32
}

// Option configures Seal and Open.
type Option = options.Option[*EnvelopeConfig]

// WithCompression sets the payload compression used by Seal. Open ignores it
// and uses the compression recorded in the header.
func WithCompression(compression format.CompressionType) Option {
	return options.New(func(c *EnvelopeConfig) error {
		if _, err := compress.GetCodec(compression); err != nil {
			return err
		}
		c.compression = compression

		return nil
	})
}

// WithMaxPayloadSize sets the largest uncompressed payload Seal produces and
// Open accepts. Open checks it before decompressing.
func WithMaxPayloadSize(size int) Option {
	return options.New(func(c *EnvelopeConfig) error {
		if size <= 0 || uint64(size) > math.MaxUint32 {
			return fmt.Errorf("max payload size %d out of range", size)
		}
		c.maxPayloadSize = uint32(size)

		return nil
	})
}

func newEnvelopeConfig(opts ...Option) (*EnvelopeConfig, error) {
	cfg := &EnvelopeConfig{
		compression:    format.CompressionNone,
		maxPayloadSize: DefaultMaxPayloadSize,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Seal wraps an encoded snapshot payload of the given kind in an envelope.
//
// Parameters:
//   - kind: Entity encoded in payload
//   - payload: Encoded snapshot, as returned by a catalog encoder's Finish
//   - opts: WithCompression, WithMaxPayloadSize
//
// Returns:
//   - []byte: Header followed by the stored (possibly compressed) payload
//   - error: ErrPayloadTooLarge, ErrInvalidHeader for an unknown kind, or compression errors
func Seal(kind format.EntityKind, payload []byte, opts ...Option) ([]byte, error) {
	cfg, err := newEnvelopeConfig(opts...)
	if err != nil {
		return nil, err
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown entity kind %d", errs.ErrInvalidHeader, kind)
	}
	if uint64(len(payload)) > uint64(cfg.maxPayloadSize) {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit %d", errs.ErrPayloadTooLarge, len(payload), cfg.maxPayloadSize)
	}

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}
	stored, err := codec.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("compress %s payload: %w", cfg.compression, err)
	}
	if uint64(len(stored)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: stored payload is %d bytes", errs.ErrPayloadTooLarge, len(stored))
	}

	header := section.NewHeader(kind)
	header.Flag.WithCompression(cfg.compression)
	header.PayloadSize = uint32(len(payload))
	header.StoredSize = uint32(len(stored))
	header.Checksum = hash.Checksum(stored)

	out := make([]byte, 0, section.HeaderSize+len(stored))
	out = header.AppendTo(out)

	return append(out, stored...), nil
}

// Open validates an envelope and returns the entity kind and the
// uncompressed payload.
//
// For uncompressed snapshots the returned payload aliases data.
//
// Returns:
//   - format.EntityKind: Kind recorded in the header
//   - []byte: Encoded snapshot payload
//   - error: ErrInvalidHeader, ErrTruncatedBuffer, ErrPayloadTooLarge, ErrChecksumMismatch or ErrMalformedMessage
func Open(data []byte, opts ...Option) (format.EntityKind, []byte, error) {
	cfg, err := newEnvelopeConfig(opts...)
	if err != nil {
		return 0, nil, err
	}

	header, err := section.ParseHeader(data)
	if err != nil {
		return 0, nil, err
	}
	if header.PayloadSize > cfg.maxPayloadSize {
		return 0, nil, fmt.Errorf("%w: %d bytes exceeds limit %d", errs.ErrPayloadTooLarge, header.PayloadSize, cfg.maxPayloadSize)
	}

	stored := data[section.HeaderSize:]
	switch {
	case uint64(len(stored)) < uint64(header.StoredSize):
		return 0, nil, fmt.Errorf("%w: stored size %d, have %d bytes", errs.ErrTruncatedBuffer, header.StoredSize, len(stored))
	case uint64(len(stored)) > uint64(header.StoredSize):
		return 0, nil, fmt.Errorf("%w: %d trailing bytes after payload", errs.ErrInvalidHeader, uint64(len(stored))-uint64(header.StoredSize))
	}
	if sum := hash.Checksum(stored); sum != header.Checksum {
		return 0, nil, fmt.Errorf("%w: got %016x, header has %016x", errs.ErrChecksumMismatch, sum, header.Checksum)
	}

	codec, err := compress.GetCodec(header.Flag.Compression)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", errs.ErrInvalidHeader, err)
	}
	payload, err := compress.Decompress(codec, stored, int(header.PayloadSize))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s payload: %w", errs.ErrMalformedMessage, header.Flag.Compression, err)
	}
	if uint64(len(payload)) != uint64(header.PayloadSize) {
		return 0, nil, fmt.Errorf("%w: payload is %d bytes, header has %d",
			errs.ErrMalformedMessage, len(payload), header.PayloadSize)
	}

	return header.Flag.Kind, payload, nil
}

// OpenKind opens an envelope that must hold a snapshot of the given kind.
func OpenKind(want format.EntityKind, data []byte, opts ...Option) ([]byte, error) {
	kind, payload, err := Open(data, opts...)
	if err != nil {
		return nil, err
	}
	if kind != want {
		return nil, fmt.Errorf("%w: snapshot holds %s, want %s", errs.ErrKindMismatch, kind, want)
	}

	return payload, nil
}

// SealNamespace finishes enc and seals the result.
func SealNamespace(enc *catalog.NamespaceEncoder, opts ...Option) ([]byte, error) {
	payload, err := enc.Finish()
	if err != nil {
		return nil, err
	}

	return Seal(format.KindNamespace, payload, opts...)
}

// OpenNamespace opens a namespace snapshot.
func OpenNamespace(data []byte, opts ...Option) (catalog.Namespace, error) {
	payload, err := OpenKind(format.KindNamespace, data, opts...)
	if err != nil {
		return catalog.Namespace{}, err
	}

	return catalog.DecodeNamespace(payload)
}

// SealTable finishes enc and seals the result.
func SealTable(enc *catalog.TableEncoder, opts ...Option) ([]byte, error) {
	payload, err := enc.Finish()
	if err != nil {
		return nil, err
	}

	return Seal(format.KindTable, payload, opts...)
}

// OpenTable opens a table snapshot.
func OpenTable(data []byte, opts ...Option) (catalog.Table, error) {
	payload, err := OpenKind(format.KindTable, data, opts...)
	if err != nil {
		return catalog.Table{}, err
	}

	return catalog.DecodeTable(payload)
}

// SealPartition finishes enc and seals the result.
func SealPartition(enc *catalog.PartitionEncoder, opts ...Option) ([]byte, error) {
	payload, err := enc.Finish()
	if err != nil {
		return nil, err
	}

	return Seal(format.KindPartition, payload, opts...)
}

// OpenPartition opens a partition snapshot.
func OpenPartition(data []byte, opts ...Option) (catalog.Partition, error) {
	payload, err := OpenKind(format.KindPartition, data, opts...)
	if err != nil {
		return catalog.Partition{}, err
	}

	return catalog.DecodePartition(payload)
}
