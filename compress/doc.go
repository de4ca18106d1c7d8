// Package compress provides the payload codecs of the catsnap envelope.
//
// Compression is applied to a whole encoded snapshot after it has been
// built, and reversed before the snapshot is decoded. The codec is recorded
// in the envelope header, so readers pick the right one without
// configuration.
//
// Supported algorithms:
//   - None (format.CompressionNone): payload stored as is
//   - Zstd (format.CompressionZstd): best ratio, for large partition snapshots
//   - S2 (format.CompressionS2): fast with a reasonable ratio
//   - LZ4 (format.CompressionLZ4): fastest decompression
//
// Usage:
//
//	codec, err := compress.GetCodec(format.CompressionS2)
//	if err != nil {
//	    return err
//	}
//	stored, err := codec.Compress(payload)
//	...
//	payload, err = compress.Decompress(codec, stored, originalSize)
//
// All codecs are safe for concurrent use.
package compress
