package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// ZstdCompressor provides Zstandard compression.
//
// It has the best ratio of the built-in codecs and suits large partition
// snapshots that are fetched rarely and cached for long. The default build
// uses the pure Go klauspost/compress implementation; building with cgo and
// the gozstd tag switches to the libzstd bindings.
type ZstdCompressor struct{}

var (
	_ Codec             = (*ZstdCompressor)(nil)
	_ SizedDecompressor = (*ZstdCompressor)(nil)
)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(data)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}

// checkZstdFrameSize rejects a frame whose declared content size differs
// from size before any of it is decoded.
func checkZstdFrameSize(data []byte, size int) error {
	var h zstd.Header
	if err := h.Decode(data); err != nil {
		return fmt.Errorf("zstd decompression failed: %w", err)
	}
	if h.HasFCS && h.FrameContentSize != uint64(size) {
		return fmt.Errorf("zstd decompression failed: frame declares %d bytes, want %d", h.FrameContentSize, size)
	}

	return nil
}
