package compress

import (
	"fmt"

	"github.com/arloliu/catsnap/format"
)

// Compressor compresses a complete encoded snapshot payload.
type Compressor interface {
	// Compress compresses data and returns the result.
	//
	// The input slice is not modified. The result may alias the input for
	// codecs that do not transform data.
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
//
// Implementations must be safe for concurrent use.
type Decompressor interface {
	// Decompress decompresses data and returns the original payload. Corrupted
	// input or input from another algorithm is an error.
	Decompress(data []byte) ([]byte, error)
}

// SizedDecompressor is implemented by codecs that can decompress into a
// buffer of known size. The envelope header records the uncompressed size, so
// callers that have it should prefer this path.
type SizedDecompressor interface {
	// DecompressSized decompresses data whose original length is size.
	DecompressSized(data []byte, size int) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

// Decompress decompresses data with codec, using the sized path when the
// codec supports it.
func Decompress(codec Codec, data []byte, size int) ([]byte, error) {
	if sized, ok := codec.(SizedDecompressor); ok {
		return sized.DecompressSized(data, size)
	}

	return codec.Decompress(data)
}
