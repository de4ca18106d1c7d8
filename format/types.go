// Package format holds the small enumerations shared across catsnap's wire
// layouts: envelope compression, snapshot entity kinds and column types.
package format

type (
	CompressionType uint8
	EntityKind      uint8
	ColumnType      int32
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone stores the payload as is.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

const (
	KindNamespace EntityKind = 0x1 // KindNamespace is a namespace snapshot.
	KindTable     EntityKind = 0x2 // KindTable is a table snapshot.
	KindPartition EntityKind = 0x3 // KindPartition is a partition snapshot.
)

const (
	ColumnTypeI64    ColumnType = 1
	ColumnTypeU64    ColumnType = 2
	ColumnTypeF64    ColumnType = 3
	ColumnTypeBool   ColumnType = 4
	ColumnTypeString ColumnType = 5
	ColumnTypeTime   ColumnType = 6
	ColumnTypeTag    ColumnType = 7
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompressionType maps a configuration name (none, zstd, s2, lz4) to its type.
func ParseCompressionType(name string) (CompressionType, bool) {
	switch name {
	case "", "none":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}

func (k EntityKind) String() string {
	switch k {
	case KindNamespace:
		return "Namespace"
	case KindTable:
		return "Table"
	case KindPartition:
		return "Partition"
	default:
		return "Unknown"
	}
}

// IsValid reports whether k is a known entity kind.
func (k EntityKind) IsValid() bool {
	return k >= KindNamespace && k <= KindPartition
}

func (c ColumnType) String() string {
	switch c {
	case ColumnTypeI64:
		return "i64"
	case ColumnTypeU64:
		return "u64"
	case ColumnTypeF64:
		return "f64"
	case ColumnTypeBool:
		return "bool"
	case ColumnTypeString:
		return "string"
	case ColumnTypeTime:
		return "time"
	case ColumnTypeTag:
		return "tag"
	default:
		return "unknown"
	}
}

// IsValid reports whether c is a known column type.
func (c ColumnType) IsValid() bool {
	return c >= ColumnTypeI64 && c <= ColumnTypeTag
}
