package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/encoding"
	"github.com/arloliu/catsnap/internal/wire"
)

const (
	fileObjectStoreIDField   protowire.Number = 1
	fileMinTimeField         protowire.Number = 2
	fileMaxTimeField         protowire.Number = 3
	fileSizeBytesField       protowire.Number = 4
	fileRowCountField        protowire.Number = 5
	fileCompactionLevelField protowire.Number = 6
	fileCreatedAtField       protowire.Number = 7
	fileMaxL0CreatedAtField  protowire.Number = 8
	fileColumnMaskField      protowire.Number = 9
	fileIDField              protowire.Number = 10
)

// PartitionFile describes one data file of a partition.
//
// When encoding, ColumnIDs lists the catalog ids of the columns present in the
// file; the encoder turns it into ColumnMask. Decoded files carry ColumnMask
// only, see Partition.FileColumnIDs.
type PartitionFile struct {
	// ID is the legacy integer id, kept for compatibility.
	ID              int64
	ObjectStoreID   uuid.UUID
	MinTime         int64
	MaxTime         int64
	FileSizeBytes   int64
	RowCount        int64
	CompactionLevel int32
	CreatedAt       int64
	MaxL0CreatedAt  int64

	ColumnIDs  []int64
	ColumnMask encoding.BitMask
}

func (f PartitionFile) appendTo(b []byte, mask encoding.BitMask) []byte {
	b = wire.AppendMessage(b, fileObjectStoreIDField, encoding.AppendUUID(nil, f.ObjectStoreID))
	b = wire.AppendInt64(b, fileMinTimeField, f.MinTime)
	b = wire.AppendInt64(b, fileMaxTimeField, f.MaxTime)
	b = wire.AppendInt64(b, fileSizeBytesField, f.FileSizeBytes)
	b = wire.AppendInt64(b, fileRowCountField, f.RowCount)
	b = wire.AppendInt32(b, fileCompactionLevelField, f.CompactionLevel)
	b = wire.AppendInt64(b, fileCreatedAtField, f.CreatedAt)
	b = wire.AppendInt64(b, fileMaxL0CreatedAtField, f.MaxL0CreatedAt)
	b = wire.AppendMessage(b, fileColumnMaskField, mask.Bytes())

	return wire.AppendInt64(b, fileIDField, f.ID)
}

func decodePartitionFile(b []byte) (PartitionFile, error) {
	var f PartitionFile

	d := wire.NewDecoder(b)
	for d.Next() {
		var err error
		switch d.Number() {
		case fileIDField:
			f.ID, err = d.Int64()
		case fileObjectStoreIDField:
			var v []byte
			if v, err = d.Bytes(); err == nil {
				f.ObjectStoreID, err = encoding.ConsumeUUID(v)
			}
		case fileMinTimeField:
			f.MinTime, err = d.Int64()
		case fileMaxTimeField:
			f.MaxTime, err = d.Int64()
		case fileSizeBytesField:
			f.FileSizeBytes, err = d.Int64()
		case fileRowCountField:
			f.RowCount, err = d.Int64()
		case fileCompactionLevelField:
			f.CompactionLevel, err = d.Int32()
		case fileCreatedAtField:
			f.CreatedAt, err = d.Int64()
		case fileColumnMaskField:
			var v []byte
			if v, err = d.Bytes(); err == nil {
				f.ColumnMask, err = encoding.DecodeBitMask(v)
			}
		case fileMaxL0CreatedAtField:
			f.MaxL0CreatedAt, err = d.Int64()
		}
		if err != nil {
			return PartitionFile{}, fmt.Errorf("partition file field %d: %w", d.Number(), err)
		}
	}
	if err := d.Err(); err != nil {
		return PartitionFile{}, fmt.Errorf("partition file: %w", err)
	}

	return f, nil
}
