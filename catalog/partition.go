package catalog

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"iter"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/encoding"
	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/internal/wire"
)

const (
	partitionNamespaceIDField       protowire.Number = 1
	partitionTableIDField           protowire.Number = 2
	partitionIDField                protowire.Number = 3
	partitionHashIDField            protowire.Number = 4
	partitionKeyField               protowire.Number = 5
	partitionFilesField             protowire.Number = 6
	partitionColumnIDsField         protowire.Number = 7
	partitionSortKeyIDsField        protowire.Number = 8
	partitionNewFileAtField         protowire.Number = 9
	partitionSkippedCompactionField protowire.Number = 10
)

// PartitionHashIDSize is the size of a derived partition hash id.
const PartitionHashIDSize = sha256.Size

// PartitionInfo carries the scalar fields of a partition snapshot.
type PartitionInfo struct {
	NamespaceID int64
	TableID     int64
	PartitionID int64
	// HashID marks partitions addressed by a hash id derived from TableID and Key.
	HashID bool
	Key    []byte
	// ColumnIDs lists the columns present in any file of the partition. File
	// column masks are positional over this list.
	ColumnIDs  []int64
	SortKeyIDs []int64
	// NewFileAt is nil when no new file time is recorded.
	NewFileAt *int64
	// SkippedCompaction is nil unless the compactor skipped this partition.
	SkippedCompaction *SkippedCompaction
}

// PartitionHashID derives the hash id of a partition from its table id and key.
func PartitionHashID(tableID int64, key []byte) [PartitionHashIDSize]byte {
	h := sha256.New()
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], uint64(tableID)) //nolint:gosec
	h.Write(id[:])
	h.Write(key)

	var out [PartitionHashIDSize]byte
	h.Sum(out[:0])

	return out
}

// PartitionEncoder builds a partition snapshot.
//
// Note: The PartitionEncoder is NOT thread-safe and NOT reusable after Finish.
type PartitionEncoder struct {
	info      PartitionInfo
	positions map[int64]int // column id → position in info.ColumnIDs
	files     *recordList
	finished  bool
}

// NewPartitionEncoder creates an encoder for a partition described by info.
//
// Column ids must be unique. Partitions carry no hash index, so the encoder
// options only matter for consistency with the other entity encoders.
func NewPartitionEncoder(info PartitionInfo, opts ...EncoderOption) (*PartitionEncoder, error) {
	if _, err := newEncoderConfig(opts...); err != nil {
		return nil, err
	}

	positions := make(map[int64]int, len(info.ColumnIDs))
	for i, id := range info.ColumnIDs {
		if first, ok := positions[id]; ok {
			return nil, fmt.Errorf("%w: column id %d at positions %d and %d", errs.ErrDuplicateKey, id, first, i)
		}
		positions[id] = i
	}

	return &PartitionEncoder{
		info:      info,
		positions: positions,
		files:     newRecordList(),
	}, nil
}

// AddFile appends a file. Its column set is taken from file.ColumnIDs, which
// must all appear in the partition's column ids.
//
// Returns:
//   - error: ErrUnknownColumn for column ids the partition does not list,
//     ErrEncoderFinished after Finish
func (e *PartitionEncoder) AddFile(file PartitionFile) error {
	if e.finished {
		return errs.ErrEncoderFinished
	}

	positions := make([]int, 0, len(file.ColumnIDs))
	for _, id := range file.ColumnIDs {
		pos, ok := e.positions[id]
		if !ok {
			return fmt.Errorf("%w: file %s references column id %d", errs.ErrUnknownColumn, file.ObjectStoreID, id)
		}
		positions = append(positions, pos)
	}

	mask, err := encoding.BuildBitMask(len(e.info.ColumnIDs), positions)
	if err != nil {
		return err
	}

	e.files.add(func(b []byte) []byte {
		return file.appendTo(b, mask)
	})

	return nil
}

// FileCount returns the number of files added so far.
func (e *PartitionEncoder) FileCount() int {
	return e.files.len()
}

// Finish returns the encoded partition.
func (e *PartitionEncoder) Finish() ([]byte, error) {
	if e.finished {
		return nil, errs.ErrEncoderFinished
	}
	e.finished = true

	files, err := e.files.build()
	if err != nil {
		return nil, fmt.Errorf("partition files: %w", err)
	}

	info := e.info

	return finishSnapshot(func(b []byte) []byte {
		b = wire.AppendInt64(b, partitionNamespaceIDField, info.NamespaceID)
		b = wire.AppendInt64(b, partitionTableIDField, info.TableID)
		b = wire.AppendInt64(b, partitionIDField, info.PartitionID)
		b = wire.AppendBool(b, partitionHashIDField, info.HashID)
		b = wire.AppendBytes(b, partitionKeyField, info.Key)
		b = wire.AppendMessage(b, partitionFilesField, files.Bytes())
		b = wire.AppendPackedInt64s(b, partitionColumnIDsField, info.ColumnIDs)
		b = wire.AppendPackedInt64s(b, partitionSortKeyIDsField, info.SortKeyIDs)
		if info.NewFileAt != nil {
			b = wire.AppendOptionalInt64(b, partitionNewFileAtField, *info.NewFileAt)
		}
		if info.SkippedCompaction != nil {
			b = wire.AppendMessage(b, partitionSkippedCompactionField, info.SkippedCompaction.appendTo(nil))
		}

		return b
	}), nil
}

// Partition is a decoded partition snapshot. It aliases the buffer it was
// decoded from and is safe for concurrent use.
type Partition struct {
	files encoding.MessageList

	namespaceID  int64
	tableID      int64
	partitionID  int64
	hasHashID    bool
	key          []byte
	columnIDs    []int64
	sortKeyIDs   []int64
	newFileAt    int64
	hasNewFileAt bool
	skipped      SkippedCompaction
	hasSkipped   bool
}

// DecodePartition decodes a partition snapshot.
//
// The file list is validated up front. Files are decoded when accessed, which
// is also when a column mask that does not match the partition's column ids
// is reported.
func DecodePartition(b []byte) (Partition, error) {
	var (
		p          Partition
		filesBytes []byte
	)

	d := wire.NewDecoder(b)
	for d.Next() {
		var err error
		switch d.Number() {
		case partitionNamespaceIDField:
			p.namespaceID, err = d.Int64()
		case partitionTableIDField:
			p.tableID, err = d.Int64()
		case partitionIDField:
			p.partitionID, err = d.Int64()
		case partitionHashIDField:
			p.hasHashID, err = d.Bool()
		case partitionKeyField:
			p.key, err = d.Bytes()
		case partitionFilesField:
			filesBytes, err = d.Bytes()
		case partitionColumnIDsField:
			p.columnIDs, err = d.Int64s(p.columnIDs)
		case partitionSortKeyIDsField:
			p.sortKeyIDs, err = d.Int64s(p.sortKeyIDs)
		case partitionNewFileAtField:
			if p.newFileAt, err = d.Int64(); err == nil {
				p.hasNewFileAt = true
			}
		case partitionSkippedCompactionField:
			var v []byte
			if v, err = d.Bytes(); err == nil {
				if p.skipped, err = decodeSkippedCompaction(v); err == nil {
					p.hasSkipped = true
				}
			}
		}
		if err != nil {
			return Partition{}, fmt.Errorf("partition: %w", err)
		}
	}
	if err := d.Err(); err != nil {
		return Partition{}, fmt.Errorf("partition: %w", err)
	}

	files, err := encoding.DecodeMessageList(filesBytes)
	if err != nil {
		return Partition{}, fmt.Errorf("partition files: %w", err)
	}
	p.files = files

	return p, nil
}

// NamespaceID returns the id of the owning namespace.
func (p Partition) NamespaceID() int64 { return p.namespaceID }

// TableID returns the id of the owning table.
func (p Partition) TableID() int64 { return p.tableID }

// PartitionID returns the partition id.
func (p Partition) PartitionID() int64 { return p.partitionID }

// Key returns the partition key. It aliases the snapshot buffer.
func (p Partition) Key() []byte { return p.key }

// HashID returns the partition's hash id, or false if the partition is
// addressed by integer id only.
func (p Partition) HashID() ([PartitionHashIDSize]byte, bool) {
	if !p.hasHashID {
		return [PartitionHashIDSize]byte{}, false
	}

	return PartitionHashID(p.tableID, p.key), true
}

// ColumnIDs returns the ids of the partition's columns. The slice must not be modified.
func (p Partition) ColumnIDs() []int64 { return p.columnIDs }

// SortKeyIDs returns the column ids of the sort key, in sort order. The slice must not be modified.
func (p Partition) SortKeyIDs() []int64 { return p.sortKeyIDs }

// NewFileAt returns the time a new file was last added, if recorded.
func (p Partition) NewFileAt() (int64, bool) {
	return p.newFileAt, p.hasNewFileAt
}

// SkippedCompaction returns the last skipped compaction record, if any.
func (p Partition) SkippedCompaction() (SkippedCompaction, bool) {
	return p.skipped, p.hasSkipped
}

// FileCount returns the number of files.
func (p Partition) FileCount() int {
	return p.files.Len()
}

// File returns file i. Its column mask is checked against the partition's
// column ids and fails with ErrColumnMaskLength on mismatch.
func (p Partition) File(i int) (PartitionFile, error) {
	rec, err := p.files.Get(i)
	if err != nil {
		return PartitionFile{}, err
	}

	f, err := decodePartitionFile(rec)
	if err != nil {
		return PartitionFile{}, fmt.Errorf("file %d: %w", i, err)
	}

	if f.ColumnMask.Len() != len(p.columnIDs) {
		return PartitionFile{}, fmt.Errorf("%w: file %d mask covers %d columns, partition has %d",
			errs.ErrColumnMaskLength, i, f.ColumnMask.Len(), len(p.columnIDs))
	}

	return f, nil
}

// Files iterates over the files in insertion order. Iteration stops after
// the first error.
func (p Partition) Files() iter.Seq2[PartitionFile, error] {
	return func(yield func(PartitionFile, error) bool) {
		for i := range p.files.Len() {
			f, err := p.File(i)
			if !yield(f, err) || err != nil {
				return
			}
		}
	}
}

// FileColumnIDs resolves the column mask of a file from this partition to
// column ids.
func (p Partition) FileColumnIDs(f PartitionFile) ([]int64, error) {
	if f.ColumnMask.Len() != len(p.columnIDs) {
		return nil, fmt.Errorf("%w: mask covers %d columns, partition has %d",
			errs.ErrColumnMaskLength, f.ColumnMask.Len(), len(p.columnIDs))
	}

	ids := make([]int64, 0, f.ColumnMask.Count())
	for pos := range f.ColumnMask.SetBits() {
		ids = append(ids, p.columnIDs[pos])
	}

	return ids, nil
}
