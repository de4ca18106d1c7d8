package catalog

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/internal/wire"
)

const (
	skippedPartitionIDField                   protowire.Number = 1
	skippedReasonField                        protowire.Number = 2
	skippedAtField                            protowire.Number = 3
	skippedEstimatedBytesField                protowire.Number = 4
	skippedLimitBytesField                    protowire.Number = 5
	skippedNumFilesField                      protowire.Number = 6
	skippedLimitNumFilesField                 protowire.Number = 7
	skippedLimitNumFilesFirstInPartitionField protowire.Number = 8
)

// SkippedCompaction records why the compactor last skipped a partition.
type SkippedCompaction struct {
	PartitionID                   int64
	Reason                        string
	SkippedAt                     int64 // unix nanoseconds
	EstimatedBytes                int64
	LimitBytes                    int64
	NumFiles                      int64
	LimitNumFiles                 int64
	LimitNumFilesFirstInPartition int64
}

func (s SkippedCompaction) appendTo(b []byte) []byte {
	b = wire.AppendInt64(b, skippedPartitionIDField, s.PartitionID)
	b = wire.AppendString(b, skippedReasonField, s.Reason)
	b = wire.AppendInt64(b, skippedAtField, s.SkippedAt)
	b = wire.AppendInt64(b, skippedEstimatedBytesField, s.EstimatedBytes)
	b = wire.AppendInt64(b, skippedLimitBytesField, s.LimitBytes)
	b = wire.AppendInt64(b, skippedNumFilesField, s.NumFiles)
	b = wire.AppendInt64(b, skippedLimitNumFilesField, s.LimitNumFiles)

	return wire.AppendInt64(b, skippedLimitNumFilesFirstInPartitionField, s.LimitNumFilesFirstInPartition)
}

func decodeSkippedCompaction(b []byte) (SkippedCompaction, error) {
	var s SkippedCompaction

	d := wire.NewDecoder(b)
	for d.Next() {
		var err error
		switch d.Number() {
		case skippedPartitionIDField:
			s.PartitionID, err = d.Int64()
		case skippedReasonField:
			var v []byte
			if v, err = d.Bytes(); err == nil {
				s.Reason = string(v)
			}
		case skippedAtField:
			s.SkippedAt, err = d.Int64()
		case skippedEstimatedBytesField:
			s.EstimatedBytes, err = d.Int64()
		case skippedLimitBytesField:
			s.LimitBytes, err = d.Int64()
		case skippedNumFilesField:
			s.NumFiles, err = d.Int64()
		case skippedLimitNumFilesField:
			s.LimitNumFiles, err = d.Int64()
		case skippedLimitNumFilesFirstInPartitionField:
			s.LimitNumFilesFirstInPartition, err = d.Int64()
		}
		if err != nil {
			return SkippedCompaction{}, fmt.Errorf("skipped compaction: %w", err)
		}
	}
	if err := d.Err(); err != nil {
		return SkippedCompaction{}, fmt.Errorf("skipped compaction: %w", err)
	}

	return s, nil
}
