package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arloliu/catsnap"
	"github.com/arloliu/catsnap/catalog"
	"github.com/arloliu/catsnap/format"
)

const (
	demoNamespaceFile = "namespace.snap"
	demoTableFile     = "table.snap"
	demoPartitionFile = "partition.snap"
)

func (s *snapT) runDemo(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	encOpts, err := s.encoderOptions()
	if err != nil {
		return err
	}
	envOpts, err := s.envelopeOptions()
	if err != nil {
		return err
	}

	snapshots := []struct {
		name  string
		build func() ([]byte, error)
	}{
		{demoNamespaceFile, func() ([]byte, error) { return demoNamespace(encOpts, envOpts) }},
		{demoTableFile, func() ([]byte, error) { return demoTable(encOpts, envOpts) }},
		{demoPartitionFile, func() ([]byte, error) { return demoPartition(encOpts, envOpts) }},
	}

	for _, snap := range snapshots {
		data, err := snap.build()
		if err != nil {
			return fmt.Errorf("build %s: %w", snap.name, err)
		}

		path := filepath.Join(dir, snap.name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		s.logger.Info("wrote snapshot", "file", path, "bytes", len(data))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d snapshots to %s\n", len(snapshots), dir)

	return nil
}

func demoTemplate() (catalog.PartitionTemplate, error) {
	return catalog.NewPartitionTemplate(
		catalog.TimeFormat(catalog.DefaultTimeFormat),
		catalog.TagValue("region"),
		catalog.Bucket("host", 16),
	)
}

func demoNamespace(encOpts []catalog.EncoderOption, envOpts []catsnap.Option) ([]byte, error) {
	template, err := demoTemplate()
	if err != nil {
		return nil, err
	}
	retention := 30 * 24 * time.Hour

	enc, err := catalog.NewNamespaceEncoder(catalog.NamespaceInfo{
		ID:                 1,
		Name:               "demo",
		RetentionPeriod:    &retention,
		MaxTables:          500,
		MaxColumnsPerTable: 200,
		PartitionTemplate:  &template,
	}, encOpts...)
	if err != nil {
		return nil, err
	}
	for i, name := range []string{"cpu", "mem", "disk", "net"} {
		if err := enc.AddTable(int64(10+i), name); err != nil {
			return nil, err
		}
	}

	return catsnap.SealNamespace(enc, envOpts...)
}

func demoTable(encOpts []catalog.EncoderOption, envOpts []catsnap.Option) ([]byte, error) {
	enc, err := catalog.NewTableEncoder(catalog.TableInfo{
		NamespaceID: 1,
		TableID:     10,
		Name:        "cpu",
	}, encOpts...)
	if err != nil {
		return nil, err
	}

	columns := []struct {
		name string
		typ  format.ColumnType
	}{
		{"region", format.ColumnTypeTag},
		{"host", format.ColumnTypeTag},
		{"usage_user", format.ColumnTypeF64},
		{"usage_system", format.ColumnTypeF64},
		{"time", format.ColumnTypeTime},
	}
	for i, col := range columns {
		if err := enc.AddColumn(int64(100+i), col.name, col.typ); err != nil {
			return nil, err
		}
	}
	for i, key := range []string{"2024-01-01|us-east|3", "2024-01-01|eu-west|7", "2024-01-02|us-east|3"} {
		if err := enc.AddPartition(int64(1000+i), []byte(key)); err != nil {
			return nil, err
		}
	}

	return catsnap.SealTable(enc, envOpts...)
}

func demoPartition(encOpts []catalog.EncoderOption, envOpts []catsnap.Option) ([]byte, error) {
	key := []byte("2024-01-01|us-east|3")
	newFileAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).UnixNano()

	enc, err := catalog.NewPartitionEncoder(catalog.PartitionInfo{
		NamespaceID: 1,
		TableID:     10,
		PartitionID: 1000,
		HashID:      true,
		Key:         key,
		ColumnIDs:   []int64{100, 101, 102, 103, 104},
		SortKeyIDs:  []int64{100, 101, 104},
		NewFileAt:   &newFileAt,
	}, encOpts...)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	for i := range 3 {
		columns := []int64{100, 101, 102, 104}
		if i == 2 {
			columns = []int64{100, 101, 102, 103, 104}
		}
		err := enc.AddFile(catalog.PartitionFile{
			ID:              int64(5000 + i),
			ObjectStoreID:   uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "demo-file-%d", i)),
			MinTime:         dayStart + int64(i)*int64(time.Hour),
			MaxTime:         dayStart + int64(i+1)*int64(time.Hour) - 1,
			FileSizeBytes:   int64(1<<20) * int64(i+1),
			RowCount:        10_000 * int64(i+1),
			CompactionLevel: int32(i % 2),
			CreatedAt:       newFileAt - int64(3-i)*int64(time.Minute),
			ColumnIDs:       columns,
		})
		if err != nil {
			return nil, err
		}
	}

	return catsnap.SealPartition(enc, envOpts...)
}
