package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/arloliu/catsnap"
	"github.com/arloliu/catsnap/catalog"
	"github.com/arloliu/catsnap/format"
	"github.com/arloliu/catsnap/section"
)

func (s *snapT) runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	opts, err := s.envelopeOptions()
	if err != nil {
		return err
	}

	header, err := section.ParseHeader(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	_, payload, err := catsnap.Open(data, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %s, payload %d bytes, stored %d bytes, checksum %016x\n",
		args[0], header.Flag, header.PayloadSize, header.StoredSize, header.Checksum)

	switch header.Flag.Kind {
	case format.KindNamespace:
		ns, err := catalog.DecodeNamespace(payload)
		if err != nil {
			return err
		}

		return printNamespace(w, ns)
	case format.KindTable:
		t, err := catalog.DecodeTable(payload)
		if err != nil {
			return err
		}

		return printTable(w, t)
	case format.KindPartition:
		p, err := catalog.DecodePartition(payload)
		if err != nil {
			return err
		}

		return printPartition(w, p)
	default:
		return fmt.Errorf("unsupported kind %s", header.Flag.Kind)
	}
}

func printNamespace(w io.Writer, ns catalog.Namespace) error {
	fmt.Fprintf(w, "namespace %d %q\n", ns.ID(), ns.Name())
	if retention, ok := ns.RetentionPeriod(); ok {
		fmt.Fprintf(w, "  retention:   %s\n", retention)
	} else {
		fmt.Fprintf(w, "  retention:   infinite\n")
	}
	fmt.Fprintf(w, "  max tables:  %d\n", ns.MaxTables())
	fmt.Fprintf(w, "  max columns: %d\n", ns.MaxColumnsPerTable())
	printTemplate(w, ns.PartitionTemplate)

	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"#", "Table ID", "Name"})
	i := 0
	for table, err := range ns.Tables() {
		if err != nil {
			return err
		}
		tbl.Append([]string{strconv.Itoa(i), strconv.FormatInt(table.ID, 10), table.Name})
		i++
	}
	tbl.Render()

	return nil
}

func printTable(w io.Writer, t catalog.Table) error {
	fmt.Fprintf(w, "table %d %q in namespace %d\n", t.TableID(), t.Name(), t.NamespaceID())
	printTemplate(w, t.PartitionTemplate)

	columns := tablewriter.NewWriter(w)
	columns.SetHeader([]string{"Column ID", "Name", "Type"})
	for col, err := range t.Columns() {
		if err != nil {
			return err
		}
		columns.Append([]string{strconv.FormatInt(col.ID, 10), col.Name, col.Type.String()})
	}
	columns.Render()

	partitions := tablewriter.NewWriter(w)
	partitions.SetHeader([]string{"Partition ID", "Key"})
	for part, err := range t.Partitions() {
		if err != nil {
			return err
		}
		partitions.Append([]string{strconv.FormatInt(part.ID, 10), asciiOrHex(part.Key)})
	}
	partitions.Render()

	return nil
}

func printPartition(w io.Writer, p catalog.Partition) error {
	fmt.Fprintf(w, "partition %d %s of table %d in namespace %d\n",
		p.PartitionID(), asciiOrHex(p.Key()), p.TableID(), p.NamespaceID())
	if hashID, ok := p.HashID(); ok {
		fmt.Fprintf(w, "  hash id:     %x\n", hashID)
	}
	fmt.Fprintf(w, "  columns:     %v\n", p.ColumnIDs())
	fmt.Fprintf(w, "  sort key:    %v\n", p.SortKeyIDs())
	if at, ok := p.NewFileAt(); ok {
		fmt.Fprintf(w, "  new file at: %s\n", time.Unix(0, at).UTC().Format(time.RFC3339Nano))
	}
	if sc, ok := p.SkippedCompaction(); ok {
		fmt.Fprintf(w, "  skipped compaction: %s (%d files, %d bytes)\n", sc.Reason, sc.NumFiles, sc.EstimatedBytes)
	}

	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"File ID", "Object Store ID", "Min Time", "Max Time", "Bytes", "Rows", "Level", "Columns"})
	for f, err := range p.Files() {
		if err != nil {
			return err
		}
		ids, err := p.FileColumnIDs(f)
		if err != nil {
			return err
		}
		tbl.Append([]string{
			strconv.FormatInt(f.ID, 10),
			f.ObjectStoreID.String(),
			strconv.FormatInt(f.MinTime, 10),
			strconv.FormatInt(f.MaxTime, 10),
			strconv.FormatInt(f.FileSizeBytes, 10),
			strconv.FormatInt(f.RowCount, 10),
			strconv.FormatInt(int64(f.CompactionLevel), 10),
			fmt.Sprint(ids),
		})
	}
	tbl.Render()

	return nil
}

func printTemplate(w io.Writer, template func() (catalog.PartitionTemplate, bool)) {
	if t, ok := template(); ok {
		fmt.Fprintf(w, "  template:    %s\n", t)
	}
}

func asciiOrHex(b []byte) string {
	for _, c := range b {
		if c < ' ' || c > '~' {
			return fmt.Sprintf("%x", b)
		}
	}

	return string(b)
}
