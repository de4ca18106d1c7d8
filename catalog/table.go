package catalog

import (
	"fmt"
	"iter"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/encoding"
	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/format"
	"github.com/arloliu/catsnap/internal/wire"
)

const (
	tablePartitionsField    protowire.Number = 1
	tableColumnsField       protowire.Number = 2
	tableTemplateField      protowire.Number = 3
	tableNamespaceIDField   protowire.Number = 4
	tableIDField            protowire.Number = 5
	tableNameField          protowire.Number = 6
	tableColumnNamesField   protowire.Number = 7
	tablePartitionKeysField protowire.Number = 8

	tableColumnIDField   protowire.Number = 1
	tableColumnNameField protowire.Number = 2
	tableColumnTypeField protowire.Number = 3

	tablePartitionIDField  protowire.Number = 1
	tablePartitionKeyField protowire.Number = 2
)

// TableInfo carries the scalar fields of a table snapshot.
type TableInfo struct {
	NamespaceID int64
	TableID     int64
	Name        string
	// PartitionTemplate is the table's template, nil if the table uses the
	// namespace default.
	PartitionTemplate *PartitionTemplate
}

// TableColumn is a column of a table.
type TableColumn struct {
	ID   int64
	Name string
	Type format.ColumnType
}

func (c TableColumn) appendTo(b []byte) []byte {
	b = wire.AppendInt64(b, tableColumnIDField, c.ID)
	b = wire.AppendString(b, tableColumnNameField, c.Name)

	return wire.AppendInt32(b, tableColumnTypeField, int32(c.Type))
}

func decodeTableColumn(b []byte) (TableColumn, error) {
	var c TableColumn

	d := wire.NewDecoder(b)
	for d.Next() {
		var err error
		switch d.Number() {
		case tableColumnIDField:
			c.ID, err = d.Int64()
		case tableColumnNameField:
			var v []byte
			if v, err = d.Bytes(); err == nil {
				c.Name = string(v)
			}
		case tableColumnTypeField:
			var v int32
			if v, err = d.Int32(); err == nil {
				c.Type = format.ColumnType(v)
			}
		}
		if err != nil {
			return TableColumn{}, fmt.Errorf("table column: %w", err)
		}
	}
	if err := d.Err(); err != nil {
		return TableColumn{}, fmt.Errorf("table column: %w", err)
	}

	if !c.Type.IsValid() {
		return TableColumn{}, fmt.Errorf("%w: column %q has type %d", errs.ErrInvalidColumnType, c.Name, c.Type)
	}

	return c, nil
}

// TablePartition is a partition entry of a table.
type TablePartition struct {
	ID  int64
	Key []byte
}

func (p TablePartition) appendTo(b []byte) []byte {
	b = wire.AppendInt64(b, tablePartitionIDField, p.ID)
	return wire.AppendBytes(b, tablePartitionKeyField, p.Key)
}

func decodeTablePartition(b []byte) (TablePartition, error) {
	var p TablePartition

	d := wire.NewDecoder(b)
	for d.Next() {
		var err error
		switch d.Number() {
		case tablePartitionIDField:
			p.ID, err = d.Int64()
		case tablePartitionKeyField:
			p.Key, err = d.Bytes()
		}
		if err != nil {
			return TablePartition{}, fmt.Errorf("table partition: %w", err)
		}
	}
	if err := d.Err(); err != nil {
		return TablePartition{}, fmt.Errorf("table partition: %w", err)
	}

	return p, nil
}

// TableEncoder builds a table snapshot.
//
// Columns and partitions keep the order they were added in. Column names and
// partition keys must each be unique; duplicates are reported by Finish.
//
// Note: The TableEncoder is NOT thread-safe and NOT reusable after Finish.
type TableEncoder struct {
	config        *EncoderConfig
	info          TableInfo
	columns       *recordList
	columnNames   [][]byte
	partitions    *recordList
	partitionKeys [][]byte
	finished      bool
}

// NewTableEncoder creates an encoder for a table described by info.
func NewTableEncoder(info TableInfo, opts ...EncoderOption) (*TableEncoder, error) {
	config, err := newEncoderConfig(opts...)
	if err != nil {
		return nil, err
	}

	if info.PartitionTemplate != nil {
		if err := info.PartitionTemplate.Validate(); err != nil {
			return nil, err
		}
	}

	return &TableEncoder{
		config:     config,
		info:       info,
		columns:    newRecordList(),
		partitions: newRecordList(),
	}, nil
}

// AddColumn appends a column.
//
// Parameters:
//   - id: Catalog column id
//   - name: Column name, unique within the table
//   - typ: Column type
//
// Returns:
//   - error: ErrInvalidColumnType for unknown types, ErrEncoderFinished after Finish
func (e *TableEncoder) AddColumn(id int64, name string, typ format.ColumnType) error {
	if e.finished {
		return errs.ErrEncoderFinished
	}
	if !typ.IsValid() {
		return fmt.Errorf("%w: column %q has type %d", errs.ErrInvalidColumnType, name, typ)
	}

	c := TableColumn{ID: id, Name: name, Type: typ}
	e.columns.add(c.appendTo)
	e.columnNames = append(e.columnNames, []byte(name))

	return nil
}

// AddPartition appends a partition entry. The key is copied.
func (e *TableEncoder) AddPartition(id int64, key []byte) error {
	if e.finished {
		return errs.ErrEncoderFinished
	}

	p := TablePartition{ID: id, Key: key}
	e.partitions.add(p.appendTo)
	e.partitionKeys = append(e.partitionKeys, append([]byte(nil), key...))

	return nil
}

// Finish builds the column and partition lists with their hash indexes and
// returns the encoded table.
func (e *TableEncoder) Finish() ([]byte, error) {
	if e.finished {
		return nil, errs.ErrEncoderFinished
	}
	e.finished = true
	defer e.partitions.release()

	columns, err := e.columns.build()
	if err != nil {
		return nil, fmt.Errorf("table columns: %w", err)
	}
	columnIndex, err := encoding.BuildHashBuckets(e.columnNames, e.config.seed)
	if err != nil {
		return nil, fmt.Errorf("table column names: %w", err)
	}

	partitions, err := e.partitions.build()
	if err != nil {
		return nil, fmt.Errorf("table partitions: %w", err)
	}
	partitionIndex, err := encoding.BuildHashBuckets(e.partitionKeys, e.config.seed)
	if err != nil {
		return nil, fmt.Errorf("table partition keys: %w", err)
	}

	return finishSnapshot(func(b []byte) []byte {
		b = wire.AppendMessage(b, tablePartitionsField, partitions.Bytes())
		b = wire.AppendMessage(b, tableColumnsField, columns.Bytes())
		if e.info.PartitionTemplate != nil {
			b = wire.AppendMessage(b, tableTemplateField, e.info.PartitionTemplate.appendTo(nil))
		}
		b = wire.AppendInt64(b, tableNamespaceIDField, e.info.NamespaceID)
		b = wire.AppendInt64(b, tableIDField, e.info.TableID)
		b = wire.AppendString(b, tableNameField, e.info.Name)
		b = wire.AppendMessage(b, tableColumnNamesField, columnIndex.Bytes())

		return wire.AppendMessage(b, tablePartitionKeysField, partitionIndex.Bytes())
	}), nil
}

// Table is a decoded table snapshot. It aliases the buffer it was decoded
// from and is safe for concurrent use.
type Table struct {
	columns        encoding.MessageList
	columnIndex    encoding.HashBuckets
	partitions     encoding.MessageList
	partitionIndex encoding.HashBuckets

	namespaceID int64
	tableID     int64
	name        string
	template    PartitionTemplate
	hasTemplate bool
}

// DecodeTable decodes a table snapshot. Lists and indexes are validated up
// front; columns and partitions are decoded when accessed.
func DecodeTable(b []byte) (Table, error) {
	var (
		t                                   Table
		columnsBytes, columnNamesBytes      []byte
		partitionsBytes, partitionKeysBytes []byte
	)

	d := wire.NewDecoder(b)
	for d.Next() {
		var err error
		switch d.Number() {
		case tablePartitionsField:
			partitionsBytes, err = d.Bytes()
		case tableColumnsField:
			columnsBytes, err = d.Bytes()
		case tableTemplateField:
			var v []byte
			if v, err = d.Bytes(); err == nil {
				t.template, err = decodePartitionTemplate(v)
				t.hasTemplate = err == nil
			}
		case tableNamespaceIDField:
			t.namespaceID, err = d.Int64()
		case tableIDField:
			t.tableID, err = d.Int64()
		case tableNameField:
			var v []byte
			if v, err = d.Bytes(); err == nil {
				t.name = string(v)
			}
		case tableColumnNamesField:
			columnNamesBytes, err = d.Bytes()
		case tablePartitionKeysField:
			partitionKeysBytes, err = d.Bytes()
		}
		if err != nil {
			return Table{}, fmt.Errorf("table: %w", err)
		}
	}
	if err := d.Err(); err != nil {
		return Table{}, fmt.Errorf("table: %w", err)
	}

	var err error
	t.columns, t.columnIndex, err = decodeIndexedList(columnsBytes, columnNamesBytes, "table columns")
	if err != nil {
		return Table{}, err
	}
	t.partitions, t.partitionIndex, err = decodeIndexedList(partitionsBytes, partitionKeysBytes, "table partitions")
	if err != nil {
		return Table{}, err
	}

	return t, nil
}

// NamespaceID returns the id of the owning namespace.
func (t Table) NamespaceID() int64 { return t.namespaceID }

// TableID returns the table id.
func (t Table) TableID() int64 { return t.tableID }

// Name returns the table name.
func (t Table) Name() string { return t.name }

// PartitionTemplate returns the table's partition template, if set.
func (t Table) PartitionTemplate() (PartitionTemplate, bool) {
	return t.template, t.hasTemplate
}

// ColumnCount returns the number of columns.
func (t Table) ColumnCount() int {
	return t.columns.Len()
}

// Column returns column i.
func (t Table) Column(i int) (TableColumn, error) {
	rec, err := t.columns.Get(i)
	if err != nil {
		return TableColumn{}, err
	}

	return decodeTableColumn(rec)
}

// Columns iterates over the columns in insertion order.
func (t Table) Columns() iter.Seq2[TableColumn, error] {
	return func(yield func(TableColumn, error) bool) {
		for _, rec := range t.columns.All() {
			c, err := decodeTableColumn(rec)
			if !yield(c, err) || err != nil {
				return
			}
		}
	}
}

// LookupColumn returns the position of the column called name.
func (t Table) LookupColumn(name string) (int, bool, error) {
	return t.columnIndex.Lookup([]byte(name), listKeyAt(t.columns, tableColumnNameField))
}

// ColumnByName returns the column called name.
func (t Table) ColumnByName(name string) (TableColumn, bool, error) {
	i, ok, err := t.LookupColumn(name)
	if err != nil || !ok {
		return TableColumn{}, false, err
	}

	c, err := t.Column(i)
	if err != nil {
		return TableColumn{}, false, err
	}

	return c, true, nil
}

// PartitionCount returns the number of partitions.
func (t Table) PartitionCount() int {
	return t.partitions.Len()
}

// Partition returns partition entry i. The key aliases the snapshot buffer.
func (t Table) Partition(i int) (TablePartition, error) {
	rec, err := t.partitions.Get(i)
	if err != nil {
		return TablePartition{}, err
	}

	return decodeTablePartition(rec)
}

// Partitions iterates over the partition entries in insertion order.
func (t Table) Partitions() iter.Seq2[TablePartition, error] {
	return func(yield func(TablePartition, error) bool) {
		for _, rec := range t.partitions.All() {
			p, err := decodeTablePartition(rec)
			if !yield(p, err) || err != nil {
				return
			}
		}
	}
}

// LookupPartition returns the position of the partition with the given key.
func (t Table) LookupPartition(key []byte) (int, bool, error) {
	return t.partitionIndex.Lookup(key, listKeyAt(t.partitions, tablePartitionKeyField))
}
