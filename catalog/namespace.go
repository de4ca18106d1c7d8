package catalog

import (
	"fmt"
	"iter"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/encoding"
	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/internal/wire"
)

const (
	namespaceTablesField             protowire.Number = 1
	namespaceTableNamesField         protowire.Number = 2
	namespaceIDField                 protowire.Number = 3
	namespaceNameField               protowire.Number = 4
	namespaceRetentionField          protowire.Number = 5
	namespaceMaxTablesField          protowire.Number = 6
	namespaceMaxColumnsPerTableField protowire.Number = 7
	namespaceTemplateField           protowire.Number = 8

	namespaceTableIDField   protowire.Number = 1
	namespaceTableNameField protowire.Number = 2
)

// NamespaceInfo carries the scalar fields of a namespace snapshot.
type NamespaceInfo struct {
	ID   int64
	Name string
	// RetentionPeriod is nil for infinite retention.
	RetentionPeriod    *time.Duration
	MaxTables          int32
	MaxColumnsPerTable int32
	// PartitionTemplate is the default template for new tables, nil if unset.
	PartitionTemplate *PartitionTemplate
}

// NamespaceTable is a table entry of a namespace.
type NamespaceTable struct {
	ID   int64
	Name string
}

func (t NamespaceTable) appendTo(b []byte) []byte {
	b = wire.AppendInt64(b, namespaceTableIDField, t.ID)
	return wire.AppendString(b, namespaceTableNameField, t.Name)
}

func decodeNamespaceTable(b []byte) (NamespaceTable, error) {
	var t NamespaceTable

	d := wire.NewDecoder(b)
	for d.Next() {
		var err error
		switch d.Number() {
		case namespaceTableIDField:
			t.ID, err = d.Int64()
		case namespaceTableNameField:
			var v []byte
			if v, err = d.Bytes(); err == nil {
				t.Name = string(v)
			}
		}
		if err != nil {
			return NamespaceTable{}, fmt.Errorf("namespace table: %w", err)
		}
	}
	if err := d.Err(); err != nil {
		return NamespaceTable{}, fmt.Errorf("namespace table: %w", err)
	}

	return t, nil
}

// NamespaceEncoder builds a namespace snapshot.
//
// Tables keep the order they were added in. The encoder is not safe for
// concurrent use and cannot be reused after Finish.
type NamespaceEncoder struct {
	config   *EncoderConfig
	info     NamespaceInfo
	tables   *recordList
	names    [][]byte
	finished bool
}

// NewNamespaceEncoder creates an encoder for a namespace described by info.
//
// A non-nil info.PartitionTemplate is validated here.
func NewNamespaceEncoder(info NamespaceInfo, opts ...EncoderOption) (*NamespaceEncoder, error) {
	config, err := newEncoderConfig(opts...)
	if err != nil {
		return nil, err
	}

	if info.PartitionTemplate != nil {
		if err := info.PartitionTemplate.Validate(); err != nil {
			return nil, err
		}
	}

	return &NamespaceEncoder{
		config: config,
		info:   info,
		tables: newRecordList(),
	}, nil
}

// AddTable appends a table entry. Names must be unique within the namespace;
// duplicates are reported by Finish.
func (e *NamespaceEncoder) AddTable(id int64, name string) error {
	if e.finished {
		return errs.ErrEncoderFinished
	}

	t := NamespaceTable{ID: id, Name: name}
	e.tables.add(t.appendTo)
	e.names = append(e.names, []byte(name))

	return nil
}

// Finish builds the table list and name index and returns the encoded
// namespace.
func (e *NamespaceEncoder) Finish() ([]byte, error) {
	if e.finished {
		return nil, errs.ErrEncoderFinished
	}
	e.finished = true

	tables, err := e.tables.build()
	if err != nil {
		return nil, fmt.Errorf("namespace tables: %w", err)
	}

	index, err := encoding.BuildHashBuckets(e.names, e.config.seed)
	if err != nil {
		return nil, fmt.Errorf("namespace table names: %w", err)
	}

	return finishSnapshot(func(b []byte) []byte {
		b = wire.AppendMessage(b, namespaceTablesField, tables.Bytes())
		b = wire.AppendMessage(b, namespaceTableNamesField, index.Bytes())
		b = wire.AppendInt64(b, namespaceIDField, e.info.ID)
		b = wire.AppendString(b, namespaceNameField, e.info.Name)
		if e.info.RetentionPeriod != nil {
			b = wire.AppendOptionalInt64(b, namespaceRetentionField, e.info.RetentionPeriod.Nanoseconds())
		}
		b = wire.AppendInt32(b, namespaceMaxTablesField, e.info.MaxTables)
		b = wire.AppendInt32(b, namespaceMaxColumnsPerTableField, e.info.MaxColumnsPerTable)
		if e.info.PartitionTemplate != nil {
			b = wire.AppendMessage(b, namespaceTemplateField, e.info.PartitionTemplate.appendTo(nil))
		}

		return b
	}), nil
}

// Namespace is a decoded namespace snapshot. It aliases the buffer it was
// decoded from and is safe for concurrent use.
type Namespace struct {
	tables encoding.MessageList
	names  encoding.HashBuckets

	id                 int64
	name               string
	retention          time.Duration
	hasRetention       bool
	maxTables          int32
	maxColumnsPerTable int32
	template           PartitionTemplate
	hasTemplate        bool
}

// DecodeNamespace decodes a namespace snapshot.
//
// The table list and name index are validated up front. Individual table
// entries are decoded when accessed.
func DecodeNamespace(b []byte) (Namespace, error) {
	var (
		ns                      Namespace
		tablesBytes, namesBytes []byte
	)

	d := wire.NewDecoder(b)
	for d.Next() {
		var err error
		switch d.Number() {
		case namespaceTablesField:
			tablesBytes, err = d.Bytes()
		case namespaceTableNamesField:
			namesBytes, err = d.Bytes()
		case namespaceIDField:
			ns.id, err = d.Int64()
		case namespaceNameField:
			var v []byte
			if v, err = d.Bytes(); err == nil {
				ns.name = string(v)
			}
		case namespaceRetentionField:
			var v int64
			if v, err = d.Int64(); err == nil {
				ns.retention = time.Duration(v)
				ns.hasRetention = true
			}
		case namespaceMaxTablesField:
			ns.maxTables, err = d.Int32()
		case namespaceMaxColumnsPerTableField:
			ns.maxColumnsPerTable, err = d.Int32()
		case namespaceTemplateField:
			var v []byte
			if v, err = d.Bytes(); err == nil {
				ns.template, err = decodePartitionTemplate(v)
				ns.hasTemplate = err == nil
			}
		}
		if err != nil {
			return Namespace{}, fmt.Errorf("namespace: %w", err)
		}
	}
	if err := d.Err(); err != nil {
		return Namespace{}, fmt.Errorf("namespace: %w", err)
	}

	var err error
	ns.tables, ns.names, err = decodeIndexedList(tablesBytes, namesBytes, "namespace tables")
	if err != nil {
		return Namespace{}, err
	}

	return ns, nil
}

// ID returns the namespace id.
func (n Namespace) ID() int64 { return n.id }

// Name returns the namespace name.
func (n Namespace) Name() string { return n.name }

// RetentionPeriod returns the retention period, or false for infinite retention.
func (n Namespace) RetentionPeriod() (time.Duration, bool) {
	return n.retention, n.hasRetention
}

// MaxTables returns the table limit of the namespace.
func (n Namespace) MaxTables() int32 { return n.maxTables }

// MaxColumnsPerTable returns the per-table column limit of the namespace.
func (n Namespace) MaxColumnsPerTable() int32 { return n.maxColumnsPerTable }

// PartitionTemplate returns the namespace's default partition template, if set.
func (n Namespace) PartitionTemplate() (PartitionTemplate, bool) {
	return n.template, n.hasTemplate
}

// TableCount returns the number of tables.
func (n Namespace) TableCount() int {
	return n.tables.Len()
}

// Table returns table i.
func (n Namespace) Table(i int) (NamespaceTable, error) {
	rec, err := n.tables.Get(i)
	if err != nil {
		return NamespaceTable{}, err
	}

	return decodeNamespaceTable(rec)
}

// Tables iterates over the tables in insertion order. Iteration stops after
// the first decode error.
func (n Namespace) Tables() iter.Seq2[NamespaceTable, error] {
	return func(yield func(NamespaceTable, error) bool) {
		for _, rec := range n.tables.All() {
			t, err := decodeNamespaceTable(rec)
			if !yield(t, err) || err != nil {
				return
			}
		}
	}
}

// LookupTable returns the position of the table called name.
func (n Namespace) LookupTable(name string) (int, bool, error) {
	return n.names.Lookup([]byte(name), listKeyAt(n.tables, namespaceTableNameField))
}

// TableByName returns the table called name.
func (n Namespace) TableByName(name string) (NamespaceTable, bool, error) {
	i, ok, err := n.LookupTable(name)
	if err != nil || !ok {
		return NamespaceTable{}, false, err
	}

	t, err := n.Table(i)
	if err != nil {
		return NamespaceTable{}, false, err
	}

	return t, true, nil
}
