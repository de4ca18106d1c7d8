package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/format"
)

func newTestTable(t *testing.T) []byte {
	t.Helper()

	template := DefaultPartitionTemplate()
	enc, err := NewTableEncoder(TableInfo{
		NamespaceID:       1,
		TableID:           10,
		Name:              "cpu",
		PartitionTemplate: &template,
	}, WithHashSeed(testSeed))
	require.NoError(t, err)

	require.NoError(t, enc.AddColumn(1, "time", format.ColumnTypeTime))
	require.NoError(t, enc.AddColumn(2, "host", format.ColumnTypeTag))
	require.NoError(t, enc.AddColumn(3, "usage", format.ColumnTypeF64))

	require.NoError(t, enc.AddPartition(100, []byte("2024-01-01")))
	require.NoError(t, enc.AddPartition(101, []byte("2024-01-02")))

	data, err := enc.Finish()
	require.NoError(t, err)

	return data
}

func TestTable_RoundTrip(t *testing.T) {
	table, err := DecodeTable(newTestTable(t))
	require.NoError(t, err)

	require.Equal(t, int64(1), table.NamespaceID())
	require.Equal(t, int64(10), table.TableID())
	require.Equal(t, "cpu", table.Name())

	template, ok := table.PartitionTemplate()
	require.True(t, ok)
	require.Equal(t, DefaultPartitionTemplate(), template)

	require.Equal(t, 3, table.ColumnCount())
	col, err := table.Column(2)
	require.NoError(t, err)
	require.Equal(t, TableColumn{ID: 3, Name: "usage", Type: format.ColumnTypeF64}, col)

	var names []string
	for c, err := range table.Columns() {
		require.NoError(t, err)
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"time", "host", "usage"}, names)

	require.Equal(t, 2, table.PartitionCount())
	p, err := table.Partition(1)
	require.NoError(t, err)
	require.Equal(t, int64(101), p.ID)
	require.Equal(t, "2024-01-02", string(p.Key))

	var ids []int64
	for p, err := range table.Partitions() {
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	require.Equal(t, []int64{100, 101}, ids)
}

func TestTable_Lookup(t *testing.T) {
	table, err := DecodeTable(newTestTable(t))
	require.NoError(t, err)

	idx, ok, err := table.LookupColumn("host")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, idx)

	col, ok, err := table.ColumnByName("usage")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(3), col.ID)

	_, ok, err = table.LookupColumn("region")
	require.NoError(t, err)
	require.False(t, ok)

	idx, ok, err = table.LookupPartition([]byte("2024-01-01"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, idx)

	_, ok, err = table.LookupPartition([]byte("2023-12-31"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTable_NoTemplate(t *testing.T) {
	enc, err := NewTableEncoder(TableInfo{NamespaceID: 1, TableID: 2, Name: "empty"})
	require.NoError(t, err)
	data, err := enc.Finish()
	require.NoError(t, err)

	table, err := DecodeTable(data)
	require.NoError(t, err)
	_, ok := table.PartitionTemplate()
	require.False(t, ok)
	require.Equal(t, 0, table.ColumnCount())
	require.Equal(t, 0, table.PartitionCount())
}

func TestTable_ManyColumns(t *testing.T) {
	enc, err := NewTableEncoder(TableInfo{TableID: 1, Name: "wide"})
	require.NoError(t, err)
	for i := range 300 {
		require.NoError(t, enc.AddColumn(int64(i), fmt.Sprintf("field_%03d", i), format.ColumnTypeF64))
	}
	data, err := enc.Finish()
	require.NoError(t, err)

	table, err := DecodeTable(data)
	require.NoError(t, err)
	for _, i := range []int{0, 150, 254, 255, 299} {
		idx, ok, err := table.LookupColumn(fmt.Sprintf("field_%03d", i))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, idx)
	}
}

func TestTableEncoder_Errors(t *testing.T) {
	t.Run("invalid column type", func(t *testing.T) {
		enc, err := NewTableEncoder(TableInfo{TableID: 1})
		require.NoError(t, err)
		require.ErrorIs(t, enc.AddColumn(1, "x", format.ColumnType(99)), errs.ErrInvalidColumnType)
	})

	t.Run("duplicate column name", func(t *testing.T) {
		enc, err := NewTableEncoder(TableInfo{TableID: 1})
		require.NoError(t, err)
		require.NoError(t, enc.AddColumn(1, "x", format.ColumnTypeI64))
		require.NoError(t, enc.AddColumn(2, "x", format.ColumnTypeU64))
		_, err = enc.Finish()
		require.ErrorIs(t, err, errs.ErrDuplicateKey)
	})

	t.Run("duplicate partition key", func(t *testing.T) {
		enc, err := NewTableEncoder(TableInfo{TableID: 1})
		require.NoError(t, err)
		require.NoError(t, enc.AddPartition(1, []byte("k")))
		require.NoError(t, enc.AddPartition(2, []byte("k")))
		_, err = enc.Finish()
		require.ErrorIs(t, err, errs.ErrDuplicateKey)
	})

	t.Run("use after finish", func(t *testing.T) {
		enc, err := NewTableEncoder(TableInfo{TableID: 1})
		require.NoError(t, err)
		_, err = enc.Finish()
		require.NoError(t, err)
		require.ErrorIs(t, enc.AddColumn(1, "x", format.ColumnTypeI64), errs.ErrEncoderFinished)
		require.ErrorIs(t, enc.AddPartition(1, nil), errs.ErrEncoderFinished)
	})

	t.Run("partition key copied", func(t *testing.T) {
		enc, err := NewTableEncoder(TableInfo{TableID: 1}, WithHashSeed(testSeed))
		require.NoError(t, err)
		key := []byte("2024-01-01")
		require.NoError(t, enc.AddPartition(1, key))
		key[0] = 'X'

		data, err := enc.Finish()
		require.NoError(t, err)
		table, err := DecodeTable(data)
		require.NoError(t, err)

		_, ok, err := table.LookupPartition([]byte("2024-01-01"))
		require.NoError(t, err)
		require.True(t, ok)
	})
}
