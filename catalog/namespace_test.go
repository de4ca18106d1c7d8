package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/catsnap/encoding"
	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/internal/wire"
)

var testSeed = encoding.HashSeed{Key0: 1, Key1: 2}

func encodeNamespace(t *testing.T, info NamespaceInfo, names ...string) []byte {
	t.Helper()

	enc, err := NewNamespaceEncoder(info, WithHashSeed(testSeed))
	require.NoError(t, err)
	for i, name := range names {
		require.NoError(t, enc.AddTable(int64(100+i), name))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	return data
}

func TestNamespace_LookupScenario(t *testing.T) {
	data := encodeNamespace(t, NamespaceInfo{ID: 1, Name: "db"}, "metrics", "events", "logs")

	ns, err := DecodeNamespace(data)
	require.NoError(t, err)
	require.Equal(t, 3, ns.TableCount())

	idx, ok, err := ns.LookupTable("events")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, idx)

	table, err := ns.Table(idx)
	require.NoError(t, err)
	require.Equal(t, NamespaceTable{ID: 101, Name: "events"}, table)

	_, ok, err = ns.LookupTable("missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNamespace_RoundTrip(t *testing.T) {
	retention := 7 * 24 * time.Hour
	template, err := NewPartitionTemplate(TagValue("region"), TimeFormat("%Y-%m"))
	require.NoError(t, err)

	info := NamespaceInfo{
		ID:                 42,
		Name:               "telemetry",
		RetentionPeriod:    &retention,
		MaxTables:          500,
		MaxColumnsPerTable: 200,
		PartitionTemplate:  &template,
	}
	data := encodeNamespace(t, info, "cpu", "mem", "disk")

	ns, err := DecodeNamespace(data)
	require.NoError(t, err)
	require.Equal(t, int64(42), ns.ID())
	require.Equal(t, "telemetry", ns.Name())
	require.Equal(t, int32(500), ns.MaxTables())
	require.Equal(t, int32(200), ns.MaxColumnsPerTable())

	got, ok := ns.RetentionPeriod()
	require.True(t, ok)
	require.Equal(t, retention, got)

	gotTemplate, ok := ns.PartitionTemplate()
	require.True(t, ok)
	require.Equal(t, template, gotTemplate)

	var names []string
	for table, err := range ns.Tables() {
		require.NoError(t, err)
		names = append(names, table.Name)
	}
	require.Equal(t, []string{"cpu", "mem", "disk"}, names)

	table, ok, err := ns.TableByName("disk")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(102), table.ID)
}

func TestNamespace_OptionalFieldsAbsent(t *testing.T) {
	ns, err := DecodeNamespace(encodeNamespace(t, NamespaceInfo{ID: 1}))
	require.NoError(t, err)

	_, ok := ns.RetentionPeriod()
	require.False(t, ok)
	_, ok = ns.PartitionTemplate()
	require.False(t, ok)
	require.Equal(t, 0, ns.TableCount())

	_, ok, err = ns.LookupTable("anything")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNamespace_ZeroRetentionIsPresent(t *testing.T) {
	zero := time.Duration(0)
	ns, err := DecodeNamespace(encodeNamespace(t, NamespaceInfo{ID: 1, RetentionPeriod: &zero}))
	require.NoError(t, err)

	got, ok := ns.RetentionPeriod()
	require.True(t, ok)
	require.Zero(t, got)
}

func TestNamespace_RandomSeeds(t *testing.T) {
	names := make([]string, 50)
	for i := range names {
		names[i] = fmt.Sprintf("table_%02d", i)
	}

	for range 10 {
		enc, err := NewNamespaceEncoder(NamespaceInfo{ID: 1})
		require.NoError(t, err)
		for i, name := range names {
			require.NoError(t, enc.AddTable(int64(i), name))
		}
		data, err := enc.Finish()
		require.NoError(t, err)

		ns, err := DecodeNamespace(data)
		require.NoError(t, err)
		for i, name := range names {
			idx, ok, err := ns.LookupTable(name)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, i, idx)
		}
	}
}

func TestNamespaceEncoder_Errors(t *testing.T) {
	t.Run("duplicate table name", func(t *testing.T) {
		enc, err := NewNamespaceEncoder(NamespaceInfo{ID: 1}, WithHashSeed(testSeed))
		require.NoError(t, err)
		require.NoError(t, enc.AddTable(1, "a"))
		require.NoError(t, enc.AddTable(2, "a"))

		_, err = enc.Finish()
		require.ErrorIs(t, err, errs.ErrDuplicateKey)
	})

	t.Run("use after finish", func(t *testing.T) {
		enc, err := NewNamespaceEncoder(NamespaceInfo{ID: 1})
		require.NoError(t, err)
		_, err = enc.Finish()
		require.NoError(t, err)

		require.ErrorIs(t, enc.AddTable(1, "a"), errs.ErrEncoderFinished)
		_, err = enc.Finish()
		require.ErrorIs(t, err, errs.ErrEncoderFinished)
	})

	t.Run("invalid template", func(t *testing.T) {
		template := PartitionTemplate{}
		_, err := NewNamespaceEncoder(NamespaceInfo{ID: 1, PartitionTemplate: &template})
		require.ErrorIs(t, err, errs.ErrInvalidPartitionTemplate)
	})
}

func TestDecodeNamespace_Errors(t *testing.T) {
	valid := encodeNamespace(t, NamespaceInfo{ID: 1}, "metrics", "events")

	t.Run("truncated", func(t *testing.T) {
		_, err := DecodeNamespace(valid[:len(valid)-1])
		require.Error(t, err)
	})

	t.Run("missing name index", func(t *testing.T) {
		list, err := encoding.BuildMessageList([][]byte{
			NamespaceTable{ID: 1, Name: "metrics"}.appendTo(nil),
		})
		require.NoError(t, err)
		data := wire.AppendMessage(nil, namespaceTablesField, list.Bytes())

		_, err = DecodeNamespace(data)
		require.ErrorIs(t, err, errs.ErrUnknownHashFunction)
	})

	t.Run("index built for fewer tables", func(t *testing.T) {
		list, err := encoding.BuildMessageList([][]byte{
			NamespaceTable{ID: 1, Name: "metrics"}.appendTo(nil),
			NamespaceTable{ID: 2, Name: "events"}.appendTo(nil),
		})
		require.NoError(t, err)
		index, err := encoding.BuildHashBuckets([][]byte{[]byte("metrics")}, testSeed)
		require.NoError(t, err)

		data := wire.AppendMessage(nil, namespaceTablesField, list.Bytes())
		data = wire.AppendMessage(data, namespaceTableNamesField, index.Bytes())

		_, err = DecodeNamespace(data)
		require.ErrorIs(t, err, errs.ErrMalformedHashBuckets)
	})

	t.Run("table index out of bounds", func(t *testing.T) {
		ns, err := DecodeNamespace(valid)
		require.NoError(t, err)
		_, err = ns.Table(2)
		require.ErrorIs(t, err, errs.ErrIndexOutOfBounds)
	})
}

func TestDecodeNamespace_SkipsUnknownFields(t *testing.T) {
	data := encodeNamespace(t, NamespaceInfo{ID: 7, Name: "db"}, "metrics")
	data = wire.AppendString(data, 99, "from a newer writer")

	ns, err := DecodeNamespace(data)
	require.NoError(t, err)
	require.Equal(t, int64(7), ns.ID())
	require.Equal(t, 1, ns.TableCount())
}

func BenchmarkNamespace_LookupTable(b *testing.B) {
	enc, err := NewNamespaceEncoder(NamespaceInfo{ID: 1}, WithHashSeed(testSeed))
	require.NoError(b, err)
	names := make([]string, 1000)
	for i := range names {
		names[i] = fmt.Sprintf("table_%04d", i)
		require.NoError(b, enc.AddTable(int64(i), names[i]))
	}
	data, err := enc.Finish()
	require.NoError(b, err)
	ns, err := DecodeNamespace(data)
	require.NoError(b, err)

	b.ReportAllocs()
	i := 0
	for b.Loop() {
		_, _, _ = ns.LookupTable(names[i%1000])
		i++
	}
}
