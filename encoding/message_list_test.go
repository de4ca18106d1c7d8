package encoding

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/internal/wire"
)

func toBytes(ss ...string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}

	return out
}

func TestMessageList_RoundTrip(t *testing.T) {
	l, err := BuildMessageList(toBytes("metrics", "events", "", "logs"))
	require.NoError(t, err)
	require.Equal(t, 4, l.Len())
	require.Equal(t, 17, l.Size())

	decoded, err := DecodeMessageList(l.Bytes())
	require.NoError(t, err)
	require.Equal(t, 4, decoded.Len())

	for i, want := range []string{"metrics", "events", "", "logs"} {
		got, err := decoded.Get(i)
		require.NoError(t, err)
		require.Equal(t, want, string(got), "element %d", i)
	}
}

func TestMessageList_Offsets(t *testing.T) {
	l, err := BuildMessageList(toBytes("metrics", "events", "logs"))
	require.NoError(t, err)
	require.Equal(t, []int32{0, 7, 13, 17}, l.offsets)
	require.Equal(t, "metricseventslogs", string(l.values))
}

func TestMessageList_Empty(t *testing.T) {
	l, err := BuildMessageList(nil)
	require.NoError(t, err)
	require.Equal(t, 0, l.Len())

	t.Run("encoded as single zero offset", func(t *testing.T) {
		b := l.Bytes()
		want := wire.AppendPackedInt32s(nil, messageListOffsetsField, []int32{0})
		require.Equal(t, want, b)

		decoded, err := DecodeMessageList(b)
		require.NoError(t, err)
		require.Equal(t, 0, decoded.Len())
	})

	t.Run("no offsets and no values", func(t *testing.T) {
		decoded, err := DecodeMessageList(nil)
		require.NoError(t, err)
		require.Equal(t, 0, decoded.Len())

		_, err = decoded.Get(0)
		require.ErrorIs(t, err, errs.ErrIndexOutOfBounds)
	})
}

func TestMessageList_Get_OutOfBounds(t *testing.T) {
	l, err := BuildMessageList(toBytes("a", "b"))
	require.NoError(t, err)

	for _, i := range []int{-1, 2, 100} {
		_, err := l.Get(i)
		require.ErrorIs(t, err, errs.ErrIndexOutOfBounds, "index %d", i)
	}
}

func TestMessageList_All(t *testing.T) {
	elements := toBytes("x", "yy", "zzz")
	l, err := BuildMessageList(elements)
	require.NoError(t, err)

	// Ranging twice yields the same sequence.
	for range 2 {
		var got []string
		for i, v := range l.All() {
			require.Equal(t, len(got), i)
			got = append(got, string(v))
		}
		require.Equal(t, []string{"x", "yy", "zzz"}, got)
	}

	t.Run("early break", func(t *testing.T) {
		count := 0
		for range l.All() {
			count++
			break
		}
		require.Equal(t, 1, count)
	})
}

func TestMessageList_AliasesInput(t *testing.T) {
	l, err := BuildMessageList(toBytes("abc"))
	require.NoError(t, err)

	b := l.Bytes()
	decoded, err := DecodeMessageList(b)
	require.NoError(t, err)

	v, err := decoded.Get(0)
	require.NoError(t, err)
	require.Equal(t, "abc", string(v))

	// The element points into b.
	b[len(b)-1] = 'X'
	require.Equal(t, "abX", string(v))
}

func TestDecodeMessageList_MalformedOffsets(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int32
		values  string
	}{
		{name: "decreasing", offsets: []int32{0, 5, 3, 10}, values: "0123456789"},
		{name: "nonzero first", offsets: []int32{1, 5}, values: "01234"},
		{name: "last short of values", offsets: []int32{0, 3}, values: "01234"},
		{name: "last past values", offsets: []int32{0, 8}, values: "01234"},
		{name: "values without offsets", offsets: nil, values: "01234"},
		{name: "negative", offsets: []int32{0, -1, 5}, values: "01234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b []byte
			b = wire.AppendPackedInt32s(b, messageListOffsetsField, tt.offsets)
			b = wire.AppendBytes(b, messageListValuesField, []byte(tt.values))

			_, err := DecodeMessageList(b)
			require.ErrorIs(t, err, errs.ErrMalformedOffsets)
		})
	}
}

func TestDecodeMessageList_OffsetOutsideInt32(t *testing.T) {
	tests := []struct {
		name    string
		offsets []uint64
	}{
		// 1<<32 + 3 narrows to 3, which would match the values length
		{name: "wraps to valid", offsets: []uint64{0, 1<<32 + 3}},
		{name: "past int32", offsets: []uint64{0, 1 << 31}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var packed []byte
			for _, v := range tt.offsets {
				packed = protowire.AppendVarint(packed, v)
			}
			b := protowire.AppendTag(nil, messageListOffsetsField, protowire.BytesType)
			b = protowire.AppendBytes(b, packed)
			b = wire.AppendBytes(b, messageListValuesField, []byte("abc"))

			_, err := DecodeMessageList(b)
			require.ErrorIs(t, err, errs.ErrMalformedMessage)
		})
	}
}

func TestBuildMessageList_OffsetOverflow(t *testing.T) {
	// every element shares one backing array; the size check fails before
	// anything is copied
	one := make([]byte, 1<<20)
	elements := make([][]byte, 2049)
	for i := range elements {
		elements[i] = one
	}

	l, err := BuildMessageList(elements)
	require.ErrorIs(t, err, errs.ErrOffsetOverflow)
	require.Zero(t, l.Len())
}

func TestDecodeMessageList_Truncated(t *testing.T) {
	l, err := BuildMessageList(toBytes("metrics", "events"))
	require.NoError(t, err)
	b := l.Bytes()

	_, err = DecodeMessageList(b[:len(b)-3])
	require.ErrorIs(t, err, errs.ErrTruncatedBuffer)
}

func TestDecodeMessageList_WrongWireType(t *testing.T) {
	b := protowire.AppendTag(nil, messageListValuesField, protowire.VarintType)
	b = protowire.AppendVarint(b, 3)

	_, err := DecodeMessageList(b)
	require.ErrorIs(t, err, errs.ErrMalformedMessage)
}

func BenchmarkMessageList_Get(b *testing.B) {
	elements := make([][]byte, 1000)
	for i := range elements {
		elements[i] = fmt.Appendf(nil, "table_%04d", i)
	}
	l, err := BuildMessageList(elements)
	require.NoError(b, err)

	b.ReportAllocs()
	i := 0
	for b.Loop() {
		_, _ = l.Get(i % 1000)
		i++
	}
}

func BenchmarkDecodeMessageList(b *testing.B) {
	elements := make([][]byte, 1000)
	for i := range elements {
		elements[i] = fmt.Appendf(nil, "table_%04d", i)
	}
	l, err := BuildMessageList(elements)
	require.NoError(b, err)
	data := l.Bytes()

	b.ReportAllocs()
	for b.Loop() {
		_, _ = DecodeMessageList(data)
	}
}
