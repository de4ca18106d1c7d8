package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/errs"
)

func TestDecoder_RoundTrip(t *testing.T) {
	var b []byte
	b = AppendInt64(b, 1, -42)
	b = AppendString(b, 2, "events")
	b = AppendFixed64(b, 3, 0x1122334455667788)
	b = AppendBool(b, 4, true)
	b = AppendInt32(b, 5, -7)
	b = AppendPackedInt64s(b, 6, []int64{10, 11, 1 << 40})
	b = AppendPackedInt32s(b, 7, []int32{0, 5, -1})
	b = AppendMessage(b, 8, nil)

	d := NewDecoder(b)
	seen := map[protowire.Number]bool{}
	for d.Next() {
		seen[d.Number()] = true
		switch d.Number() {
		case 1:
			v, err := d.Int64()
			require.NoError(t, err)
			require.Equal(t, int64(-42), v)
		case 2:
			v, err := d.Bytes()
			require.NoError(t, err)
			require.Equal(t, "events", string(v))
		case 3:
			v, err := d.Fixed64()
			require.NoError(t, err)
			require.Equal(t, uint64(0x1122334455667788), v)
		case 4:
			v, err := d.Bool()
			require.NoError(t, err)
			require.True(t, v)
		case 5:
			v, err := d.Int32()
			require.NoError(t, err)
			require.Equal(t, int32(-7), v)
		case 6:
			v, err := d.Int64s(nil)
			require.NoError(t, err)
			require.Equal(t, []int64{10, 11, 1 << 40}, v)
		case 7:
			v, err := d.Int32s(nil)
			require.NoError(t, err)
			require.Equal(t, []int32{0, 5, -1}, v)
		case 8:
			v, err := d.Bytes()
			require.NoError(t, err)
			require.Empty(t, v)
		}
	}
	require.NoError(t, d.Err())
	require.Len(t, seen, 8)
}

func TestDecoder_ZeroValuesOmitted(t *testing.T) {
	var b []byte
	b = AppendInt64(b, 1, 0)
	b = AppendString(b, 2, "")
	b = AppendFixed64(b, 3, 0)
	b = AppendBool(b, 4, false)
	b = AppendBytes(b, 5, nil)
	b = AppendPackedInt64s(b, 6, nil)
	require.Empty(t, b)

	b = AppendOptionalInt64(b, 1, 0)
	require.NotEmpty(t, b)

	d := NewDecoder(b)
	require.True(t, d.Next())
	v, err := d.Int64()
	require.NoError(t, err)
	require.Zero(t, v)
	require.False(t, d.Next())
}

func TestDecoder_UnpackedRepeated(t *testing.T) {
	var b []byte
	b = AppendOptionalInt64(b, 1, 3)
	b = AppendOptionalInt64(b, 1, 4)

	var got []int64
	d := NewDecoder(b)
	for d.Next() {
		var err error
		got, err = d.Int64s(got)
		require.NoError(t, err)
	}
	require.NoError(t, d.Err())
	require.Equal(t, []int64{3, 4}, got)
}

func TestDecoder_SkipsUnknownFields(t *testing.T) {
	var b []byte
	b = AppendString(b, 99, "future")
	b = protowire.AppendTag(b, 98, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 7)
	b = AppendInt64(b, 1, 5)

	d := NewDecoder(b)
	var id int64
	for d.Next() {
		if d.Number() == 1 {
			var err error
			id, err = d.Int64()
			require.NoError(t, err)
		}
	}
	require.NoError(t, d.Err())
	require.Equal(t, int64(5), id)
}

func TestDecoder_Errors(t *testing.T) {
	t.Run("truncated varint", func(t *testing.T) {
		d := NewDecoder([]byte{0x08})
		require.False(t, d.Next())
		require.ErrorIs(t, d.Err(), errs.ErrTruncatedBuffer)
	})

	t.Run("declared length exceeds buffer", func(t *testing.T) {
		b := protowire.AppendTag(nil, 2, protowire.BytesType)
		b = protowire.AppendVarint(b, 10)
		b = append(b, "abc"...)
		d := NewDecoder(b)
		require.False(t, d.Next())
		require.ErrorIs(t, d.Err(), errs.ErrTruncatedBuffer)
	})

	t.Run("invalid field number", func(t *testing.T) {
		d := NewDecoder([]byte{0x00, 0x01})
		require.False(t, d.Next())
		require.ErrorIs(t, d.Err(), errs.ErrMalformedMessage)
	})

	t.Run("wrong wire type", func(t *testing.T) {
		b := AppendString(nil, 1, "x")
		d := NewDecoder(b)
		require.True(t, d.Next())
		_, err := d.Int64()
		require.ErrorIs(t, err, errs.ErrMalformedMessage)
		_, err = d.Fixed64()
		require.ErrorIs(t, err, errs.ErrMalformedMessage)
	})

	t.Run("truncated packed varint", func(t *testing.T) {
		b := protowire.AppendTag(nil, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, []byte{0x80})
		d := NewDecoder(b)
		require.True(t, d.Next())
		_, err := d.Int64s(nil)
		require.ErrorIs(t, err, errs.ErrTruncatedBuffer)
	})
	t.Run("varint outside 32 bits", func(t *testing.T) {
		below := int64(math.MinInt32) - 1
		tests := []struct {
			name string
			v    uint64
		}{
			{name: "wraps", v: 1<<32 + 3},
			{name: "above int32", v: 1 << 31},
			{name: "below int32", v: uint64(below)},
		}
		for _, tt := range tests {
			b := protowire.AppendTag(nil, 1, protowire.VarintType)
			b = protowire.AppendVarint(b, tt.v)
			d := NewDecoder(b)
			require.True(t, d.Next(), tt.name)
			_, err := d.Int32()
			require.ErrorIs(t, err, errs.ErrMalformedMessage, tt.name)
			_, err = d.Int32s(nil)
			require.ErrorIs(t, err, errs.ErrMalformedMessage, tt.name)
		}

		b := protowire.AppendTag(nil, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, 1<<32)
		d := NewDecoder(b)
		require.True(t, d.Next())
		_, err := d.Uint32()
		require.ErrorIs(t, err, errs.ErrMalformedMessage)
	})

	t.Run("packed int32 outside range", func(t *testing.T) {
		packed := protowire.AppendVarint(nil, 0)
		packed = protowire.AppendVarint(packed, 1<<32+3)
		b := protowire.AppendTag(nil, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
		d := NewDecoder(b)
		require.True(t, d.Next())
		_, err := d.Int32s(nil)
		require.ErrorIs(t, err, errs.ErrMalformedMessage)
	})

	t.Run("negative int32 accepted", func(t *testing.T) {
		b := AppendInt32(nil, 1, -7)
		d := NewDecoder(b)
		require.True(t, d.Next())
		v, err := d.Int32()
		require.NoError(t, err)
		require.Equal(t, int32(-7), v)
	})
}
