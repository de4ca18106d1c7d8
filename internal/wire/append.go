package wire

import "google.golang.org/protobuf/encoding/protowire"

// AppendUint64 appends a varint field, omitting zero.
func AppendUint64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}

	return AppendOptionalUint64(b, num, v)
}

// AppendOptionalUint64 appends a varint field even when v is zero, so
// readers can tell presence from absence.
func AppendOptionalUint64(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// AppendInt64 appends a signed varint field, omitting zero.
func AppendInt64(b []byte, num protowire.Number, v int64) []byte {
	return AppendUint64(b, num, uint64(v)) //nolint:gosec
}

// AppendOptionalInt64 appends a signed varint field regardless of its value.
func AppendOptionalInt64(b []byte, num protowire.Number, v int64) []byte {
	return AppendOptionalUint64(b, num, uint64(v)) //nolint:gosec
}

// AppendInt32 appends an int32 field, omitting zero. Negative values are sign
// extended to 64 bits as protobuf requires.
func AppendInt32(b []byte, num protowire.Number, v int32) []byte {
	return AppendUint64(b, num, uint64(int64(v))) //nolint:gosec
}

// AppendBool appends a bool field, omitting false.
func AppendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}

	return AppendOptionalUint64(b, num, 1)
}

// AppendFixed64 appends a fixed64 field, omitting zero.
func AppendFixed64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)

	return protowire.AppendFixed64(b, v)
}

// AppendBytes appends a length-delimited field, omitting empty values.
func AppendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}

	return AppendMessage(b, num, v)
}

// AppendString appends a string field, omitting the empty string.
func AppendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendString(b, v)
}

// AppendMessage appends an embedded message. It is always written, even when
// empty, so the field is present on the wire.
func AppendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// AppendPackedInt32s appends a packed repeated int32 field, omitting empty slices.
func AppendPackedInt32s(b []byte, num protowire.Number, vs []int32) []byte {
	if len(vs) == 0 {
		return b
	}

	size := 0
	for _, v := range vs {
		size += protowire.SizeVarint(uint64(int64(v))) //nolint:gosec
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(size)) //nolint:gosec
	for _, v := range vs {
		b = protowire.AppendVarint(b, uint64(int64(v))) //nolint:gosec
	}

	return b
}

// AppendPackedInt64s appends a packed repeated int64 field, omitting empty slices.
func AppendPackedInt64s(b []byte, num protowire.Number, vs []int64) []byte {
	if len(vs) == 0 {
		return b
	}

	size := 0
	for _, v := range vs {
		size += protowire.SizeVarint(uint64(v)) //nolint:gosec
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(size)) //nolint:gosec
	for _, v := range vs {
		b = protowire.AppendVarint(b, uint64(v)) //nolint:gosec
	}

	return b
}
