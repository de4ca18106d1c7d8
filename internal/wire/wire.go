// Package wire reads and writes protobuf-encoded fields without generated code.
//
// Every catsnap message is a plain protobuf message with fixed field numbers.
// The Decoder walks fields in order and aliases length-delimited values into
// the input buffer; the Append helpers follow proto3 presence rules (zero
// scalars are omitted) unless the Optional/Message variants are used.
package wire

import (
	"errors"
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/errs"
)

// Decoder iterates over the fields of a single message.
//
// Typical use:
//
//	d := wire.NewDecoder(b)
//	for d.Next() {
//	    switch d.Number() {
//	    case 1:
//	        v, err := d.Int64()
//	        ...
//	    }
//	}
//	if err := d.Err(); err != nil { ... }
//
// Fields that are not read are skipped, so unknown fields are ignored.
type Decoder struct {
	buf []byte
	num protowire.Number
	typ protowire.Type
	u64 uint64
	val []byte
	err error
}

// NewDecoder returns a Decoder over b. The decoder never copies b.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Next advances to the next field. It returns false at the end of the
// message or on error; check Err afterwards.
func (d *Decoder) Next() bool {
	if d.err != nil || len(d.buf) == 0 {
		return false
	}

	num, typ, n := protowire.ConsumeTag(d.buf)
	if n < 0 {
		d.err = parseError(0, n)
		return false
	}
	d.buf = d.buf[n:]
	d.num, d.typ = num, typ
	d.val = nil
	d.u64 = 0

	switch typ {
	case protowire.VarintType:
		v, m := protowire.ConsumeVarint(d.buf)
		if m < 0 {
			d.err = parseError(num, m)
			return false
		}
		d.u64, n = v, m
	case protowire.Fixed64Type:
		v, m := protowire.ConsumeFixed64(d.buf)
		if m < 0 {
			d.err = parseError(num, m)
			return false
		}
		d.u64, n = v, m
	case protowire.Fixed32Type:
		v, m := protowire.ConsumeFixed32(d.buf)
		if m < 0 {
			d.err = parseError(num, m)
			return false
		}
		d.u64, n = uint64(v), m
	case protowire.BytesType:
		v, m := protowire.ConsumeBytes(d.buf)
		if m < 0 {
			d.err = parseError(num, m)
			return false
		}
		d.val, n = v, m
	default:
		m := protowire.ConsumeFieldValue(num, typ, d.buf)
		if m < 0 {
			d.err = parseError(num, m)
			return false
		}
		n = m
	}
	d.buf = d.buf[n:]

	return true
}

// Number returns the field number of the current field.
func (d *Decoder) Number() protowire.Number {
	return d.num
}

// Type returns the wire type of the current field.
func (d *Decoder) Type() protowire.Type {
	return d.typ
}

// Err returns the first error encountered while walking the message.
func (d *Decoder) Err() error {
	return d.err
}

// Uint64 returns the current varint field.
func (d *Decoder) Uint64() (uint64, error) {
	if err := d.expect(protowire.VarintType); err != nil {
		return 0, err
	}

	return d.u64, nil
}

// Int64 returns the current varint field as a signed 64-bit integer.
func (d *Decoder) Int64() (int64, error) {
	v, err := d.Uint64()
	return int64(v), err //nolint:gosec
}

// Int32 returns the current varint field as a signed 32-bit integer.
func (d *Decoder) Int32() (int32, error) {
	v, err := d.Uint64()
	if err != nil {
		return 0, err
	}

	return d.toInt32(v)
}

// Uint32 returns the current varint field as an unsigned 32-bit integer.
func (d *Decoder) Uint32() (uint32, error) {
	v, err := d.Uint64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: field %d value %d overflows uint32", errs.ErrMalformedMessage, d.num, v)
	}

	return uint32(v), nil
}

// Bool returns the current varint field as a bool.
func (d *Decoder) Bool() (bool, error) {
	v, err := d.Uint64()
	return v != 0, err
}

// Fixed64 returns the current fixed64 field.
func (d *Decoder) Fixed64() (uint64, error) {
	if err := d.expect(protowire.Fixed64Type); err != nil {
		return 0, err
	}

	return d.u64, nil
}

// Bytes returns the current length-delimited field. The result aliases the
// decoder input.
func (d *Decoder) Bytes() ([]byte, error) {
	if err := d.expect(protowire.BytesType); err != nil {
		return nil, err
	}

	return d.val, nil
}

// Int32s appends the current repeated int32 field to dst. Both the packed
// and the unpacked encoding are accepted.
func (d *Decoder) Int32s(dst []int32) ([]int32, error) {
	if d.typ == protowire.VarintType {
		v, err := d.toInt32(d.u64)
		if err != nil {
			return dst, err
		}

		return append(dst, v), nil
	}

	err := d.packedVarints(func(u uint64) error {
		v, err := d.toInt32(u)
		if err != nil {
			return err
		}
		dst = append(dst, v)

		return nil
	})

	return dst, err
}

// Int64s appends the current repeated int64 field to dst. Both the packed
// and the unpacked encoding are accepted.
func (d *Decoder) Int64s(dst []int64) ([]int64, error) {
	if d.typ == protowire.VarintType {
		return append(dst, int64(d.u64)), nil //nolint:gosec
	}

	err := d.packedVarints(func(v uint64) error {
		dst = append(dst, int64(v)) //nolint:gosec
		return nil
	})

	return dst, err
}

func (d *Decoder) packedVarints(fn func(uint64) error) error {
	if err := d.expect(protowire.BytesType); err != nil {
		return err
	}

	b := d.val
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return parseError(d.num, n)
		}
		if err := fn(v); err != nil {
			return err
		}
		b = b[n:]
	}

	return nil
}

// toInt32 narrows a sign-extended varint, rejecting values outside int32.
func (d *Decoder) toInt32(u uint64) (int32, error) {
	v := int64(u) //nolint:gosec
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: field %d value %d overflows int32", errs.ErrMalformedMessage, d.num, v)
	}

	return int32(v), nil
}

func (d *Decoder) expect(typ protowire.Type) error {
	if d.typ != typ {
		return fmt.Errorf("%w: field %d has wire type %d, want %d", errs.ErrMalformedMessage, d.num, d.typ, typ)
	}

	return nil
}

func parseError(num protowire.Number, n int) error {
	err := protowire.ParseError(n)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: field %d: %v", errs.ErrTruncatedBuffer, num, err)
	}

	return fmt.Errorf("%w: field %d: %v", errs.ErrMalformedMessage, num, err)
}
