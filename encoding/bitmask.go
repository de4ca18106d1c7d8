package encoding

import (
	"fmt"
	"iter"
	"math/bits"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/internal/wire"
)

// BitMask field numbers.
const (
	bitMaskMaskField protowire.Number = 1
	bitMaskLenField  protowire.Number = 2
)

// BitMask is a fixed-length packed bit vector.
//
// Bit i lives in mask[i/8] at position i%8 (least significant bit first).
// Bits past the logical length in the final byte are always zero.
type BitMask struct {
	mask   []byte
	length int
}

// BuildBitMask returns a mask of n bits with the given positions set.
// Positions at or past n fail with ErrIndexOutOfBounds.
func BuildBitMask(n int, positions []int) (BitMask, error) {
	m := BitMask{
		mask:   make([]byte, maskBytes(n)),
		length: n,
	}

	for _, p := range positions {
		if p < 0 || p >= n {
			return BitMask{}, fmt.Errorf("%w: bit %d of %d", errs.ErrIndexOutOfBounds, p, n)
		}
		m.mask[p/8] |= 1 << (p % 8)
	}

	return m, nil
}

// Len returns the logical number of bits.
func (m BitMask) Len() int {
	return m.length
}

// Test reports whether bit i is set.
func (m BitMask) Test(i int) (bool, error) {
	if i < 0 || i >= m.length {
		return false, fmt.Errorf("%w: bit %d of %d", errs.ErrIndexOutOfBounds, i, m.length)
	}

	return m.mask[i/8]&(1<<(i%8)) != 0, nil
}

// Count returns the number of set bits.
func (m BitMask) Count() int {
	n := 0
	for _, b := range m.mask {
		n += bits.OnesCount8(b)
	}

	return n
}

// SetBits returns an iterator over the set bit positions in ascending order.
func (m BitMask) SetBits() iter.Seq[int] {
	return func(yield func(int) bool) {
		for byteIdx, b := range m.mask {
			for b != 0 {
				bit := bits.TrailingZeros8(b)
				if !yield(byteIdx*8 + bit) {
					return
				}
				b &= b - 1
			}
		}
	}
}

// Bytes encodes the mask as a standalone message.
func (m BitMask) Bytes() []byte {
	return m.AppendTo(nil)
}

// AppendTo appends the mask's message encoding (without a field tag) to b.
func (m BitMask) AppendTo(b []byte) []byte {
	b = wire.AppendBytes(b, bitMaskMaskField, m.mask)
	return wire.AppendUint64(b, bitMaskLenField, uint64(m.length)) //nolint:gosec
}

// DecodeBitMask decodes and validates a BitMask message.
//
// The mask must be exactly ceil(len/8) bytes: a shorter mask fails with
// ErrTruncatedBuffer, a longer one with ErrMalformedBitMask. Set padding bits
// fail with ErrInvalidBitmaskPadding. The mask aliases b.
func DecodeBitMask(b []byte) (BitMask, error) {
	var (
		m      BitMask
		length uint64
		err    error
	)

	d := wire.NewDecoder(b)
	for d.Next() {
		switch d.Number() {
		case bitMaskMaskField:
			m.mask, err = d.Bytes()
		case bitMaskLenField:
			length, err = d.Uint64()
		}
		if err != nil {
			return BitMask{}, fmt.Errorf("bitmask: %w", err)
		}
	}
	if err := d.Err(); err != nil {
		return BitMask{}, fmt.Errorf("bitmask: %w", err)
	}

	// A length this large can never be backed by the mask bytes.
	if length > uint64(len(m.mask))*8 {
		return BitMask{}, fmt.Errorf("%w: %d mask bytes for %d bits", errs.ErrTruncatedBuffer, len(m.mask), length)
	}
	m.length = int(length) //nolint:gosec

	want := maskBytes(m.length)
	if len(m.mask) > want {
		return BitMask{}, fmt.Errorf("%w: %d mask bytes for %d bits, want %d",
			errs.ErrMalformedBitMask, len(m.mask), m.length, want)
	}

	if rem := m.length % 8; rem != 0 {
		if pad := m.mask[want-1] >> rem; pad != 0 {
			return BitMask{}, fmt.Errorf("%w: bits past %d are set", errs.ErrInvalidBitmaskPadding, m.length)
		}
	}

	return m, nil
}

func maskBytes(n int) int {
	return (n + 7) / 8
}
