package encoding

import (
	"fmt"
	"iter"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/internal/wire"
)

// MessageList field numbers.
const (
	messageListOffsetsField protowire.Number = 1
	messageListValuesField  protowire.Number = 2
)

// MessageList is a list of variable-length byte slices stored as one flat
// value buffer plus an offsets table.
//
// An array of N elements carries N+1 offsets. Element i is
// values[offsets[i]:offsets[i+1]], so any element is reachable without
// scanning its predecessors:
//
//	offsets: [0, 7, 13, 17]
//	values:  "metricseventslogs"
//	Get(1):  values[7:13] = "events"
//
// A MessageList is immutable. Lists returned by DecodeMessageList alias the
// decoded buffer and are safe for concurrent readers.
type MessageList struct {
	offsets []int32
	values  []byte
}

// BuildMessageList builds a list from elements in order.
//
// It fails with ErrOffsetOverflow if the concatenated size does not fit the
// 32-bit offset width. The element contents are copied.
func BuildMessageList(elements [][]byte) (MessageList, error) {
	total := 0
	for i, e := range elements {
		total += len(e)
		if total > math.MaxInt32 {
			return MessageList{}, fmt.Errorf("%w: element %d brings total size past %d bytes",
				errs.ErrOffsetOverflow, i, math.MaxInt32)
		}
	}

	offsets := make([]int32, len(elements)+1)
	values := make([]byte, 0, total)
	for i, e := range elements {
		values = append(values, e...)
		offsets[i+1] = int32(len(values)) //nolint:gosec
	}

	return MessageList{offsets: offsets, values: values}, nil
}

// Len returns the number of elements.
func (l MessageList) Len() int {
	if len(l.offsets) == 0 {
		return 0
	}

	return len(l.offsets) - 1
}

// Get returns element i. The result aliases the list's value buffer and must
// not be modified.
func (l MessageList) Get(i int) ([]byte, error) {
	if i < 0 || i >= l.Len() {
		return nil, fmt.Errorf("%w: element %d of %d", errs.ErrIndexOutOfBounds, i, l.Len())
	}

	return l.values[l.offsets[i]:l.offsets[i+1]], nil
}

// All returns an iterator over (index, element) pairs. The sequence is
// finite and can be ranged over any number of times.
func (l MessageList) All() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for i := 0; i < l.Len(); i++ {
			if !yield(i, l.values[l.offsets[i]:l.offsets[i+1]]) {
				return
			}
		}
	}
}

// Size returns the size of the value buffer in bytes.
func (l MessageList) Size() int {
	return len(l.values)
}

// Bytes encodes the list as a standalone message.
func (l MessageList) Bytes() []byte {
	return l.AppendTo(nil)
}

// AppendTo appends the list's message encoding (without a field tag) to b.
func (l MessageList) AppendTo(b []byte) []byte {
	offsets := l.offsets
	if len(offsets) == 0 {
		offsets = []int32{0}
	}
	b = wire.AppendPackedInt32s(b, messageListOffsetsField, offsets)

	return wire.AppendBytes(b, messageListValuesField, l.values)
}

// DecodeMessageList decodes and validates a MessageList message.
//
// The offsets table is fully checked before any element is handed out: it
// must start at 0, never decrease, and end at len(values). A violation fails
// the whole list with ErrMalformedOffsets. The value buffer aliases b.
func DecodeMessageList(b []byte) (MessageList, error) {
	var (
		l   MessageList
		err error
	)

	d := wire.NewDecoder(b)
	for d.Next() {
		switch d.Number() {
		case messageListOffsetsField:
			l.offsets, err = d.Int32s(l.offsets)
		case messageListValuesField:
			l.values, err = d.Bytes()
		}
		if err != nil {
			return MessageList{}, fmt.Errorf("message list: %w", err)
		}
	}
	if err := d.Err(); err != nil {
		return MessageList{}, fmt.Errorf("message list: %w", err)
	}

	if err := l.validate(); err != nil {
		return MessageList{}, err
	}

	return l, nil
}

func (l MessageList) validate() error {
	if len(l.offsets) == 0 {
		if len(l.values) != 0 {
			return fmt.Errorf("%w: %d value bytes without offsets", errs.ErrMalformedOffsets, len(l.values))
		}

		return nil
	}

	if l.offsets[0] != 0 {
		return fmt.Errorf("%w: first offset is %d, want 0", errs.ErrMalformedOffsets, l.offsets[0])
	}

	for i := 1; i < len(l.offsets); i++ {
		if l.offsets[i] < l.offsets[i-1] {
			return fmt.Errorf("%w: offset %d (%d) is smaller than offset %d (%d)",
				errs.ErrMalformedOffsets, i, l.offsets[i], i-1, l.offsets[i-1])
		}
	}

	if last := l.offsets[len(l.offsets)-1]; int(last) != len(l.values) {
		return fmt.Errorf("%w: last offset is %d, value buffer has %d bytes",
			errs.ErrMalformedOffsets, last, len(l.values))
	}

	return nil
}
