package catalog

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/encoding"
	"github.com/arloliu/catsnap/internal/pool"
	"github.com/arloliu/catsnap/internal/wire"
)

// recordList collects encoded child records back to back in a pooled buffer
// until they are turned into a MessageList.
type recordList struct {
	buf  *pool.ByteBuffer
	ends []int
}

func newRecordList() *recordList {
	return &recordList{buf: pool.GetRecordBuffer()}
}

// add appends one record produced by appendFn.
func (r *recordList) add(appendFn func(b []byte) []byte) {
	r.buf.B = appendFn(r.buf.B)
	r.ends = append(r.ends, r.buf.Len())
}

func (r *recordList) len() int {
	return len(r.ends)
}

// build copies the records into a MessageList and releases the buffer.
func (r *recordList) build() (encoding.MessageList, error) {
	defer r.release()

	elements := make([][]byte, len(r.ends))
	start := 0
	for i, end := range r.ends {
		elements[i] = r.buf.B[start:end]
		start = end
	}

	return encoding.BuildMessageList(elements)
}

func (r *recordList) release() {
	if r.buf != nil {
		pool.PutRecordBuffer(r.buf)
		r.buf = nil
	}
}

// finishSnapshot assembles a snapshot in a pooled buffer and returns a copy
// owned by the caller.
func finishSnapshot(appendFn func(b []byte) []byte) []byte {
	bb := pool.GetSnapshotBuffer()
	defer pool.PutSnapshotBuffer(bb)

	bb.B = appendFn(bb.B)

	return bb.Clone()
}

// keyField returns the raw bytes of field num in a child record. Hash index
// lookups use it to compare keys without decoding whole records.
func keyField(rec []byte, num protowire.Number) ([]byte, error) {
	var key []byte

	d := wire.NewDecoder(rec)
	for d.Next() {
		if d.Number() != num {
			continue
		}

		v, err := d.Bytes()
		if err != nil {
			return nil, err
		}
		key = v
	}

	return key, d.Err()
}

// listKeyAt returns a HashBuckets key resolver over a list of records keyed
// by field num.
func listKeyAt(list encoding.MessageList, num protowire.Number) func(int) ([]byte, error) {
	return func(i int) ([]byte, error) {
		rec, err := list.Get(i)
		if err != nil {
			return nil, err
		}

		return keyField(rec, num)
	}
}

// decodeIndexedList decodes a MessageList and the HashBuckets index over it.
func decodeIndexedList(listBytes, indexBytes []byte, what string) (encoding.MessageList, encoding.HashBuckets, error) {
	list, err := encoding.DecodeMessageList(listBytes)
	if err != nil {
		return encoding.MessageList{}, encoding.HashBuckets{}, fmt.Errorf("%s: %w", what, err)
	}

	index, err := encoding.DecodeHashBuckets(indexBytes, list.Len())
	if err != nil {
		return encoding.MessageList{}, encoding.HashBuckets{}, fmt.Errorf("%s index: %w", what, err)
	}

	return list, index, nil
}
