package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/internal/wire"
)

// UUID message field numbers.
const (
	uuidLowField  protowire.Number = 1
	uuidHighField protowire.Number = 2
)

// EncodeUUID splits id into two 64-bit words: high is bytes 0..7 and low is
// bytes 8..15, both read big-endian.
func EncodeUUID(id uuid.UUID) (low, high uint64) {
	return binary.BigEndian.Uint64(id[8:16]), binary.BigEndian.Uint64(id[0:8])
}

// DecodeUUID is the inverse of EncodeUUID.
func DecodeUUID(low, high uint64) uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[0:8], high)
	binary.BigEndian.PutUint64(id[8:16], low)

	return id
}

// AppendUUID appends the UUID message encoding of id (without a field tag) to b.
func AppendUUID(b []byte, id uuid.UUID) []byte {
	low, high := EncodeUUID(id)
	b = wire.AppendFixed64(b, uuidLowField, low)

	return wire.AppendFixed64(b, uuidHighField, high)
}

// ConsumeUUID decodes a UUID message.
func ConsumeUUID(b []byte) (uuid.UUID, error) {
	var (
		low, high uint64
		err       error
	)

	d := wire.NewDecoder(b)
	for d.Next() {
		switch d.Number() {
		case uuidLowField:
			low, err = d.Fixed64()
		case uuidHighField:
			high, err = d.Fixed64()
		}
		if err != nil {
			return uuid.Nil, fmt.Errorf("uuid: %w", err)
		}
	}
	if err := d.Err(); err != nil {
		return uuid.Nil, fmt.Errorf("uuid: %w", err)
	}

	return DecodeUUID(low, high), nil
}
