package encoding

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/catsnap/errs"
)

func TestUUID_Words(t *testing.T) {
	const (
		low  = uint64(0x1122334455667788)
		high = uint64(0x99aabbccddeeff00)
	)

	id := DecodeUUID(low, high)
	require.Equal(t, "99aabbcc-ddee-ff00-1122-334455667788", id.String())

	gotLow, gotHigh := EncodeUUID(id)
	require.Equal(t, low, gotLow)
	require.Equal(t, high, gotHigh)
}

func TestUUID_RoundTrip(t *testing.T) {
	ids := []uuid.UUID{uuid.Nil, uuid.Max, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")}
	for range 50 {
		ids = append(ids, uuid.New())
	}

	for _, id := range ids {
		require.Equal(t, id, DecodeUUID(EncodeUUID(id)))

		decoded, err := ConsumeUUID(AppendUUID(nil, id))
		require.NoError(t, err)
		require.Equal(t, id, decoded)
	}
}

func TestConsumeUUID_Truncated(t *testing.T) {
	b := AppendUUID(nil, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))

	_, err := ConsumeUUID(b[:len(b)-2])
	require.ErrorIs(t, err, errs.ErrTruncatedBuffer)
}
