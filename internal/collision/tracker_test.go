package collision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/catsnap/errs"
)

func TestTracker_Track(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		wantErr int // index of the key expected to fail, -1 for none
	}{
		{name: "distinct", keys: []string{"metrics", "events", "logs"}, wantErr: -1},
		{name: "duplicate", keys: []string{"logs", "metrics", "logs"}, wantErr: 2},
		{name: "case sensitive", keys: []string{"cpu", "CPU"}, wantErr: -1},
		{name: "empty key twice", keys: []string{"", ""}, wantErr: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(len(tt.keys))
			for i, key := range tt.keys {
				err := tracker.Track([]byte(key), i)
				if i == tt.wantErr {
					require.ErrorIs(t, err, errs.ErrDuplicateKey)
					return
				}
				require.NoError(t, err)
			}
			require.Equal(t, -1, tt.wantErr)
		})
	}
}

func TestTracker_DuplicateNamesBothIndexes(t *testing.T) {
	tracker := NewTracker(2)

	require.NoError(t, tracker.Track([]byte("logs"), 0))

	err := tracker.Track([]byte("logs"), 3)
	require.ErrorIs(t, err, errs.ErrDuplicateKey)
	require.Contains(t, err.Error(), "index 3")
	require.Contains(t, err.Error(), "index 0")
}

func TestTracker_NilAndEmptyKeyMatch(t *testing.T) {
	tracker := NewTracker(1)

	require.NoError(t, tracker.Track(nil, 0))
	require.ErrorIs(t, tracker.Track([]byte{}, 1), errs.ErrDuplicateKey)
}
