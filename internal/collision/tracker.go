package collision

import (
	"fmt"

	"github.com/arloliu/catsnap/errs"
)

// Tracker watches the keys fed into a hash index build and rejects
// duplicates, which a lookup could never tell apart.
type Tracker struct {
	keys map[string]int // key → insertion index
}

// NewTracker creates a tracker sized for capacity keys.
func NewTracker(capacity int) *Tracker {
	return &Tracker{keys: make(map[string]int, capacity)}
}

// Track records key at the given insertion index.
// It returns ErrDuplicateKey if the same key was tracked before.
func (t *Tracker) Track(key []byte, index int) error {
	if first, ok := t.keys[string(key)]; ok {
		return fmt.Errorf("%w: %q at index %d already present at index %d", errs.ErrDuplicateKey, key, index, first)
	}
	t.keys[string(key)] = index

	return nil
}
