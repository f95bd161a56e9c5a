package service

import "sync"

// itemLocks serializes workflow actions per item. A second claim or
// transition arriving while one is in flight for the same item is
// rejected instead of queued, mirroring the disabled state of the
// triggering control.
type itemLocks struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

func newItemLocks() *itemLocks {
	return &itemLocks{inFlight: map[string]bool{}}
}

func lockKey(kind, itemID string) string {
	return kind + "/" + itemID
}

// acquire marks the item busy. Returns false when already busy.
func (l *itemLocks) acquire(kind, itemID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := lockKey(kind, itemID)
	if l.inFlight[key] {
		return false
	}
	l.inFlight[key] = true
	return true
}

func (l *itemLocks) release(kind, itemID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inFlight, lockKey(kind, itemID))
}
