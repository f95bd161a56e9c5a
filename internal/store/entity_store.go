package store

import (
	"sort"
	"sync"

	"github.com/opsdesk/console-gateway/internal/domain"
)

// EntityStore is the in-memory working copy of every hydrated work item,
// partitioned by kind. Handlers read from it; controllers mutate it only
// after the upstream confirms the corresponding write.
type EntityStore struct {
	mu    sync.RWMutex
	items map[string]map[string]domain.WorkItem
}

// NewEntityStore builds an empty store.
func NewEntityStore() *EntityStore {
	return &EntityStore{items: map[string]map[string]domain.WorkItem{}}
}

// Replace swaps the full item set for a kind, discarding previous state.
func (s *EntityStore) Replace(kind string, items []domain.WorkItem) {
	next := make(map[string]domain.WorkItem, len(items))
	for _, item := range items {
		next[item.ID] = item
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[kind] = next
}

// Get returns one item by id.
func (s *EntityStore) Get(kind, id string) (domain.WorkItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[kind][id]
	return item, ok
}

// List returns all items of a kind ordered by id.
func (s *EntityStore) List(kind string) []domain.WorkItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.WorkItem, 0, len(s.items[kind]))
	for _, item := range s.items[kind] {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// SetOwner updates one item's owner in place.
func (s *EntityStore) SetOwner(kind, id, owner string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[kind][id]
	if !ok {
		return false
	}
	item.Owner = owner
	s.items[kind][id] = item
	return true
}

// SetStatus updates one item's status in place.
func (s *EntityStore) SetStatus(kind, id string, status domain.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[kind][id]
	if !ok {
		return false
	}
	item.Status = status
	s.items[kind][id] = item
	return true
}

// Partition splits a kind's items into the open board and the closed
// history, both ordered by id. Terminal items never appear on the board.
func (s *EntityStore) Partition(kind string) (open, closed []domain.WorkItem) {
	for _, item := range s.List(kind) {
		if item.Status.Terminal() {
			closed = append(closed, item)
		} else {
			open = append(open, item)
		}
	}
	return open, closed
}

// Hydrated reports whether a kind has been loaded at least once.
func (s *EntityStore) Hydrated(kind string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[kind]
	return ok
}
