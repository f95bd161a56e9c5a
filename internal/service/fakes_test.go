package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/opsdesk/console-gateway/internal/cache"
	"github.com/opsdesk/console-gateway/internal/domain"
	"github.com/opsdesk/console-gateway/internal/events"
	"github.com/opsdesk/console-gateway/internal/store"
)

// fakeItemClient scripts upstream behavior per call and records writes.
type fakeItemClient struct {
	mu sync.Mutex

	listItems []domain.WorkItem
	listErr   error

	claimOwner string
	claimErr   error
	claimCalls int

	releaseErr   error
	releaseCalls int

	updateErr     error
	updateCalls   int
	updatedStatus domain.Status

	finalizeErr   error
	finalizeCalls int

	cancelErr   error
	cancelCalls int
}

func (f *fakeItemClient) List(ctx context.Context, desc domain.Descriptor) ([]domain.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	items := make([]domain.WorkItem, len(f.listItems))
	copy(items, f.listItems)
	return items, nil
}

func (f *fakeItemClient) Claim(ctx context.Context, desc domain.Descriptor, itemID, owner string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claimCalls++
	if f.claimErr != nil {
		return "", f.claimErr
	}
	if f.claimOwner != "" {
		return f.claimOwner, nil
	}
	return owner, nil
}

func (f *fakeItemClient) Release(ctx context.Context, desc domain.Descriptor, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseCalls++
	return f.releaseErr
}

func (f *fakeItemClient) UpdateStatus(ctx context.Context, desc domain.Descriptor, itemID string, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedStatus = status
	return nil
}

func (f *fakeItemClient) Finalize(ctx context.Context, desc domain.Descriptor, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalizeCalls++
	return f.finalizeErr
}

func (f *fakeItemClient) Cancel(ctx context.Context, desc domain.Descriptor, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	return f.cancelErr
}

// fakeObservationClient scripts the observation endpoints.
type fakeObservationClient struct {
	mu sync.Mutex

	entries []domain.Observation
	listErr error

	appendErr   error
	appendCalls int
	appendedBy  string
	appended    string
}

func (f *fakeObservationClient) List(ctx context.Context, desc domain.Descriptor, itemID string) ([]domain.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	entries := make([]domain.Observation, len(f.entries))
	copy(entries, f.entries)
	return entries, nil
}

func (f *fakeObservationClient) Append(ctx context.Context, desc domain.Descriptor, itemID, author, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendCalls++
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appendedBy = author
	f.appended = text
	return nil
}

// memOverrideStore is an in-memory stand-in for the postgres store.
type memOverrideStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemOverrideStore() *memOverrideStore {
	return &memOverrideStore{data: map[string]string{}}
}

func overrideKey(kind, mapName, itemID string) string {
	return kind + "/" + mapName + "/" + itemID
}

func (s *memOverrideStore) Set(ctx context.Context, kind, mapName, itemID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[overrideKey(kind, mapName, itemID)] = value
	return nil
}

func (s *memOverrideStore) Clear(ctx context.Context, kind, mapName, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, overrideKey(kind, mapName, itemID))
	return nil
}

func (s *memOverrideStore) Map(ctx context.Context, kind, mapName string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := kind + "/" + mapName + "/"
	out := map[string]string{}
	for key, value := range s.data {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out[key[len(prefix):]] = value
		}
	}
	return out, nil
}

func (s *memOverrideStore) get(kind, mapName, itemID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[overrideKey(kind, mapName, itemID)]
	return value, ok
}

// memObservationCache is an in-memory stand-in for the redis cache.
type memObservationCache struct {
	mu   sync.Mutex
	data map[string][]domain.Observation
}

func newMemObservationCache() *memObservationCache {
	return &memObservationCache{data: map[string][]domain.Observation{}}
}

func (c *memObservationCache) Get(ctx context.Context, kind, itemID string) ([]domain.Observation, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, ok := c.data[kind+"/"+itemID]
	return entries, ok, nil
}

func (c *memObservationCache) Put(ctx context.Context, kind, itemID string, entries []domain.Observation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[kind+"/"+itemID] = entries
	return nil
}

func (c *memObservationCache) Invalidate(ctx context.Context, kind, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, kind+"/"+itemID)
	return nil
}

var _ cache.OverrideStore = (*memOverrideStore)(nil)
var _ cache.ObservationCache = (*memObservationCache)(nil)

func testRegistry() domain.Registry {
	return domain.NewRegistry("http://chamados.test", "http://sars.test")
}

func seedStore(items ...domain.WorkItem) *store.EntityStore {
	s := store.NewEntityStore()
	s.Replace(domain.KindChamados, items)
	s.Replace(domain.KindSars, items)
	return s
}

func newTestHydration(items *fakeItemClient, entityStore *store.EntityStore, overrides cache.OverrideStore) *HydrationService {
	return NewHydrationService(HydrationDependencies{
		Registry:  testRegistry(),
		Items:     items,
		Store:     entityStore,
		Overrides: overrides,
		Logger:    zap.NewNop(),
	})
}

// capturingDispatcher records published events.
type capturingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *capturingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *capturingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
