package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/opsdesk/console-gateway/internal/cache"
	"github.com/opsdesk/console-gateway/internal/domain"
	"github.com/opsdesk/console-gateway/internal/store"
	"github.com/opsdesk/console-gateway/internal/upstream"
	apperrors "github.com/opsdesk/console-gateway/pkg/util"
)

// HydrationService loads a kind's items from its upstream service and
// merges the locally persisted overrides on top. Overrides win over
// remote data until the remote catches up, so a claim survives a page
// reload even when the upstream lags.
type HydrationService struct {
	registry  domain.Registry
	items     upstream.ItemClient
	store     *store.EntityStore
	overrides cache.OverrideStore
	logger    *zap.Logger

	mu sync.Mutex
}

// HydrationDependencies bundles collaborators.
type HydrationDependencies struct {
	Registry  domain.Registry
	Items     upstream.ItemClient
	Store     *store.EntityStore
	Overrides cache.OverrideStore
	Logger    *zap.Logger
}

// NewHydrationService creates the service.
func NewHydrationService(deps HydrationDependencies) *HydrationService {
	return &HydrationService{
		registry:  deps.Registry,
		items:     deps.Items,
		store:     deps.Store,
		overrides: deps.Overrides,
		logger:    deps.Logger,
	}
}

// Hydrate refetches the kind from upstream, applies overrides and
// replaces the in-memory set.
func (s *HydrationService) Hydrate(ctx context.Context, kind string) error {
	desc, ok := s.registry.Get(kind)
	if !ok {
		return apperrors.NewNotFound("kind", map[string]any{"kind": kind})
	}

	// Serialize hydrations so concurrent reloads don't interleave a
	// stale Replace after a fresh one.
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.items.List(ctx, desc)
	if err != nil {
		return err
	}

	ownerOverrides, err := s.overrides.Map(ctx, kind, cache.MapOwner)
	if err != nil {
		s.logger.Warn("owner overrides unavailable", zap.String("kind", kind), zap.Error(err))
		ownerOverrides = map[string]string{}
	}
	statusOverrides, err := s.overrides.Map(ctx, kind, cache.MapStatus)
	if err != nil {
		s.logger.Warn("status overrides unavailable", zap.String("kind", kind), zap.Error(err))
		statusOverrides = map[string]string{}
	}

	for i := range items {
		if owner, ok := ownerOverrides[items[i].ID]; ok {
			items[i].Owner = owner
		}
		if raw, ok := statusOverrides[items[i].ID]; ok {
			if status, valid := domain.ParseStatus(raw); valid {
				items[i].Status = status
			}
		}
	}

	s.store.Replace(kind, items)
	s.logger.Info("kind hydrated",
		zap.String("kind", kind),
		zap.Int("items", len(items)),
		zap.Int("owner_overrides", len(ownerOverrides)),
		zap.Int("status_overrides", len(statusOverrides)),
	)
	return nil
}

// Ensure hydrates the kind only if it has never been loaded.
func (s *HydrationService) Ensure(ctx context.Context, kind string) error {
	if s.store.Hydrated(kind) {
		return nil
	}
	return s.Hydrate(ctx, kind)
}
