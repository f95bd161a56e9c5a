package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsdesk/console-gateway/internal/cache"
	"github.com/opsdesk/console-gateway/internal/domain"
	"github.com/opsdesk/console-gateway/internal/events"
	"github.com/opsdesk/console-gateway/internal/store"
	"github.com/opsdesk/console-gateway/internal/upstream"
	apperrors "github.com/opsdesk/console-gateway/pkg/util"
)

// ObservationService serves an item's observation log. Logs load lazily
// on first request and are cached until explicitly refreshed or a new
// entry is appended.
type ObservationService struct {
	registry   domain.Registry
	client     upstream.ObservationClient
	store      *store.EntityStore
	cache      cache.ObservationCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ObservationDependencies bundles collaborators.
type ObservationDependencies struct {
	Registry   domain.Registry
	Client     upstream.ObservationClient
	Store      *store.EntityStore
	Cache      cache.ObservationCache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewObservationService creates the service.
func NewObservationService(deps ObservationDependencies) *ObservationService {
	return &ObservationService{
		registry:   deps.Registry,
		client:     deps.Client,
		store:      deps.Store,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Load returns the item's observations oldest first, from cache when
// fresh.
func (s *ObservationService) Load(ctx context.Context, kind, itemID string) ([]domain.Observation, error) {
	desc, err := s.lookup(kind, itemID)
	if err != nil {
		return nil, err
	}

	entries, found, err := s.cache.Get(ctx, kind, itemID)
	if err != nil {
		s.logger.Warn("observation cache read failed", zap.String("id", itemID), zap.Error(err))
	}
	if found {
		return entries, nil
	}
	return s.fetch(ctx, desc, kind, itemID)
}

// Reload bypasses the cache and refetches from upstream.
func (s *ObservationService) Reload(ctx context.Context, kind, itemID string) ([]domain.Observation, error) {
	desc, err := s.lookup(kind, itemID)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, desc, kind, itemID)
}

// Append records a new observation authored by actor. Whitespace-only
// text is rejected before any remote call.
func (s *ObservationService) Append(ctx context.Context, kind, itemID, actor, text string) ([]domain.Observation, error) {
	desc, err := s.lookup(kind, itemID)
	if err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, apperrors.NewUnauthorized("usuário não identificado")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("informe uma observação", nil)
	}

	if err := s.client.Append(ctx, desc, itemID, actor, text); err != nil {
		return nil, err
	}
	s.publishAppended(ctx, kind, itemID, actor, text)

	// Merge into the cached log in order instead of refetching; the
	// next explicit reload resyncs with upstream anyway.
	entries, found, err := s.cache.Get(ctx, kind, itemID)
	if err != nil || !found {
		return s.fetch(ctx, desc, kind, itemID)
	}
	entries = domain.MergeObservation(entries, domain.NewObservation(actor, text))
	if err := s.cache.Put(ctx, kind, itemID, entries); err != nil {
		s.logger.Warn("observation cache write failed", zap.String("id", itemID), zap.Error(err))
	}
	return entries, nil
}

func (s *ObservationService) fetch(ctx context.Context, desc domain.Descriptor, kind, itemID string) ([]domain.Observation, error) {
	entries, err := s.client.List(ctx, desc, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(ctx, kind, itemID, entries); err != nil {
		s.logger.Warn("observation cache write failed", zap.String("id", itemID), zap.Error(err))
	}
	return entries, nil
}

func (s *ObservationService) lookup(kind, itemID string) (domain.Descriptor, error) {
	desc, ok := s.registry.Get(kind)
	if !ok {
		return domain.Descriptor{}, apperrors.NewNotFound("kind", map[string]any{"kind": kind})
	}
	if _, found := s.store.Get(kind, itemID); !found {
		return domain.Descriptor{}, apperrors.NewNotFound("item", map[string]any{"id": itemID})
	}
	return desc, nil
}

func (s *ObservationService) publishAppended(ctx context.Context, kind, itemID, actor, text string) {
	preview := text
	if len(preview) > 80 {
		preview = preview[:80]
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventObservationAdded,
		Kind:      kind,
		ItemID:    itemID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   events.ObservationAddedPayload{TextPreview: preview},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(events.EventObservationAdded)), zap.Error(err))
	}
}
