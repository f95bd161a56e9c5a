package service

import (
	"context"
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

// ClaimService handles assuming and releasing work items. The local copy
// and the override cache are written only after the upstream confirms the
// change; a lost race triggers a reconciling rehydration.
type ClaimService struct {
	registry   domain.Registry
	items      upstream.ItemClient
	store      *store.EntityStore
	overrides  cache.OverrideStore
	hydration  *HydrationService
	dispatcher events.Dispatcher
	locks      *itemLocks
	logger     *zap.Logger
}

// ClaimDependencies bundles collaborators.
type ClaimDependencies struct {
	Registry   domain.Registry
	Items      upstream.ItemClient
	Store      *store.EntityStore
	Overrides  cache.OverrideStore
	Hydration  *HydrationService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewClaimService creates the service.
func NewClaimService(deps ClaimDependencies) *ClaimService {
	return &ClaimService{
		registry:   deps.Registry,
		items:      deps.Items,
		store:      deps.Store,
		overrides:  deps.Overrides,
		hydration:  deps.Hydration,
		dispatcher: deps.Dispatcher,
		locks:      newItemLocks(),
		logger:     deps.Logger,
	}
}

// Claim assumes the item for actor. Returns the updated item.
func (s *ClaimService) Claim(ctx context.Context, kind, itemID, actor string) (domain.WorkItem, error) {
	desc, ok := s.registry.Get(kind)
	if !ok {
		return domain.WorkItem{}, apperrors.NewNotFound("kind", map[string]any{"kind": kind})
	}
	if actor == "" {
		return domain.WorkItem{}, apperrors.NewUnauthorized("usuário não identificado")
	}

	if !s.locks.acquire(kind, itemID) {
		return domain.WorkItem{}, apperrors.NewConflict("operação em andamento para este item", nil)
	}
	defer s.locks.release(kind, itemID)

	item, found := s.store.Get(kind, itemID)
	if !found {
		return domain.WorkItem{}, apperrors.NewNotFound("item", map[string]any{"id": itemID})
	}
	if item.Claimed() {
		return domain.WorkItem{}, apperrors.NewConflict("item já assumido", map[string]any{
			"responsavel_atual": item.Owner,
		})
	}

	confirmedOwner, err := s.items.Claim(ctx, desc, itemID, actor)
	if err != nil {
		if apperrors.IsConflict(err) {
			s.handleClaimConflict(ctx, kind, itemID, actor, err)
		}
		return domain.WorkItem{}, err
	}

	s.store.SetOwner(kind, itemID, confirmedOwner)
	if err := s.overrides.Set(ctx, kind, cache.MapOwner, itemID, confirmedOwner); err != nil {
		s.logger.Warn("owner override not persisted", zap.String("id", itemID), zap.Error(err))
	}
	s.publish(ctx, events.EventItemClaimed, kind, itemID, actor, events.ItemClaimedPayload{Owner: confirmedOwner})

	item, _ = s.store.Get(kind, itemID)
	return item, nil
}

// Release clears the actor's claim on the item.
func (s *ClaimService) Release(ctx context.Context, kind, itemID, actor string) (domain.WorkItem, error) {
	desc, ok := s.registry.Get(kind)
	if !ok {
		return domain.WorkItem{}, apperrors.NewNotFound("kind", map[string]any{"kind": kind})
	}

	if !s.locks.acquire(kind, itemID) {
		return domain.WorkItem{}, apperrors.NewConflict("operação em andamento para este item", nil)
	}
	defer s.locks.release(kind, itemID)

	item, found := s.store.Get(kind, itemID)
	if !found {
		return domain.WorkItem{}, apperrors.NewNotFound("item", map[string]any{"id": itemID})
	}
	if !item.Claimed() {
		return domain.WorkItem{}, apperrors.NewValidationError("item não está assumido", nil)
	}
	if item.Owner != actor {
		return domain.WorkItem{}, apperrors.NewForbidden("apenas o responsável pode liberar o item")
	}

	if err := s.items.Release(ctx, desc, itemID); err != nil {
		return domain.WorkItem{}, err
	}

	previousOwner := item.Owner
	s.store.SetOwner(kind, itemID, "")
	if err := s.overrides.Clear(ctx, kind, cache.MapOwner, itemID); err != nil {
		s.logger.Warn("owner override not cleared", zap.String("id", itemID), zap.Error(err))
	}
	s.publish(ctx, events.EventItemReleased, kind, itemID, actor, events.ItemReleasedPayload{PreviousOwner: previousOwner})

	item, _ = s.store.Get(kind, itemID)
	return item, nil
}

// handleClaimConflict reconciles local state after losing a claim race:
// rehydrate the whole kind so the winner's name shows everywhere.
func (s *ClaimService) handleClaimConflict(ctx context.Context, kind, itemID, actor string, cause error) {
	currentOwner := ""
	if domainErr := apperrors.ToDomainError(cause); domainErr.Details != nil {
		if winner, ok := domainErr.Details["responsavel_atual"].(string); ok {
			currentOwner = winner
		}
	}
	s.logger.Info("claim lost to concurrent owner",
		zap.String("kind", kind),
		zap.String("id", itemID),
		zap.String("current_owner", currentOwner),
	)

	if err := s.hydration.Hydrate(ctx, kind); err != nil {
		s.logger.Warn("reconciling reload failed", zap.String("kind", kind), zap.Error(err))
	}
	s.publish(ctx, events.EventClaimConflict, kind, itemID, actor, events.ClaimConflictPayload{CurrentOwner: currentOwner})
}

func (s *ClaimService) publish(ctx context.Context, eventType events.EventType, kind, itemID, actor string, payload any) {
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Kind:      kind,
		ItemID:    itemID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(eventType)), zap.Error(err))
	}
}
