package service

import (
	"context"
	"strings"
	"sync"
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

// TransitionOutcome reports what a requested status change produced.
// Non-terminal moves are applied immediately; terminal moves are held as
// a pending selection until confirmed or abandoned.
type TransitionOutcome struct {
	Applied              bool            `json:"applied"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
	RequiresClosingNote  bool            `json:"requires_closing_note"`
	Item                 domain.WorkItem `json:"item"`
}

// StatusService drives the status lifecycle of work items.
type StatusService struct {
	registry     domain.Registry
	items        upstream.ItemClient
	observations upstream.ObservationClient
	store        *store.EntityStore
	overrides    cache.OverrideStore
	obsCache     cache.ObservationCache
	dispatcher   events.Dispatcher
	locks        *itemLocks
	logger       *zap.Logger

	mu      sync.Mutex
	pending map[string]domain.Status
}

// StatusDependencies bundles collaborators.
type StatusDependencies struct {
	Registry     domain.Registry
	Items        upstream.ItemClient
	Observations upstream.ObservationClient
	Store        *store.EntityStore
	Overrides    cache.OverrideStore
	ObsCache     cache.ObservationCache
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewStatusService creates the service.
func NewStatusService(deps StatusDependencies) *StatusService {
	return &StatusService{
		registry:     deps.Registry,
		items:        deps.Items,
		observations: deps.Observations,
		store:        deps.Store,
		overrides:    deps.Overrides,
		obsCache:     deps.ObsCache,
		dispatcher:   deps.Dispatcher,
		locks:        newItemLocks(),
		logger:       deps.Logger,
		pending:      map[string]domain.Status{},
	}
}

// RequestTransition validates and, for non-terminal targets, applies a
// status change. Terminal targets are parked as a pending selection and
// must go through ConfirmTransition.
func (s *StatusService) RequestTransition(ctx context.Context, kind, itemID, actor string, next domain.Status) (TransitionOutcome, error) {
	desc, item, err := s.checkTransition(kind, itemID, actor, next)
	if err != nil {
		return TransitionOutcome{}, err
	}

	if next.Terminal() {
		s.mu.Lock()
		s.pending[lockKey(kind, itemID)] = next
		s.mu.Unlock()

		return TransitionOutcome{
			RequiresConfirmation: true,
			RequiresClosingNote:  next == domain.StatusCompleted && desc.RequiresClosingNote,
			Item:                 item,
		}, nil
	}

	if !s.locks.acquire(kind, itemID) {
		return TransitionOutcome{}, apperrors.NewConflict("operação em andamento para este item", nil)
	}
	defer s.locks.release(kind, itemID)

	if err := s.items.UpdateStatus(ctx, desc, itemID, next); err != nil {
		return TransitionOutcome{}, err
	}
	s.commit(ctx, kind, itemID, actor, item.Status, next, "")

	item, _ = s.store.Get(kind, itemID)
	return TransitionOutcome{Applied: true, Item: item}, nil
}

// ConfirmTransition completes a pending terminal transition. Completing a
// kind that requires a closing note appends the note before finalizing;
// the finalize is skipped when the note cannot be recorded.
func (s *StatusService) ConfirmTransition(ctx context.Context, kind, itemID, actor string, next domain.Status, note string) (TransitionOutcome, error) {
	if !next.Terminal() {
		return TransitionOutcome{}, apperrors.NewValidationError("apenas status finais exigem confirmação", nil)
	}
	desc, item, err := s.checkTransition(kind, itemID, actor, next)
	if err != nil {
		return TransitionOutcome{}, err
	}

	note = strings.TrimSpace(note)
	if next == domain.StatusCompleted && desc.RequiresClosingNote && note == "" {
		return TransitionOutcome{}, apperrors.NewValidationError("informe uma observação de encerramento", nil)
	}

	if !s.locks.acquire(kind, itemID) {
		return TransitionOutcome{}, apperrors.NewConflict("operação em andamento para este item", nil)
	}
	defer s.locks.release(kind, itemID)

	if note != "" {
		if err := s.observations.Append(ctx, desc, itemID, actor, note); err != nil {
			s.clearPending(kind, itemID)
			return TransitionOutcome{}, err
		}
		if err := s.obsCache.Invalidate(ctx, kind, itemID); err != nil {
			s.logger.Warn("observation cache invalidation failed", zap.String("id", itemID), zap.Error(err))
		}
	}

	switch next {
	case domain.StatusCompleted:
		err = s.items.Finalize(ctx, desc, itemID)
	case domain.StatusCancelled:
		err = s.items.Cancel(ctx, desc, itemID)
	}
	// Win or lose, the parked selection is spent; a failure reverts the
	// control to the last confirmed status.
	s.clearPending(kind, itemID)
	if err != nil {
		return TransitionOutcome{}, err
	}
	s.commit(ctx, kind, itemID, actor, item.Status, next, note)

	item, _ = s.store.Get(kind, itemID)
	return TransitionOutcome{Applied: true, Item: item}, nil
}

// AbandonTransition drops a pending terminal selection without touching
// the item, restoring the control to its stored status.
func (s *StatusService) AbandonTransition(kind, itemID string) (domain.WorkItem, error) {
	item, found := s.store.Get(kind, itemID)
	if !found {
		return domain.WorkItem{}, apperrors.NewNotFound("item", map[string]any{"id": itemID})
	}
	s.clearPending(kind, itemID)
	return item, nil
}

// PendingTransition reports a parked terminal selection, if any.
func (s *StatusService) PendingTransition(kind, itemID string) (domain.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.pending[lockKey(kind, itemID)]
	return status, ok
}

func (s *StatusService) checkTransition(kind, itemID, actor string, next domain.Status) (domain.Descriptor, domain.WorkItem, error) {
	desc, ok := s.registry.Get(kind)
	if !ok {
		return domain.Descriptor{}, domain.WorkItem{}, apperrors.NewNotFound("kind", map[string]any{"kind": kind})
	}
	item, found := s.store.Get(kind, itemID)
	if !found {
		return domain.Descriptor{}, domain.WorkItem{}, apperrors.NewNotFound("item", map[string]any{"id": itemID})
	}
	if item.Owner != actor {
		return domain.Descriptor{}, domain.WorkItem{}, apperrors.NewForbidden("apenas o responsável pode alterar o status")
	}
	if item.Status == next {
		return domain.Descriptor{}, domain.WorkItem{}, apperrors.NewValidationError("item já está neste status", nil)
	}
	if !domain.CanTransition(item.Status, next) {
		return domain.Descriptor{}, domain.WorkItem{}, apperrors.NewValidationError("transição de status não permitida", map[string]any{
			"de":   string(item.Status),
			"para": string(next),
		})
	}
	return desc, item, nil
}

// commit records a confirmed transition locally. The override keeps the
// new status visible across hydrations until the upstream list reflects
// it.
func (s *StatusService) commit(ctx context.Context, kind, itemID, actor string, old, next domain.Status, note string) {
	s.store.SetStatus(kind, itemID, next)

	if err := s.overrides.Set(ctx, kind, cache.MapStatus, itemID, string(next)); err != nil {
		s.logger.Warn("status override not persisted", zap.String("id", itemID), zap.Error(err))
	}

	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventStatusChanged,
		Kind:      kind,
		ItemID:    itemID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   events.StatusChangedPayload{OldStatus: old, NewStatus: next, Note: note},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(events.EventStatusChanged)), zap.Error(err))
	}
}

func (s *StatusService) clearPending(kind, itemID string) {
	s.mu.Lock()
	delete(s.pending, lockKey(kind, itemID))
	s.mu.Unlock()
}
