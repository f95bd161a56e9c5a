package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsdesk/console-gateway/internal/cache"
	"github.com/opsdesk/console-gateway/internal/domain"
	"github.com/opsdesk/console-gateway/internal/events"
)

// NotificationService turns workflow events into per-user feed entries,
// the server-side counterpart of the console's toast messages.
type NotificationService struct {
	dispatcher events.Dispatcher
	feed       cache.NotificationFeed
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, feed cache.NotificationFeed, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		feed:       feed,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventItemClaimed, n.handleItemClaimed)
	n.dispatcher.Subscribe(events.EventItemReleased, n.handleItemReleased)
	n.dispatcher.Subscribe(events.EventClaimConflict, n.handleClaimConflict)
	n.dispatcher.Subscribe(events.EventStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventObservationAdded, n.handleObservationAdded)
}

// Recent returns the user's latest notifications, newest first.
func (n *NotificationService) Recent(ctx context.Context, user string) ([]domain.Notification, error) {
	return n.feed.Recent(ctx, user)
}

func (n *NotificationService) handleItemClaimed(ctx context.Context, event events.Event) error {
	n.push(ctx, event, domain.NotificationSuccess,
		fmt.Sprintf("Item %s assumido com sucesso", event.ItemID))
	return nil
}

func (n *NotificationService) handleItemReleased(ctx context.Context, event events.Event) error {
	n.push(ctx, event, domain.NotificationSuccess,
		fmt.Sprintf("Item %s liberado", event.ItemID))
	return nil
}

func (n *NotificationService) handleClaimConflict(ctx context.Context, event events.Event) error {
	message := fmt.Sprintf("Item %s já foi assumido por outro usuário", event.ItemID)
	if payload, ok := event.Payload.(events.ClaimConflictPayload); ok && payload.CurrentOwner != "" {
		message = fmt.Sprintf("Item %s já foi assumido por %s", event.ItemID, payload.CurrentOwner)
	}
	n.push(ctx, event, domain.NotificationError, message)
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	message := fmt.Sprintf("Status do item %s atualizado", event.ItemID)
	if payload, ok := event.Payload.(events.StatusChangedPayload); ok {
		switch payload.NewStatus {
		case domain.StatusCompleted:
			message = fmt.Sprintf("Item %s concluído com sucesso", event.ItemID)
		case domain.StatusCancelled:
			message = fmt.Sprintf("Item %s cancelado", event.ItemID)
		default:
			message = fmt.Sprintf("Item %s movido para %s", event.ItemID, payload.NewStatus)
		}
	}
	n.push(ctx, event, domain.NotificationSuccess, message)
	return nil
}

func (n *NotificationService) handleObservationAdded(ctx context.Context, event events.Event) error {
	n.push(ctx, event, domain.NotificationInfo,
		fmt.Sprintf("Observação registrada no item %s", event.ItemID))
	return nil
}

func (n *NotificationService) push(ctx context.Context, event events.Event, level domain.NotificationLevel, message string) {
	if event.Actor == "" {
		return
	}
	notification := domain.Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := n.feed.Push(ctx, event.Actor, notification); err != nil {
		n.logger.Warn("notification push failed",
			zap.String("user", event.Actor),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
