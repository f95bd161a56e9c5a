package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opsdesk/console-gateway/internal/service"
)

// NotificationsHandler exposes the caller's notification feed.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// Recent handles GET /api/notifications.
func (h *NotificationsHandler) Recent(c *fiber.Ctx) error {
	actor, err := actorName(c)
	if err != nil {
		return err
	}

	entries, err := h.notifications.Recent(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"notificacoes": entries})
}
