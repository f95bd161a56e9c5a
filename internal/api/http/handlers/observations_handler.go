package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/opsdesk/console-gateway/internal/api/dto"
	"github.com/opsdesk/console-gateway/internal/service"
)

// ObservationsHandler exposes an item's observation log.
type ObservationsHandler struct {
	observations *service.ObservationService
}

// NewObservationsHandler constructs handler.
func NewObservationsHandler(observations *service.ObservationService) *ObservationsHandler {
	return &ObservationsHandler{observations: observations}
}

// List handles GET /api/:kind/:id/observations.
func (h *ObservationsHandler) List(c *fiber.Ctx) error {
	entries, err := h.observations.Load(c.UserContext(), c.Params("kind"), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"observacoes": dto.FromObservations(entries)})
}

// Reload handles POST /api/:kind/:id/observations/reload.
func (h *ObservationsHandler) Reload(c *fiber.Ctx) error {
	entries, err := h.observations.Reload(c.UserContext(), c.Params("kind"), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"observacoes": dto.FromObservations(entries)})
}

// Append handles POST /api/:kind/:id/observations.
func (h *ObservationsHandler) Append(c *fiber.Ctx) error {
	actor, err := actorName(c)
	if err != nil {
		return err
	}

	var req dto.ObservationAppendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	entries, err := h.observations.Append(c.UserContext(), c.Params("kind"), c.Params("id"), actor, req.Observacao)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"observacoes": dto.FromObservations(entries)})
}
