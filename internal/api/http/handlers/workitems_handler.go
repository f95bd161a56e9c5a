package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/opsdesk/console-gateway/internal/api/dto"
	"github.com/opsdesk/console-gateway/internal/auth"
	"github.com/opsdesk/console-gateway/internal/domain"
	"github.com/opsdesk/console-gateway/internal/service"
	"github.com/opsdesk/console-gateway/internal/store"
	apperrors "github.com/opsdesk/console-gateway/pkg/util"
)

// WorkItemsHandler exposes the board and the claim/status workflow for
// one path parameter kind (chamados or sars).
type WorkItemsHandler struct {
	hydration *service.HydrationService
	claims    *service.ClaimService
	status    *service.StatusService
	store     *store.EntityStore
}

// NewWorkItemsHandler constructs handler.
func NewWorkItemsHandler(hydration *service.HydrationService, claims *service.ClaimService, status *service.StatusService, entityStore *store.EntityStore) *WorkItemsHandler {
	return &WorkItemsHandler{hydration: hydration, claims: claims, status: status, store: entityStore}
}

// List handles GET /api/:kind. The kind hydrates lazily on first access.
func (h *WorkItemsHandler) List(c *fiber.Ctx) error {
	kind := c.Params("kind")
	if err := h.hydration.Ensure(c.UserContext(), kind); err != nil {
		return err
	}

	open, closed := h.store.Partition(kind)
	return c.JSON(dto.BoardResponse{
		Abertos:    dto.FromWorkItems(open),
		Concluidos: dto.FromWorkItems(closed),
	})
}

// Reload handles POST /api/:kind/reload, forcing a fresh hydration.
func (h *WorkItemsHandler) Reload(c *fiber.Ctx) error {
	kind := c.Params("kind")
	if err := h.hydration.Hydrate(c.UserContext(), kind); err != nil {
		return err
	}

	open, closed := h.store.Partition(kind)
	return c.JSON(dto.BoardResponse{
		Abertos:    dto.FromWorkItems(open),
		Concluidos: dto.FromWorkItems(closed),
	})
}

// Claim handles PUT /api/:kind/:id/claim.
func (h *WorkItemsHandler) Claim(c *fiber.Ctx) error {
	actor, err := actorName(c)
	if err != nil {
		return err
	}

	item, err := h.claims.Claim(c.UserContext(), c.Params("kind"), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"item": dto.FromWorkItem(item)})
}

// Release handles PUT /api/:kind/:id/release.
func (h *WorkItemsHandler) Release(c *fiber.Ctx) error {
	actor, err := actorName(c)
	if err != nil {
		return err
	}

	item, err := h.claims.Release(c.UserContext(), c.Params("kind"), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"item": dto.FromWorkItem(item)})
}

// RequestStatus handles PUT /api/:kind/:id/status.
func (h *WorkItemsHandler) RequestStatus(c *fiber.Ctx) error {
	actor, err := actorName(c)
	if err != nil {
		return err
	}

	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	next, ok := domain.ParseStatus(req.Status)
	if !ok {
		return apperrors.NewValidationError("status desconhecido", map[string]any{"status": req.Status})
	}

	outcome, err := h.status.RequestTransition(c.UserContext(), c.Params("kind"), c.Params("id"), actor, next)
	if err != nil {
		return err
	}
	return c.JSON(transitionResponse(outcome))
}

// ConfirmStatus handles PUT /api/:kind/:id/status/confirm.
func (h *WorkItemsHandler) ConfirmStatus(c *fiber.Ctx) error {
	actor, err := actorName(c)
	if err != nil {
		return err
	}

	var req dto.StatusConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	next, ok := domain.ParseStatus(req.Status)
	if !ok {
		return apperrors.NewValidationError("status desconhecido", map[string]any{"status": req.Status})
	}

	outcome, err := h.status.ConfirmTransition(c.UserContext(), c.Params("kind"), c.Params("id"), actor, next, req.Observacao)
	if err != nil {
		return err
	}
	return c.JSON(transitionResponse(outcome))
}

// AbandonStatus handles DELETE /api/:kind/:id/status/pending, dropping an
// unconfirmed terminal selection.
func (h *WorkItemsHandler) AbandonStatus(c *fiber.Ctx) error {
	item, err := h.status.AbandonTransition(c.Params("kind"), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"item": dto.FromWorkItem(item)})
}

func transitionResponse(outcome service.TransitionOutcome) dto.TransitionResponse {
	return dto.TransitionResponse{
		Aplicado:         outcome.Applied,
		ExigeConfirmacao: outcome.RequiresConfirmation,
		ExigeObservacao:  outcome.RequiresClosingNote,
		Item:             dto.FromWorkItem(outcome.Item),
	}
}

func actorName(c *fiber.Ctx) (string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return "", apperrors.NewUnauthorized("usuário não autenticado")
	}
	return principal.Profile.Nome, nil
}
