package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/opsdesk/console-gateway/internal/api/dto"
	"github.com/opsdesk/console-gateway/internal/service"
	"github.com/opsdesk/console-gateway/internal/upstream"
)

// SessionHandler exposes login, registration and session refresh.
type SessionHandler struct {
	auth *service.AuthService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(authService *service.AuthService) *SessionHandler {
	return &SessionHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Senha)
	if err != nil {
		return err
	}
	return c.JSON(sessionResponse(session))
}

// Register handles POST /auth/register.
func (h *SessionHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	err := h.auth.Register(c.UserContext(), upstream.RegisterRequest{
		Email:          req.Email,
		Usuario:        req.Usuario,
		Senha:          req.Senha,
		ConfirmarSenha: req.ConfirmarSenha,
		Avatar:         req.Avatar,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "usuário registrado com sucesso"})
}

// Refresh handles POST /auth/refresh.
func (h *SessionHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	session, err := h.auth.Refresh(c.UserContext(), req.Usuario, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(sessionResponse(session))
}

func sessionResponse(session service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Usuario:      session.Profile,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
	}
}
