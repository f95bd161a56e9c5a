package dto

import (
	"time"

	"github.com/opsdesk/console-gateway/internal/domain"
)

// LoginRequest payload for login, forwarded to the credentials service.
type LoginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email          string `json:"email"`
	Usuario        string `json:"usuario"`
	Senha          string `json:"senha"`
	ConfirmarSenha string `json:"confirmar_senha"`
	Avatar         string `json:"avatar"`
}

// RefreshRequest exchanges a refresh token for a new session.
type RefreshRequest struct {
	Usuario      string `json:"usuario"`
	RefreshToken string `json:"refresh_token"`
}

// SessionResponse standard response for auth endpoints.
type SessionResponse struct {
	Usuario      domain.Profile `json:"usuario"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresAt    time.Time      `json:"expires_at"`
}
