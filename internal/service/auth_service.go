package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsdesk/console-gateway/internal/auth"
	"github.com/opsdesk/console-gateway/internal/cache"
	"github.com/opsdesk/console-gateway/internal/config"
	"github.com/opsdesk/console-gateway/internal/domain"
	"github.com/opsdesk/console-gateway/internal/upstream"
	apperrors "github.com/opsdesk/console-gateway/pkg/util"
)

// Session is the result of a successful login or refresh.
type Session struct {
	Profile      domain.Profile `json:"usuario"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

// AuthService proxies credential checks to the upstream login and
// registration services and maintains gateway sessions. Credentials are
// never stored here; only the session profile and a bcrypt hash of the
// refresh token are kept.
type AuthService struct {
	client   upstream.AuthClient
	sessions cache.SessionStore
	tokens   *auth.TokenManager
	cfg      config.AuthConfig
	logger   *zap.Logger
}

// AuthDependencies bundles collaborators.
type AuthDependencies struct {
	Client   upstream.AuthClient
	Sessions cache.SessionStore
	Tokens   *auth.TokenManager
	Config   config.AuthConfig
	Logger   *zap.Logger
}

// NewAuthService creates the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		client:   deps.Client,
		sessions: deps.Sessions,
		tokens:   deps.Tokens,
		cfg:      deps.Config,
		logger:   deps.Logger,
	}
}

// Login validates credentials upstream and opens a gateway session.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, apperrors.NewValidationError("informe e-mail e senha", nil)
	}

	profile, err := s.client.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	if profile.Nome == "" {
		return Session{}, apperrors.NewUpstreamError("resposta de login sem usuário", nil)
	}

	session, err := s.openSession(ctx, profile)
	if err != nil {
		return Session{}, err
	}
	s.logger.Info("user logged in", zap.String("nome", profile.Nome))
	return session, nil
}

// Register forwards a registration request upstream.
func (s *AuthService) Register(ctx context.Context, req upstream.RegisterRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Usuario = strings.TrimSpace(req.Usuario)
	if req.Email == "" || req.Usuario == "" || req.Senha == "" {
		return apperrors.NewValidationError("preencha todos os campos", nil)
	}
	if req.Senha != req.ConfirmarSenha {
		return apperrors.NewValidationError("as senhas não coincidem", nil)
	}
	return s.client.Register(ctx, req)
}

// Refresh exchanges a valid refresh token for a new session.
func (s *AuthService) Refresh(ctx context.Context, nome, refreshToken string) (Session, error) {
	if nome == "" || refreshToken == "" {
		return Session{}, apperrors.NewValidationError("informe usuário e refresh token", nil)
	}

	hash, err := s.sessions.GetRefreshHash(ctx, nome)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return Session{}, apperrors.NewUnauthorized("sessão expirada")
		}
		return Session{}, apperrors.MapError(err)
	}
	if err := auth.CompareSecret(hash, refreshToken); err != nil {
		return Session{}, apperrors.NewUnauthorized("refresh token inválido")
	}

	profile, err := s.sessions.GetProfile(ctx, nome)
	if err != nil {
		return Session{}, apperrors.NewUnauthorized("sessão expirada")
	}
	return s.openSession(ctx, *profile)
}

func (s *AuthService) openSession(ctx context.Context, profile domain.Profile) (Session, error) {
	accessToken, expiresAt, err := s.tokens.GenerateToken(profile.Nome, profile.Email)
	if err != nil {
		return Session{}, apperrors.NewInternalError(err)
	}

	refreshToken := uuid.NewString()
	refreshHash, err := auth.HashSecret(refreshToken, s.cfg.BcryptCost)
	if err != nil {
		return Session{}, apperrors.NewInternalError(err)
	}

	refreshTTL := time.Duration(s.cfg.RefreshTokenTTLHours) * time.Hour
	if err := s.sessions.SaveProfile(ctx, &profile, refreshTTL); err != nil {
		return Session{}, apperrors.MapError(err)
	}
	if err := s.sessions.SaveRefreshHash(ctx, profile.Nome, refreshHash, refreshTTL); err != nil {
		return Session{}, apperrors.MapError(err)
	}

	return Session{
		Profile:      profile,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
