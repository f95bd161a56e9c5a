package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/opsdesk/console-gateway/internal/auth"
	"github.com/opsdesk/console-gateway/internal/cache"
	"github.com/opsdesk/console-gateway/internal/config"
	"github.com/opsdesk/console-gateway/internal/domain"
	"github.com/opsdesk/console-gateway/internal/upstream"
	apperrors "github.com/opsdesk/console-gateway/pkg/util"
)

type fakeAuthClient struct {
	profile       domain.Profile
	loginErr      error
	registerErr   error
	registerCalls int
	lastRegister  upstream.RegisterRequest
}

func (f *fakeAuthClient) Login(ctx context.Context, email, password string) (domain.Profile, error) {
	if f.loginErr != nil {
		return domain.Profile{}, f.loginErr
	}
	return f.profile, nil
}

func (f *fakeAuthClient) Register(ctx context.Context, req upstream.RegisterRequest) error {
	f.registerCalls++
	f.lastRegister = req
	return f.registerErr
}

type memSessionStore struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
	hashes   map[string]string
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{profiles: map[string]domain.Profile{}, hashes: map[string]string{}}
}

func (s *memSessionStore) SaveProfile(ctx context.Context, profile *domain.Profile, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.Nome] = *profile
	return nil
}

func (s *memSessionStore) GetProfile(ctx context.Context, nome string) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[nome]
	if !ok {
		return nil, cache.ErrSessionNotFound
	}
	return &profile, nil
}

func (s *memSessionStore) SaveRefreshHash(ctx context.Context, nome, hash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[nome] = hash
	return nil
}

func (s *memSessionStore) GetRefreshHash(ctx context.Context, nome string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, ok := s.hashes[nome]
	if !ok {
		return "", cache.ErrSessionNotFound
	}
	return hash, nil
}

var _ cache.SessionStore = (*memSessionStore)(nil)

func newAuthFixture(client *fakeAuthClient) (*AuthService, *memSessionStore) {
	sessions := newMemSessionStore()
	cfg := config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		RefreshTokenTTLHours:  1,
		BcryptCost:            4,
	}
	svc := NewAuthService(AuthDependencies{
		Client:   client,
		Sessions: sessions,
		Tokens:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		Config:   cfg,
		Logger:   zap.NewNop(),
	})
	return svc, sessions
}

func TestLoginOpensSession(t *testing.T) {
	client := &fakeAuthClient{profile: domain.Profile{Nome: "Maria", Email: "maria@example.com"}}
	svc, sessions := newAuthFixture(client)

	session, err := svc.Login(context.Background(), "maria@example.com", "s3nha")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatal("session tokens missing")
	}
	if session.Profile.Nome != "Maria" {
		t.Fatalf("profile = %+v", session.Profile)
	}
	if _, err := sessions.GetProfile(context.Background(), "Maria"); err != nil {
		t.Fatalf("profile not persisted: %v", err)
	}
	// Only a hash of the refresh token may be stored.
	hash, err := sessions.GetRefreshHash(context.Background(), "Maria")
	if err != nil {
		t.Fatalf("refresh hash: %v", err)
	}
	if hash == session.RefreshToken {
		t.Fatal("refresh token stored in plaintext")
	}
	if err := auth.CompareSecret(hash, session.RefreshToken); err != nil {
		t.Fatalf("hash does not match token: %v", err)
	}
}

func TestLoginValidatesInput(t *testing.T) {
	svc, _ := newAuthFixture(&fakeAuthClient{})
	if _, err := svc.Login(context.Background(), "  ", "senha"); err == nil {
		t.Fatal("empty email accepted")
	}
	if _, err := svc.Login(context.Background(), "a@b.c", ""); err == nil {
		t.Fatal("empty password accepted")
	}
}

func TestLoginUpstreamRejection(t *testing.T) {
	client := &fakeAuthClient{loginErr: apperrors.NewUnauthorized("credenciais inválidas")}
	svc, sessions := newAuthFixture(client)

	if _, err := svc.Login(context.Background(), "a@b.c", "errada"); err == nil {
		t.Fatal("expected error")
	}
	if len(sessions.profiles) != 0 {
		t.Fatal("session opened for rejected login")
	}
}

func TestRegisterValidatesPasswordConfirmation(t *testing.T) {
	client := &fakeAuthClient{}
	svc, _ := newAuthFixture(client)

	err := svc.Register(context.Background(), upstream.RegisterRequest{
		Email:          "a@b.c",
		Usuario:        "maria",
		Senha:          "um",
		ConfirmarSenha: "outro",
	})
	if err == nil {
		t.Fatal("mismatched passwords accepted")
	}
	if client.registerCalls != 0 {
		t.Fatal("register forwarded despite mismatch")
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	client := &fakeAuthClient{profile: domain.Profile{Nome: "Maria", Email: "maria@example.com"}}
	svc, _ := newAuthFixture(client)
	ctx := context.Background()

	session, err := svc.Login(ctx, "maria@example.com", "s3nha")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	renewed, err := svc.Refresh(ctx, "Maria", session.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if renewed.AccessToken == "" || renewed.RefreshToken == "" {
		t.Fatal("renewed session incomplete")
	}

	// The old refresh token is rotated out.
	if _, err := svc.Refresh(ctx, "Maria", session.RefreshToken); err == nil {
		t.Fatal("stale refresh token accepted")
	}
}

func TestRefreshRejectsUnknownUser(t *testing.T) {
	svc, _ := newAuthFixture(&fakeAuthClient{})
	if _, err := svc.Refresh(context.Background(), "ninguem", "token"); err == nil {
		t.Fatal("unknown user accepted")
	}
}
