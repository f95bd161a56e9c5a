package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opsdesk/console-gateway/internal/domain"
)

// ErrSessionNotFound signals a missing or expired session entry.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists the logged-in user's profile blob and the hash of
// their current refresh token. One refresh token per user; storing a new
// hash invalidates the previous token.
type SessionStore interface {
	SaveProfile(ctx context.Context, profile *domain.Profile, ttl time.Duration) error
	GetProfile(ctx context.Context, nome string) (*domain.Profile, error)
	SaveRefreshHash(ctx context.Context, nome, hash string, ttl time.Duration) error
	GetRefreshHash(ctx context.Context, nome string) (string, error)
}

type sessionStore struct {
	client *redis.Client
}

// NewSessionStore builds a redis-backed session store.
func NewSessionStore(client *redis.Client) SessionStore {
	return &sessionStore{client: client}
}

func profileKey(nome string) string {
	return fmt.Sprintf("session:profile:%s", nome)
}

func refreshKey(nome string) string {
	return fmt.Sprintf("session:refresh:%s", nome)
}

func (s *sessionStore) SaveProfile(ctx context.Context, profile *domain.Profile, ttl time.Duration) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, profileKey(profile.Nome), raw, ttl).Err()
}

func (s *sessionStore) GetProfile(ctx context.Context, nome string) (*domain.Profile, error) {
	raw, err := s.client.Get(ctx, profileKey(nome)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var profile domain.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *sessionStore) SaveRefreshHash(ctx context.Context, nome, hash string, ttl time.Duration) error {
	return s.client.Set(ctx, refreshKey(nome), hash, ttl).Err()
}

func (s *sessionStore) GetRefreshHash(ctx context.Context, nome string) (string, error) {
	hash, err := s.client.Get(ctx, refreshKey(nome)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	return hash, err
}
