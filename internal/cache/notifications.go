package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/opsdesk/console-gateway/internal/domain"
)

// NotificationFeed keeps a capped per-user list of recent workflow
// notifications, newest first.
type NotificationFeed interface {
	Push(ctx context.Context, user string, n domain.Notification) error
	Recent(ctx context.Context, user string) ([]domain.Notification, error)
}

type notificationFeed struct {
	client *redis.Client
	limit  int64
}

// NewNotificationFeed builds a redis-backed feed trimmed to limit entries.
func NewNotificationFeed(client *redis.Client, limit int) NotificationFeed {
	if limit <= 0 {
		limit = 50
	}
	return &notificationFeed{client: client, limit: int64(limit)}
}

func feedKey(user string) string {
	return fmt.Sprintf("notifications:%s", user)
}

func (f *notificationFeed) Push(ctx context.Context, user string, n domain.Notification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	key := feedKey(user)
	pipe := f.client.TxPipeline()
	pipe.LPush(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, f.limit-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (f *notificationFeed) Recent(ctx context.Context, user string) ([]domain.Notification, error) {
	raws, err := f.client.LRange(ctx, feedKey(user), 0, f.limit-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]domain.Notification, 0, len(raws))
	for _, raw := range raws {
		var n domain.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		entries = append(entries, n)
	}
	return entries, nil
}
