package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unitledger/inventory-backend/internal/notifications/domain"
)

const (
	notificationKeyPrefix = "inv:notification:" // inv:notification:{id} -> JSON
	userInboxFmt          = "inv:user:%d:notifications"
	userUnreadFmt         = "inv:user:%d:unread"
	notificationSeqKey    = "inv:seq:notification"
)

// NotificationRepository keeps one inbox per user plus a set of unread ids
// so unread counts stay O(1).
type NotificationRepository struct {
	client *redis.Client
}

func NewNotificationRepository(client *redis.Client) *NotificationRepository {
	return &NotificationRepository{client: client}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	id, err := r.client.Incr(ctx, notificationSeqKey).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate notification id: %w", err)
	}
	n.ID = id
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(id), data, 0)
	pipe.ZAdd(ctx, fmt.Sprintf(userInboxFmt, n.UserID), redis.Z{Score: float64(id), Member: id})
	if !n.IsRead {
		pipe.SAdd(ctx, fmt.Sprintf(userUnreadFmt, n.UserID), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByUser returns a user's notifications, newest first. limit <= 0 means all.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	ids, err := r.client.ZRevRange(ctx, fmt.Sprintf(userInboxFmt, userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Notification{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = notificationKeyPrefix + id
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	out := make([]domain.Notification, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var n domain.Notification
		if err := json.Unmarshal([]byte(s), &n); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

// MarkRead flags a notification as read. Notifications belonging to another
// user are reported as not found.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id int64) (*domain.Notification, error) {
	key := r.key(id)
	var updated domain.Notification

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return domain.ErrNotificationNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get notification: %w", err)
		}
		if err := json.Unmarshal(data, &updated); err != nil {
			return fmt.Errorf("failed to unmarshal notification: %w", err)
		}
		if updated.UserID != userID {
			return domain.ErrNotificationNotFound
		}

		updated.IsRead = true
		data, err = json.Marshal(&updated)
		if err != nil {
			return fmt.Errorf("failed to marshal notification: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SRem(ctx, fmt.Sprintf(userUnreadFmt, userID), id)
			return nil
		})
		return err
	}

	if err := r.client.Watch(ctx, txf, key); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	n, err := r.client.SCard(ctx, fmt.Sprintf(userUnreadFmt, userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

func (r *NotificationRepository) key(id int64) string {
	return notificationKeyPrefix + strconv.FormatInt(id, 10)
}
