package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unitledger/inventory-backend/internal/ingestion"
	"github.com/unitledger/inventory-backend/internal/uploads/domain"
)

const (
	uploadKeyPrefix     = "inv:upload:" // inv:upload:{id} -> upload log JSON
	developerUploadsFmt = "inv:developer:%d:uploads"
	uploadSeqKey        = "inv:seq:upload"
)

// UploadLogRepository handles Redis operations for upload logs. Each
// developer has a sorted set of upload ids scored by creation time.
type UploadLogRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewUploadLogRepository(client *redis.Client) *UploadLogRepository {
	return &UploadLogRepository{client: client, now: time.Now}
}

// Create stores a new PROCESSING log.
func (r *UploadLogRepository) Create(ctx context.Context, log *domain.UploadLog) error {
	id, err := r.client.Incr(ctx, uploadSeqKey).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate upload id: %w", err)
	}

	now := r.now().UTC()
	log.ID = id
	log.Status = domain.StatusProcessing
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now

	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal upload log: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(id), data, 0)
	pipe.ZAdd(ctx, fmt.Sprintf(developerUploadsFmt, log.DeveloperID), redis.Z{
		Score:  float64(log.CreatedAt.UnixMilli()),
		Member: id,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create upload log: %w", err)
	}
	return nil
}

// Complete marks a log COMPLETED with the pipeline summary.
func (r *UploadLogRepository) Complete(ctx context.Context, id int64, summary ingestion.Summary) (*domain.UploadLog, error) {
	return r.finish(ctx, id, func(log *domain.UploadLog) {
		log.Status = domain.StatusCompleted
		log.ProjectsProcessed = summary.ProjectsProcessed
		log.UnitsProcessed = summary.UnitsProcessed
		log.Summary = &summary
	})
}

// Fail marks a log FAILED, recording the error message.
func (r *UploadLogRepository) Fail(ctx context.Context, id int64, message string) (*domain.UploadLog, error) {
	return r.finish(ctx, id, func(log *domain.UploadLog) {
		log.Status = domain.StatusFailed
		log.ErrorDetails = map[string]string{"error": message}
	})
}

// finish applies the terminal transition under WATCH so a log is finished
// at most once.
func (r *UploadLogRepository) finish(ctx context.Context, id int64, apply func(*domain.UploadLog)) (*domain.UploadLog, error) {
	key := r.key(id)
	var log domain.UploadLog

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return domain.ErrUploadNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get upload log: %w", err)
		}
		if err := json.Unmarshal(data, &log); err != nil {
			return fmt.Errorf("failed to unmarshal upload log: %w", err)
		}
		if log.IsFinished() {
			return domain.ErrAlreadyFinished
		}

		apply(&log)
		now := r.now().UTC()
		log.UpdatedAt = now
		log.CompletedAt = &now

		data, err = json.Marshal(&log)
		if err != nil {
			return fmt.Errorf("failed to marshal upload log: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	if err := r.client.Watch(ctx, txf, key); err != nil {
		return nil, err
	}
	return &log, nil
}

// GetByID retrieves an upload log by id
func (r *UploadLogRepository) GetByID(ctx context.Context, id int64) (*domain.UploadLog, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrUploadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get upload log: %w", err)
	}

	var log domain.UploadLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("failed to unmarshal upload log: %w", err)
	}
	return &log, nil
}

// ListByDeveloper returns a developer's upload history, newest first.
func (r *UploadLogRepository) ListByDeveloper(ctx context.Context, developerID int64) ([]domain.UploadLog, error) {
	ids, err := r.client.ZRevRange(ctx, fmt.Sprintf(developerUploadsFmt, developerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}

	logs := make([]domain.UploadLog, 0, len(ids))
	if len(ids) == 0 {
		return logs, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = uploadKeyPrefix + id
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load uploads: %w", err)
	}

	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var log domain.UploadLog
		if err := json.Unmarshal([]byte(s), &log); err != nil {
			return nil, fmt.Errorf("failed to unmarshal upload log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// CountSince counts a developer's uploads created at or after since.
func (r *UploadLogRepository) CountSince(ctx context.Context, developerID int64, since time.Time) (int64, error) {
	n, err := r.client.ZCount(ctx,
		fmt.Sprintf(developerUploadsFmt, developerID),
		strconv.FormatInt(since.UnixMilli(), 10),
		"+inf",
	).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count uploads: %w", err)
	}
	return n, nil
}

func (r *UploadLogRepository) key(id int64) string {
	return uploadKeyPrefix + strconv.FormatInt(id, 10)
}
