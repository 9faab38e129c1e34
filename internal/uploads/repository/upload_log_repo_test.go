package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitledger/inventory-backend/internal/ingestion"
	"github.com/unitledger/inventory-backend/internal/testutil"
	"github.com/unitledger/inventory-backend/internal/uploads/domain"
)

func TestUploadLogRepository_Lifecycle(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	repo := NewUploadLogRepository(client)
	ctx := context.Background()

	log := &domain.UploadLog{DeveloperID: 1, Filename: "prices.xlsx", FileSize: 2048}
	require.NoError(t, repo.Create(ctx, log))
	assert.Equal(t, int64(1), log.ID)
	assert.Equal(t, domain.StatusProcessing, log.Status)

	t.Run("complete", func(t *testing.T) {
		summary := ingestion.Summary{ProjectsProcessed: 2, UnitsProcessed: 40, Timestamp: "2025-01-01T00:00:00Z"}
		done, err := repo.Complete(ctx, log.ID, summary)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, done.Status)
		assert.Equal(t, 40, done.UnitsProcessed)
		require.NotNil(t, done.CompletedAt)

		got, err := repo.GetByID(ctx, log.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.ProjectsProcessed)
		require.NotNil(t, got.Summary)
		assert.Equal(t, summary, *got.Summary)
	})

	t.Run("finished logs are immutable", func(t *testing.T) {
		_, err := repo.Fail(ctx, log.ID, "late failure")
		assert.ErrorIs(t, err, domain.ErrAlreadyFinished)

		got, err := repo.GetByID(ctx, log.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, got.Status)
	})

	t.Run("fail", func(t *testing.T) {
		other := &domain.UploadLog{DeveloperID: 1, Filename: "bad.csv"}
		require.NoError(t, repo.Create(ctx, other))

		failed, err := repo.Fail(ctx, other.ID, "Validation failed: Row 2: Unit number is required")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, failed.Status)
		assert.Equal(t, "Validation failed: Row 2: Unit number is required", failed.ErrorDetails["error"])
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrUploadNotFound)
		_, err = repo.Complete(ctx, 999, ingestion.Summary{})
		assert.ErrorIs(t, err, domain.ErrUploadNotFound)
	})
}

func TestUploadLogRepository_HistoryAndCount(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	repo := NewUploadLogRepository(client)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.xlsx", "b.xlsx", "c.xlsx"} {
		created := base.AddDate(0, 0, i*5)
		require.NoError(t, repo.Create(ctx, &domain.UploadLog{DeveloperID: 7, Filename: name, CreatedAt: created}))
	}
	require.NoError(t, repo.Create(ctx, &domain.UploadLog{DeveloperID: 8, Filename: "x.xlsx", CreatedAt: base}))

	history, err := repo.ListByDeveloper(ctx, 7)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "c.xlsx", history[0].Filename)
	assert.Equal(t, "a.xlsx", history[2].Filename)

	n, err := repo.CountSince(ctx, 7, base.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	empty, err := repo.ListByDeveloper(ctx, 99)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
