package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitledger/inventory-backend/internal/auth/domain"
	"github.com/unitledger/inventory-backend/internal/testutil"
)

func TestUserRepository_Create(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	repo := NewUserRepository(client)
	ctx := context.Background()

	t.Run("assigns ids and normalizes email", func(t *testing.T) {
		user := &domain.User{Email: "  Dev@Example.com ", Role: domain.RoleDeveloper, FirstName: "Dana"}
		require.NoError(t, repo.Create(ctx, user, []byte("hash")))

		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, "dev@example.com", user.Email)
		assert.False(t, user.CreatedAt.IsZero())

		got, hash, err := repo.GetCredentials(ctx, "DEV@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, []byte("hash"), hash)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &domain.User{Email: "dev@example.com", Role: domain.RoleAgent}, []byte("x"))
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})
}

func TestUserRepository_ConcurrentCreateSameEmail(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	repo := NewUserRepository(client)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(context.Background(), &domain.User{Email: "race@example.com", Role: domain.RoleAgent}, []byte("h"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrEmailTaken)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestUserRepository_GetByID(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	repo := NewUserRepository(client)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, _, err = repo.GetCredentials(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_ListByRoles(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	repo := NewUserRepository(client)
	ctx := context.Background()

	for _, u := range []*domain.User{
		{Email: "a1@example.com", Role: domain.RoleAgent},
		{Email: "d1@example.com", Role: domain.RoleDeveloper},
		{Email: "admin@example.com", Role: domain.RoleAdmin},
		{Email: "a2@example.com", Role: domain.RoleAgent},
	} {
		require.NoError(t, repo.Create(ctx, u, []byte("h")))
	}

	users, err := repo.ListByRoles(ctx, domain.RoleAgent, domain.RoleAdmin, domain.RoleAgent)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "a1@example.com", users[0].Email)
	assert.Equal(t, "admin@example.com", users[1].Email)
	assert.Equal(t, "a2@example.com", users[2].Email)

	none, err := repo.ListByRoles(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)
}
