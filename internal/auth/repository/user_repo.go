package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unitledger/inventory-backend/internal/auth/domain"
)

const (
	userKeyPrefix  = "inv:user:"       // inv:user:{id} -> user record
	emailKeyPrefix = "inv:user:email:" // inv:user:email:{email} -> id
	roleSetPrefix  = "inv:users:role:" // inv:users:role:{ROLE} -> set of ids
	userSeqKey     = "inv:seq:user"
)

// userRecord is the stored form; it keeps the password hash out of domain.User.
type userRecord struct {
	domain.User
	PasswordHash []byte `json:"password_hash"`
}

// UserRepository handles Redis operations for users
type UserRepository struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) *UserRepository {
	return &UserRepository{client: client}
}

// Create stores a new user. The email must not be taken.
func (r *UserRepository) Create(ctx context.Context, user *domain.User, passwordHash []byte) error {
	email := normalizeEmail(user.Email)
	user.Email = email

	id, err := r.client.Incr(ctx, userSeqKey).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate user id: %w", err)
	}

	// claim the email first so concurrent registrations cannot both win
	claimed, err := r.client.SetNX(ctx, emailKeyPrefix+email, id, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve email: %w", err)
	}
	if !claimed {
		return domain.ErrEmailTaken
	}

	user.ID = id
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(userRecord{User: *user, PasswordHash: passwordHash})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.userKey(id), data, 0)
	pipe.SAdd(ctx, roleSetPrefix+string(user.Role), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	rec, err := r.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return &rec.User, nil
}

// GetCredentials returns the user and stored password hash for email.
func (r *UserRepository) GetCredentials(ctx context.Context, email string) (*domain.User, []byte, error) {
	id, err := r.client.Get(ctx, emailKeyPrefix+normalizeEmail(email)).Int64()
	if err == redis.Nil {
		return nil, nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up email: %w", err)
	}

	rec, err := r.getRecord(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &rec.User, rec.PasswordHash, nil
}

// ListByRoles returns every user holding one of roles, ordered by id.
func (r *UserRepository) ListByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error) {
	seen := map[int64]bool{}
	var ids []int64
	for _, role := range roles {
		members, err := r.client.SMembers(ctx, roleSetPrefix+string(role)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list %s users: %w", role, err)
		}
		for _, m := range members {
			id, err := strconv.ParseInt(m, 10, 64)
			if err != nil || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		rec, err := r.getRecord(ctx, id)
		if err == domain.ErrUserNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, rec.User)
	}
	return users, nil
}

func (r *UserRepository) getRecord(ctx context.Context, id int64) (*userRecord, error) {
	data, err := r.client.Get(ctx, r.userKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &rec, nil
}

func (r *UserRepository) userKey(id int64) string {
	return fmt.Sprintf("%s%d", userKeyPrefix, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
