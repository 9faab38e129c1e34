package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	PingTO   time.Duration
}

// Store is an open Redis connection. Embedded is true when no address was
// configured and an in-process server was started instead; its data does not
// survive a restart.
type Store struct {
	Client   *redis.Client
	Embedded bool
	embedded *miniredis.Miniredis
}

// OpenRedis connects to the configured Redis, or starts an in-process one
// when Addr is empty.
func OpenRedis(ctx context.Context, opt RedisOptions) (*Store, error) {
	if opt.PingTO == 0 {
		opt.PingTO = 2 * time.Second
	}

	st := &Store{}
	addr := opt.Addr
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start embedded redis: %w", err)
		}
		st.embedded = mr
		st.Embedded = true
		addr = mr.Addr()
	}

	st.Client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opt.Password,
		DB:       opt.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, opt.PingTO)
	defer cancel()
	if err := st.Client.Ping(pctx).Err(); err != nil {
		st.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return st, nil
}

// Ping satisfies the health check.
func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	err := s.Client.Close()
	if s.embedded != nil {
		s.embedded.Close()
	}
	return err
}
