// Package cache opens the optional Redis backing the idempotency middleware
// and the oracle notification inboxes.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// OpenRedis connects and pings. An empty addr means Redis is disabled and
// returns (nil, nil).
func OpenRedis(ctx context.Context, addr string, db int, log *zap.Logger) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis %s db=%d: %w", addr, db, err)
	}
	log.Info("redis connected", zap.String("addr", addr), zap.Int("db", db))
	return r, nil
}
