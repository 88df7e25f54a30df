package redisad

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bizreviews/internal/adapters/observability"
)

// Guard claims a (user, business) pair with SET NX so that only one review
// creation per pair runs at a time across every API instance. The TTL caps
// how long a crashed holder can block the pair.
type Guard struct {
	c   *redis.Client
	ttl time.Duration
}

func New(addr, pass string, db int, ttl time.Duration) *Guard {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), ttl)
}

func NewWithClient(c *redis.Client, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Guard{c: c, ttl: ttl}
}

func claimKey(userID, businessID int64) string {
	return fmt.Sprintf("review-claim:%d:%d", userID, businessID)
}

func (g *Guard) Claim(ctx context.Context, userID, businessID int64) (bool, error) {
	ok, err := g.c.SetNX(ctx, claimKey(userID, businessID), time.Now().UTC().Format(time.RFC3339Nano), g.ttl).Result()
	if err != nil {
		observability.ObserveClaim("error")
		return false, err
	}
	if !ok {
		observability.ObserveClaim("held")
		return false, nil
	}
	observability.ObserveClaim("claimed")
	return true, nil
}

func (g *Guard) Release(ctx context.Context, userID, businessID int64) error {
	observability.ObserveClaim("released")
	return g.c.Del(ctx, claimKey(userID, businessID)).Err()
}

func (g *Guard) Ping(ctx context.Context) error { return g.c.Ping(ctx).Err() }

func (g *Guard) Close() error { return g.c.Close() }
