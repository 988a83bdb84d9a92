package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// FreeQuota tracks how many free-coupon registrations have been taken,
// backed by an atomic Redis counter so two requests racing at the capacity
// boundary cannot both slip under the cap. The counter is seeded lazily
// from the registration store so a flushed Redis converges back to the
// persisted truth.
type FreeQuota struct {
	rdb      *redis.Client
	key      string
	capacity int
	seed     func(ctx context.Context) (int, error)
}

func NewFreeQuota(rdb *redis.Client, key string, capacity int, seed func(ctx context.Context) (int, error)) *FreeQuota {
	return &FreeQuota{rdb: rdb, key: key, capacity: capacity, seed: seed}
}

// Used returns the current number of consumed free slots.
func (q *FreeQuota) Used(ctx context.Context) (int, error) {
	used, err := q.rdb.Get(ctx, q.key).Int()
	if errors.Is(err, redis.Nil) {
		return q.reseed(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("read free quota: %w", err)
	}
	return used, nil
}

// Reserve atomically claims one free slot. Returns false when the capacity
// is already exhausted; the failed claim is rolled back so the counter
// never drifts past the cap.
func (q *FreeQuota) Reserve(ctx context.Context) (bool, error) {
	if _, err := q.Used(ctx); err != nil { // ensure the key is seeded
		return false, err
	}

	n, err := q.rdb.Incr(ctx, q.key).Result()
	if err != nil {
		return false, fmt.Errorf("reserve free slot: %w", err)
	}
	if n > int64(q.capacity) {
		if err := q.rdb.Decr(ctx, q.key).Err(); err != nil {
			return false, fmt.Errorf("release over-cap slot: %w", err)
		}
		return false, nil
	}
	return true, nil
}

func (q *FreeQuota) reseed(ctx context.Context) (int, error) {
	used, err := q.seed(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed free quota: %w", err)
	}
	// SetNX so a concurrent reseed or reservation wins over our snapshot
	if err := q.rdb.SetNX(ctx, q.key, used, 0).Err(); err != nil {
		return 0, fmt.Errorf("store free quota seed: %w", err)
	}
	return used, nil
}
