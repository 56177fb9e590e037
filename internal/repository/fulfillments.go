package repository

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FulfillmentsRepository tracks capture ids that already produced a receipt,
// turning the processor's at-least-once webhook delivery into at-most-once
// donor notification.
type FulfillmentsRepository interface {
	// Claim marks the capture id as fulfilled and reports whether this
	// caller won the claim. A false return means another delivery of the
	// same transaction already went (or is going) through.
	Claim(ctx context.Context, captureID string) (bool, error)
	// Release gives the claim back after a failed delivery so a processor
	// retry can attempt the receipt again.
	Release(ctx context.Context, captureID string) error
}

// RedisFulfillmentsRepository stores claims as SET NX keys with a TTL;
// processors stop redelivering long before the window expires.
type RedisFulfillmentsRepository struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisFulfillmentsRepository(rdb *redis.Client, prefix string, ttl time.Duration) *RedisFulfillmentsRepository {
	if prefix == "" {
		prefix = "fulfilled:"
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisFulfillmentsRepository{rdb: rdb, prefix: prefix, ttl: ttl}
}

var _ FulfillmentsRepository = (*RedisFulfillmentsRepository)(nil)

func (r *RedisFulfillmentsRepository) Claim(ctx context.Context, captureID string) (bool, error) {
	return r.rdb.SetNX(ctx, r.prefix+captureID, 1, r.ttl).Result()
}

func (r *RedisFulfillmentsRepository) Release(ctx context.Context, captureID string) error {
	return r.rdb.Del(ctx, r.prefix+captureID).Err()
}

// MemoryFulfillmentsRepository backs redis-less dev setups and tests.
// Claims survive only for the lifetime of the process.
type MemoryFulfillmentsRepository struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryFulfillmentsRepository() *MemoryFulfillmentsRepository {
	return &MemoryFulfillmentsRepository{seen: make(map[string]struct{})}
}

var _ FulfillmentsRepository = (*MemoryFulfillmentsRepository)(nil)

func (r *MemoryFulfillmentsRepository) Claim(_ context.Context, captureID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[captureID]; ok {
		return false, nil
	}
	r.seen[captureID] = struct{}{}
	return true, nil
}

func (r *MemoryFulfillmentsRepository) Release(_ context.Context, captureID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seen, captureID)
	return nil
}
