package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// BalanceCache implements ports.BalanceCache using Redis. It holds the
// current balance per wallet lineage as a fast read path; the version store
// stays authoritative and every append invalidates the entry.
type BalanceCache struct {
	client *goredis.Client
	prefix string
}

// NewBalanceCache creates a new Redis-backed balance cache.
func NewBalanceCache(client *goredis.Client) *BalanceCache {
	return &BalanceCache{
		client: client,
		prefix: "balance:",
	}
}

// Get retrieves a cached balance by wallet ID.
// Returns nil, nil if the key does not exist.
func (c *BalanceCache) Get(ctx context.Context, walletID uuid.UUID) (*decimal.Decimal, error) {
	val, err := c.client.Get(ctx, c.prefix+walletID.String()).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis balance get: %w", err)
	}

	balance, err := decimal.NewFromString(val)
	if err != nil {
		return nil, fmt.Errorf("redis balance parse: %w", err)
	}
	return &balance, nil
}

// Set stores a balance snapshot with TTL.
func (c *BalanceCache) Set(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+walletID.String(), balance.String(), ttl).Err()
	if err != nil {
		return fmt.Errorf("redis balance set: %w", err)
	}
	return nil
}

// Invalidate drops the cached balance for a wallet lineage.
func (c *BalanceCache) Invalidate(ctx context.Context, walletID uuid.UUID) error {
	err := c.client.Del(ctx, c.prefix+walletID.String()).Err()
	if err != nil {
		return fmt.Errorf("redis balance invalidate: %w", err)
	}
	return nil
}
