package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"workforce-service/internal/models"
)

// GrantCache caches a staff member's active privilege grants in Redis.
// A short TTL bounds staleness from out-of-band grant mutations.
type GrantCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGrantCache creates a new grant cache instance. When Redis is not
// reachable at startup the cache is returned with a nil client and every
// operation becomes a no-op, so privilege checks degrade to direct
// database reads instead of failing.
func NewGrantCache(host string, port int, password string, db int, ttlSeconds int) (*GrantCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return &GrantCache{
			client: nil,
			ttl:    time.Duration(ttlSeconds) * time.Second,
		}, nil
	}

	return &GrantCache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func (c *GrantCache) cacheKey(branchID, staffID uuid.UUID) string {
	return fmt.Sprintf("grants:%s:%s", branchID.String(), staffID.String())
}

// Get retrieves the cached grant list for a staff member in a branch.
// Returns (nil, nil) on a miss or when the cache is unavailable.
func (c *GrantCache) Get(ctx context.Context, branchID, staffID uuid.UUID) ([]models.PrivilegeGrant, error) {
	if c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, c.cacheKey(branchID, staffID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var grants []models.PrivilegeGrant
	if err := json.Unmarshal(data, &grants); err != nil {
		return nil, err
	}
	return grants, nil
}

// Set caches the grant list for a staff member in a branch
func (c *GrantCache) Set(ctx context.Context, branchID, staffID uuid.UUID, grants []models.PrivilegeGrant) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(grants)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.cacheKey(branchID, staffID), data, c.ttl).Err()
}

// Invalidate removes the cached grant list for a staff member in a branch
func (c *GrantCache) Invalidate(ctx context.Context, branchID, staffID uuid.UUID) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.cacheKey(branchID, staffID)).Err()
}

// InvalidateBranch removes every cached grant list in a branch
func (c *GrantCache) InvalidateBranch(ctx context.Context, branchID uuid.UUID) error {
	if c.client == nil {
		return nil
	}

	pattern := fmt.Sprintf("grants:%s:*", branchID.String())
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}

// Close closes the Redis connection
func (c *GrantCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// IsAvailable returns true if the cache is available
func (c *GrantCache) IsAvailable() bool {
	return c.client != nil
}
