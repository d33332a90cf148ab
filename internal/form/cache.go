package form

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SchemaCache caches resolved public form trees so the application page does
// not hit the database on every render. A miss returns (nil, nil).
type SchemaCache interface {
	Get(ctx context.Context, tenantID int64, code string) (*Form, error)
	Set(ctx context.Context, f *Form) error
	Invalidate(ctx context.Context, tenantID int64, code string) error
}

// RedisSchemaCache stores JSON-encoded form trees in Redis with a TTL.
type RedisSchemaCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSchemaCache creates a cache backed by the given Redis client.
func NewRedisSchemaCache(client *redis.Client, ttl time.Duration) *RedisSchemaCache {
	return &RedisSchemaCache{client: client, ttl: ttl}
}

func cacheKey(tenantID int64, code string) string {
	return fmt.Sprintf("form:schema:%d:%s", tenantID, code)
}

func (c *RedisSchemaCache) Get(ctx context.Context, tenantID int64, code string) (*Form, error) {
	data, err := c.client.Get(ctx, cacheKey(tenantID, code)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached schema: %w", err)
	}

	var f Form
	if err := json.Unmarshal(data, &f); err != nil {
		// Treat a corrupt entry as a miss; the next Set overwrites it.
		return nil, nil
	}
	return &f, nil
}

func (c *RedisSchemaCache) Set(ctx context.Context, f *Form) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(f.TenantID, f.PublicCode), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache schema: %w", err)
	}
	return nil
}

func (c *RedisSchemaCache) Invalidate(ctx context.Context, tenantID int64, code string) error {
	if err := c.client.Del(ctx, cacheKey(tenantID, code)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached schema: %w", err)
	}
	return nil
}

// NoopSchemaCache disables caching. Used when no Redis address is configured.
type NoopSchemaCache struct{}

func (NoopSchemaCache) Get(ctx context.Context, tenantID int64, code string) (*Form, error) {
	return nil, nil
}

func (NoopSchemaCache) Set(ctx context.Context, f *Form) error { return nil }

func (NoopSchemaCache) Invalidate(ctx context.Context, tenantID int64, code string) error {
	return nil
}
