// internal/common/database/redis.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"nlq-workers/internal/common/config"
	"nlq-workers/internal/models"
)

// RedisClient wraps the Redis client
type RedisClient struct {
	Client *redis.Client
}

// NewRedis creates a new Redis client
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	return &RedisClient{Client: rdb}, nil
}

// Ping tests the Redis connection
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

const schemaKeyPrefix = "nlq:schema:"

// SchemaCache stores introspected table schemas as JSON.
type SchemaCache struct {
	client redis.Cmdable
}

func NewSchemaCache(client redis.Cmdable) *SchemaCache {
	return &SchemaCache{client: client}
}

func schemaKey(table string) string {
	return schemaKeyPrefix + table
}

// GetSchema reports ok=false on a miss.
func (c *SchemaCache) GetSchema(ctx context.Context, table string) (models.TableSchema, bool, error) {
	raw, err := c.client.Get(ctx, schemaKey(table)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.TableSchema{}, false, nil
	}
	if err != nil {
		return models.TableSchema{}, false, fmt.Errorf("get cached schema %s: %w", table, err)
	}

	var schema models.TableSchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return models.TableSchema{}, false, fmt.Errorf("decode cached schema %s: %w", table, err)
	}
	return schema, true, nil
}

// SetSchema caches only available schemas; empty and unavailable results are retried
// on the next request.
func (c *SchemaCache) SetSchema(ctx context.Context, schema models.TableSchema, ttl time.Duration) error {
	if schema.Status != models.SchemaAvailable {
		return nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encode schema %s: %w", schema.Table, err)
	}
	if err := c.client.Set(ctx, schemaKey(schema.Table), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache schema %s: %w", schema.Table, err)
	}
	return nil
}

// Invalidate drops cached schemas for the given tables.
func (c *SchemaCache) Invalidate(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	keys := make([]string, len(tables))
	for i, t := range tables {
		keys[i] = schemaKey(t)
	}
	return c.client.Del(ctx, keys...).Err()
}
