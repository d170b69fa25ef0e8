package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisIndex keeps one Redis set per normalized name. Every Add refreshes
// the set's TTL so active names outlive idle ones.
type RedisIndex struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIndex(client *redis.Client, ttl time.Duration) *RedisIndex {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisIndex{client: client, ttl: ttl}
}

func (i *RedisIndex) Add(ctx context.Context, entityType string, id string, name string) error {
	key := indexKey(entityType, name)
	pipe := i.client.TxPipeline()
	pipe.SAdd(ctx, key, id)
	pipe.Expire(ctx, key, i.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index add %s: %w", key, err)
	}
	return nil
}

func (i *RedisIndex) Remove(ctx context.Context, entityType string, id string, name string) error {
	key := indexKey(entityType, name)
	if err := i.client.SRem(ctx, key, id).Err(); err != nil {
		return fmt.Errorf("index remove %s: %w", key, err)
	}
	return nil
}

func (i *RedisIndex) Lookup(ctx context.Context, entityType string, name string) ([]string, error) {
	key := indexKey(entityType, name)
	ids, err := i.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("index lookup %s: %w", key, err)
	}
	return ids, nil
}

func (i *RedisIndex) Search(ctx context.Context, query string) ([]Hit, error) {
	normalized := NormalizeName(query)
	if normalized == "" {
		return nil, nil
	}

	hits := make([]Hit, 0)
	for _, entityType := range []string{EntityFolder, EntityFile} {
		prefix := "search:" + entityType + "s:"
		iter := i.client.Scan(ctx, 0, prefix+"*"+normalized+"*", 100).Iterator()
		for iter.Next(ctx) {
			key := iter.Val()
			ids, err := i.client.SMembers(ctx, key).Result()
			if err != nil {
				return nil, fmt.Errorf("index search %s: %w", key, err)
			}
			name := strings.TrimPrefix(key, prefix)
			for _, id := range ids {
				hits = append(hits, Hit{ID: id, Name: name, Type: entityType})
			}
		}
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("index search scan: %w", err)
		}
	}

	return hits, nil
}

func (i *RedisIndex) Clear(ctx context.Context) error {
	iter := i.client.Scan(ctx, 0, "search:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := i.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("index clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("index clear scan: %w", err)
	}
	return nil
}
