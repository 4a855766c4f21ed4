package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache реализует Cache используя Redis.
// Все ключи хранятся с общим префиксом, чтобы не пересекаться с таблицей рекордов.
//
// Особенности:
// - Метрики попаданий и промахов
// - Рассылка инвалидации через Invalidator при удалении
type RedisCache struct {
	client      *redis.Client
	prefix      string
	maxTTL      time.Duration
	invalidator Invalidator
	counters
}

// NewRedisCache подключается к Redis и проверяет соединение.
//
// Параметры:
//
//	addr - адрес Redis (host:port)
//	prefix - префикс ключей кеша
//	invalidator - опциональный invalidator для Pub/Sub (может быть nil)
func NewRedisCache(ctx context.Context, addr, prefix string, invalidator Invalidator) (*RedisCache, error) {
	if prefix == "" {
		prefix = "mazechase:cache:"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cacheLog().Info("Redis cache initialized: %s (prefix %s)", addr, prefix)
	return &RedisCache{
		client:      rdb,
		prefix:      prefix,
		maxTTL:      time.Hour,
		invalidator: invalidator,
	}, nil
}

// Get получает значение по ключу из Redis.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err == nil {
		r.hits.Add(1)
		return val, nil
	}
	if err == redis.Nil {
		r.misses.Add(1)
		return nil, ErrCacheMiss
	}
	r.errors.Add(1)
	return nil, fmt.Errorf("redis get error: %w", err)
}

// Set сохраняет значение в Redis. TTL ограничен сверху часом.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > r.maxTTL {
		ttl = r.maxTTL
	}
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		r.errors.Add(1)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Delete удаляет ключ из кеша и отправляет уведомление об инвалидации.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.errors.Add(1)
		return fmt.Errorf("redis delete error: %w", err)
	}

	if r.invalidator != nil {
		if err := r.invalidator.PublishInvalidation(ctx, key); err != nil {
			cacheLog().Error("Failed to publish invalidation for key %s: %v", key, err)
		}
	}
	return nil
}

// Close закрывает соединение с Redis.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Metrics возвращает метрики кеша.
func (r *RedisCache) Metrics() Metrics {
	return r.snapshot()
}
