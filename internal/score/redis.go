package score

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore хранит рекорды в sorted set, время записи в отдельном hash
type RedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewRedisStore подключается к Redis и проверяет соединение
func NewRedisStore(ctx context.Context, addr, key string) (*RedisStore, error) {
	if key == "" {
		key = "mazechase:scores"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, key: key, now: time.Now}, nil
}

func (r *RedisStore) timesKey() string { return r.key + ":at" }

// Save добавляет счёт через ZADD GT: меньший счёт не перезаписывает больший
func (r *RedisStore) Save(ctx context.Context, name string, score int) error {
	name = NormalizeName(name)
	if err := Validate(name, score); err != nil {
		return err
	}

	changed, err := r.client.ZAddArgs(ctx, r.key, redis.ZAddArgs{
		GT:      true,
		Ch:      true,
		Members: []redis.Z{{Score: float64(score), Member: name}},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}

	if changed > 0 {
		at := strconv.FormatInt(r.now().UTC().UnixNano(), 10)
		if err := r.client.HSet(ctx, r.timesKey(), name, at).Err(); err != nil {
			return fmt.Errorf("failed to save score time: %w", err)
		}
	}
	return nil
}

// Best возвращает лучший счёт игрока
func (r *RedisStore) Best(ctx context.Context, name string) (Entry, error) {
	name = NormalizeName(name)

	s, err := r.client.ZScore(ctx, r.key, name).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get score: %w", err)
	}

	e := Entry{Name: name, Score: int(s)}
	e.RecordedAt = r.recordedAt(ctx, name)
	return e, nil
}

// Top читает ZREVRANGE WITHSCORES
func (r *RedisStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	zs, err := r.client.ZRevRangeWithScores(ctx, r.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read top scores: %w", err)
	}

	out := make([]Entry, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		out = append(out, Entry{Name: name, Score: int(z.Score), RecordedAt: r.recordedAt(ctx, name)})
	}
	return out, nil
}

func (r *RedisStore) recordedAt(ctx context.Context, name string) time.Time {
	raw, err := r.client.HGet(ctx, r.timesKey(), name).Result()
	if err != nil {
		return time.Time{}
	}
	ns, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

// Clear удаляет таблицу рекордов
func (r *RedisStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key, r.timesKey()).Err()
}

// Close закрывает соединение с Redis
func (r *RedisStore) Close() error {
	return r.client.Close()
}
