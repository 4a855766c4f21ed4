package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/annel0/maze-chase/internal/logging"
)

// Cache определяет интерфейс кеша байтовых значений с TTL.
//
// Использование:
//
//	c := NewMemoryCache()
//	err = c.Set(ctx, "key", data, 30*time.Second)
//	data, err := c.Get(ctx, "key")
//	err = c.Delete(ctx, "key")
type Cache interface {
	// Get получает значение по ключу.
	// Возвращает ErrCacheMiss если ключ не найден или истёк.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение с указанным TTL.
	// TTL = 0 означает отсутствие истечения.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет ключ и рассылает уведомление об инвалидации, если оно настроено.
	Delete(ctx context.Context, key string) error

	// Close закрывает соединение с кешем.
	Close() error

	// Metrics возвращает метрики кеша.
	Metrics() Metrics
}

// Invalidator рассылает и принимает уведомления об инвалидации между процессами.
type Invalidator interface {
	PublishInvalidation(ctx context.Context, key string) error
	SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error
	Close() error
}

// InvalidationHandler вызывается для каждого чужого уведомления.
type InvalidationHandler func(key string) error

// Metrics содержит метрики производительности кеша.
type Metrics struct {
	Hits     int64
	Misses   int64
	Errors   int64
	HitRatio float64
}

var (
	// ErrCacheMiss ключ не найден
	ErrCacheMiss = errors.New("cache miss")
	// ErrClosed кеш закрыт
	ErrClosed = errors.New("cache closed")
)

// IsCacheMiss проверяет, является ли ошибка промахом кеша.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// counters общие счётчики реализаций
type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

func (c *counters) snapshot() Metrics {
	m := Metrics{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.errors.Load(),
	}
	if total := m.Hits + m.Misses; total > 0 {
		m.HitRatio = float64(m.Hits) / float64(total)
	}
	return m
}

func cacheLog() *logging.Logger {
	return logging.GetComponentLogger("cache")
}
