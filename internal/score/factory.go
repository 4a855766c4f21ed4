package score

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/annel0/maze-chase/internal/cache"
	"github.com/annel0/maze-chase/internal/config"
	"github.com/annel0/maze-chase/internal/logging"
)

// ErrUnknownBackend возвращается Open для неизвестного имени бэкенда или кеша
var ErrUnknownBackend = errors.New("unknown score backend")

// Open открывает бэкенд из конфигурации и при необходимости оборачивает его кешем.
// Если бэкенд недоступен, возвращает MemoryStore и пишет предупреждение.
func Open(ctx context.Context, cfg config.ScoresConfig) (Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return withCache(ctx, store, cfg)
}

func openBackend(ctx context.Context, cfg config.ScoresConfig) (Store, error) {
	backend := strings.ToLower(cfg.GetBackend())
	log := logging.GetScoreLogger()

	var (
		store Store
		err   error
	)
	switch backend {
	case "memory":
		return NewMemoryStore(), nil
	case "badger":
		store, err = NewBadgerStore(cfg.Path)
	case "redis":
		store, err = NewRedisStore(ctx, cfg.GetRedisAddr(), cfg.RedisKey)
	case "maria", "mysql":
		store, err = NewMariaStore(ctx, cfg.GetMariaDSN(), "scores")
	case "mongo":
		store, err = NewMongoStore(ctx, cfg.GetMongoURI(), cfg.MongoDB, "scores")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}

	if err != nil {
		log.Warn("⚠️ Бэкенд рекордов %s недоступен, используем память: %v", backend, err)
		return NewMemoryStore(), nil
	}

	log.Info("🏁 Таблица рекордов: %s", backend)
	return store, nil
}

// withCache оборачивает store кешем таблицы. Недоступный Redis или NATS не мешают работе.
func withCache(ctx context.Context, store Store, cfg config.ScoresConfig) (Store, error) {
	kind := strings.ToLower(cfg.GetCache())
	log := logging.GetScoreLogger()

	var c cache.Cache
	switch kind {
	case "", "none":
		return store, nil
	case "memory":
		c = cache.NewMemoryCache()
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cfg.GetRedisAddr(), cfg.RedisKey+":cache:", nil)
		if err != nil {
			log.Warn("⚠️ Redis-кеш недоступен, используем память: %v", err)
			c = cache.NewMemoryCache()
		} else {
			c = rc
		}
	default:
		store.Close()
		return nil, fmt.Errorf("%w: cache %q", ErrUnknownBackend, kind)
	}

	var inv cache.Invalidator
	if url := cfg.GetInvalidationURL(); url != "" {
		ni, err := cache.NewNATSInvalidator(url, "", uuid.NewString())
		if err != nil {
			log.Warn("⚠️ Инвалидация кеша отключена: %v", err)
		} else {
			inv = ni
		}
	}

	cs, err := NewCachedStore(store, c, inv, cfg.CacheTTL())
	if err != nil {
		if inv != nil {
			inv.Close()
		}
		c.Close()
		store.Close()
		return nil, err
	}
	return cs, nil
}
