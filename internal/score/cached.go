package score

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/annel0/maze-chase/internal/cache"
	"github.com/annel0/maze-chase/internal/logging"
)

const (
	topCacheKey = "scores:top"
	// TopWindow сколько лучших записей держит кеш
	TopWindow = 100
)

// CachedStore кеширует Top поверх любого Store.
// Save сбрасывает кеш, а Invalidator сообщает об этом другим процессам.
type CachedStore struct {
	Store
	cache       cache.Cache
	invalidator cache.Invalidator
	ttl         time.Duration
	log         *logging.Logger
	cancel      context.CancelFunc
}

// NewCachedStore оборачивает store. invalidator может быть nil.
func NewCachedStore(store Store, c cache.Cache, invalidator cache.Invalidator, ttl time.Duration) (*CachedStore, error) {
	cs := &CachedStore{
		Store:       store,
		cache:       c,
		invalidator: invalidator,
		ttl:         ttl,
		log:         logging.GetScoreLogger(),
		cancel:      func() {},
	}

	if invalidator != nil {
		ctx, cancel := context.WithCancel(context.Background())
		err := invalidator.SubscribeInvalidations(ctx, func(key string) error {
			return c.Delete(context.Background(), key)
		})
		if err != nil {
			cancel()
			return nil, err
		}
		cs.cancel = cancel
	}
	return cs, nil
}

// Save записывает счёт и сбрасывает закешированную таблицу
func (cs *CachedStore) Save(ctx context.Context, name string, score int) error {
	if err := cs.Store.Save(ctx, name, score); err != nil {
		return err
	}
	if err := cs.cache.Delete(ctx, topCacheKey); err != nil {
		cs.log.Warn("⚠️ Не удалось сбросить кеш рекордов: %v", err)
	}
	if cs.invalidator != nil {
		if err := cs.invalidator.PublishInvalidation(ctx, topCacheKey); err != nil {
			cs.log.Warn("⚠️ Не удалось разослать инвалидацию: %v", err)
		}
	}
	return nil
}

// Top отдаёт таблицу из кеша. Запросы шире TopWindow идут мимо кеша.
func (cs *CachedStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > TopWindow {
		return cs.Store.Top(ctx, limit)
	}

	data, err := cs.cache.Get(ctx, topCacheKey)
	if err == nil {
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err == nil {
			return limitEntries(entries, limit), nil
		}
		cs.log.Warn("⚠️ Повреждённая запись кеша рекордов, перечитываем")
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		cs.log.Warn("⚠️ Кеш рекордов недоступен: %v", err)
	}

	entries, err := cs.Store.Top(ctx, TopWindow)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(entries); err == nil {
		if err := cs.cache.Set(ctx, topCacheKey, data, cs.ttl); err != nil {
			cs.log.Warn("⚠️ Не удалось закешировать рекорды: %v", err)
		}
	}
	return limitEntries(entries, limit), nil
}

// Close закрывает кеш, рассылку и нижележащий Store
func (cs *CachedStore) Close() error {
	cs.cancel()
	var errs []error
	if cs.invalidator != nil {
		errs = append(errs, cs.invalidator.Close())
	}
	errs = append(errs, cs.cache.Close(), cs.Store.Close())
	return errors.Join(errs...)
}
