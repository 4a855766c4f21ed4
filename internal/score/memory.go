package score

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore хранит рекорды в памяти процесса.
// Используется в тестах и как fallback, когда внешний бэкенд недоступен.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryStore создаёт пустую таблицу рекордов в памяти
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Save сохраняет счёт, если он лучше текущего
func (m *MemoryStore) Save(ctx context.Context, name string, score int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save canceled: %w", err)
	}
	name = NormalizeName(name)
	if err := Validate(name, score); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.entries[name]; ok && cur.Score >= score {
		return nil
	}
	m.entries[name] = Entry{Name: name, Score: score, RecordedAt: m.now().UTC()}
	return nil
}

// Best возвращает лучший счёт игрока
func (m *MemoryStore) Best(ctx context.Context, name string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, fmt.Errorf("best canceled: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[NormalizeName(name)]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// Top возвращает лучшие записи
func (m *MemoryStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("top canceled: %w", err)
	}

	m.mu.RLock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	m.mu.RUnlock()

	sortEntries(out)
	return limitEntries(out, limit), nil
}

// Close ничего не делает
func (m *MemoryStore) Close() error { return nil }
