package score

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
)

const badgerKeyPrefix = "score:"

// BadgerStore встроенное файловое хранилище рекордов на BadgerDB
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

// NewBadgerStore открывает базу в каталоге path
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Отключаем логирование BadgerDB
	return openBadger(opts)
}

// NewBadgerMemoryStore открывает базу без диска
func NewBadgerMemoryStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts)
}

func openBadger(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	return &BadgerStore{db: db, now: time.Now}, nil
}

func badgerKey(name string) []byte {
	return []byte(badgerKeyPrefix + name)
}

// Save сохраняет счёт, если он лучше текущего. Проверка и запись в одной транзакции.
func (b *BadgerStore) Save(ctx context.Context, name string, score int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save canceled: %w", err)
	}
	name = NormalizeName(name)
	if err := Validate(name, score); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		cur, err := readEntry(txn, name)
		switch {
		case err == nil && cur.Score >= score:
			return nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return err
		}

		data, err := json.Marshal(Entry{Name: name, Score: score, RecordedAt: b.now().UTC()})
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		return txn.Set(badgerKey(name), data)
	})
}

// Best возвращает лучший счёт игрока
func (b *BadgerStore) Best(ctx context.Context, name string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, fmt.Errorf("best canceled: %w", err)
	}

	var out Entry
	err := b.db.View(func(txn *badger.Txn) error {
		e, err := readEntry(txn, NormalizeName(name))
		out = e
		return err
	})
	return out, err
}

// Top читает все записи по префиксу и сортирует их
func (b *BadgerStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	var out []Entry

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("top canceled: %w", err)
			}
			var e Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortEntries(out)
	return limitEntries(out, limit), nil
}

// Close закрывает базу
func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func readEntry(txn *badger.Txn, name string) (Entry, error) {
	item, err := txn.Get(badgerKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", name, err)
	}

	var e Entry
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &e)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return e, nil
}
