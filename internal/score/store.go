// Package score хранит таблицу рекордов: лучший результат для каждого имени.
//
// Бэкенды взаимозаменяемы и проходят один и тот же набор проверок:
// память, BadgerDB, Redis, MariaDB и MongoDB.
package score

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameLength максимальная длина имени в символах
const MaxNameLength = 12

var (
	// ErrInvalidEntry возвращается для пустого или слишком длинного имени и отрицательного счёта
	ErrInvalidEntry = errors.New("invalid score entry")
	// ErrNotFound возвращается, если для имени нет записи
	ErrNotFound = errors.New("score not found")
)

// Entry запись таблицы рекордов
type Entry struct {
	Name       string    `json:"name" bson:"name"`
	Score      int       `json:"score" bson:"score"`
	RecordedAt time.Time `json:"recorded_at" bson:"recorded_at"`
}

// Store таблица рекордов. Save хранит только лучший счёт для имени.
type Store interface {
	// Save сохраняет счёт, если он лучше уже сохранённого
	Save(ctx context.Context, name string, score int) error

	// Best возвращает лучший счёт игрока или ErrNotFound
	Best(ctx context.Context, name string) (Entry, error)

	// Top возвращает лучшие записи по убыванию счёта. limit <= 0 означает все записи.
	Top(ctx context.Context, limit int) ([]Entry, error)

	Close() error
}

// NormalizeName обрезает пробелы по краям
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// Validate проверяет запись перед сохранением
func Validate(name string, score int) error {
	n := utf8.RuneCountInString(name)
	switch {
	case n == 0:
		return fmt.Errorf("%w: empty name", ErrInvalidEntry)
	case n > MaxNameLength:
		return fmt.Errorf("%w: name %q longer than %d", ErrInvalidEntry, name, MaxNameLength)
	case score < 0:
		return fmt.Errorf("%w: negative score %d", ErrInvalidEntry, score)
	}
	return nil
}

// sortEntries упорядочивает по счёту, при равенстве раньше записанные выше
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.RecordedAt.Equal(b.RecordedAt) {
			return a.RecordedAt.Before(b.RecordedAt)
		}
		return a.Name < b.Name
	})
}

func limitEntries(entries []Entry, limit int) []Entry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
