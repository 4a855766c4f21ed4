package score

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// MariaStore реализует Store для MariaDB/MySQL.
// Имя игрока первичный ключ, поэтому на каждое имя одна строка.
type MariaStore struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// NewMariaStore подключается к базе и создаёт таблицу, если её нет.
// dsn должен содержать parseTime=true.
func NewMariaStore(ctx context.Context, dsn, table string) (*MariaStore, error) {
	if table == "" {
		table = "scores"
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("недопустимое имя таблицы %q", table)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	store := &MariaStore{db: db, table: table, now: time.Now}
	if err := store.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (m *MariaStore) createTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name        VARCHAR(%d)  PRIMARY KEY,
			score       INT          NOT NULL,
			recorded_at DATETIME(6)  NOT NULL,
			INDEX idx_score (score)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
	`, m.table, MaxNameLength)

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы %s: %w", m.table, err)
	}
	return nil
}

// Save использует INSERT ... ON DUPLICATE KEY UPDATE с GREATEST.
// recorded_at обновляется раньше score: MySQL вычисляет присваивания слева направо.
func (m *MariaStore) Save(ctx context.Context, name string, score int) error {
	name = NormalizeName(name)
	if err := Validate(name, score); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name, score, recorded_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			recorded_at = IF(VALUES(score) > score, VALUES(recorded_at), recorded_at),
			score       = GREATEST(score, VALUES(score))
	`, m.table)

	if _, err := m.db.ExecContext(ctx, query, name, score, m.now().UTC()); err != nil {
		return fmt.Errorf("ошибка сохранения счёта: %w", err)
	}
	return nil
}

// Best возвращает лучший счёт игрока
func (m *MariaStore) Best(ctx context.Context, name string) (Entry, error) {
	query := fmt.Sprintf(`SELECT name, score, recorded_at FROM %s WHERE name = ?`, m.table)

	var e Entry
	err := m.db.QueryRowContext(ctx, query, NormalizeName(name)).Scan(&e.Name, &e.Score, &e.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("ошибка чтения счёта: %w", err)
	}
	return e, nil
}

// Top возвращает лучшие записи
func (m *MariaStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	query := fmt.Sprintf(`SELECT name, score, recorded_at FROM %s ORDER BY score DESC, recorded_at ASC, name ASC`, m.table)
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения таблицы рекордов: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Score, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("ошибка разбора строки: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Clear удаляет таблицу
func (m *MariaStore) Clear(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, m.table))
	return err
}

// Close закрывает пул соединений
func (m *MariaStore) Close() error {
	return m.db.Close()
}
