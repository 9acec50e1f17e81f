package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 database/sql driver
	"github.com/serroba/shortlink/internal/shortener"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS links (
	alias      TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS clicks (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	alias TEXT NOT NULL,
	ts    TIMESTAMP NOT NULL,
	n     INTEGER NOT NULL CHECK (n > 0)
);

CREATE INDEX IF NOT EXISTS clicks_alias_idx ON clicks (alias);
`

// SQLiteStore keeps links and the click ledger in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. Use ":memory:" for a
// throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	if path != ":memory:" {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite serialises writers; one connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) InsertIfAbsent(ctx context.Context, link *shortener.Link) (*shortener.Link, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO links (alias, url, created_at) VALUES (?, ?, ?) ON CONFLICT (alias) DO NOTHING`,
		string(link.Alias), link.TargetURL, link.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, false, unavailable(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, unavailable(err)
	}

	if affected == 0 {
		return nil, false, nil
	}

	inserted := *link

	return &inserted, true, nil
}

func (s *SQLiteStore) GetByAlias(ctx context.Context, alias shortener.Alias) (*shortener.Link, error) {
	var link shortener.Link

	err := s.db.QueryRowContext(ctx,
		`SELECT alias, url, created_at FROM links WHERE alias = ?`, string(alias),
	).Scan(&link.Alias, &link.TargetURL, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, unavailable(err)
	}

	return &link, nil
}

func (s *SQLiteStore) AppendClicks(ctx context.Context, at time.Time, counts map[shortener.Alias]int64) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(err)
	}

	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO clicks (alias, ts, n) VALUES (?, ?, ?)`)
	if err != nil {
		return unavailable(err)
	}

	defer stmt.Close()

	for alias, n := range counts {
		if _, err = stmt.ExecContext(ctx, string(alias), at.UTC(), n); err != nil {
			return unavailable(err)
		}
	}

	if err = tx.Commit(); err != nil {
		return unavailable(err)
	}

	return nil
}

func (s *SQLiteStore) TotalClicks(ctx context.Context, alias shortener.Alias) (int64, error) {
	var total int64

	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(n), 0) FROM clicks WHERE alias = ?`, string(alias),
	).Scan(&total)
	if err != nil {
		return 0, unavailable(err)
	}

	return total, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Shutdown closes the database.
func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}
