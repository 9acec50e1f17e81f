package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlink/internal/shortener"
)

// PostgresStore keeps links and the click ledger in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) InsertIfAbsent(ctx context.Context, link *shortener.Link) (*shortener.Link, bool, error) {
	query := `
		INSERT INTO links (alias, url, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (alias) DO NOTHING
		RETURNING alias, url, created_at
	`

	var inserted shortener.Link

	err := p.pool.QueryRow(ctx, query, string(link.Alias), link.TargetURL, link.CreatedAt).Scan(
		&inserted.Alias,
		&inserted.TargetURL,
		&inserted.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, unavailable(err)
	}

	return &inserted, true, nil
}

func (p *PostgresStore) GetByAlias(ctx context.Context, alias shortener.Alias) (*shortener.Link, error) {
	query := `
		SELECT alias, url, created_at
		FROM links
		WHERE alias = $1
	`

	var link shortener.Link

	err := p.pool.QueryRow(ctx, query, string(alias)).Scan(
		&link.Alias,
		&link.TargetURL,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, unavailable(err)
	}

	return &link, nil
}

// AppendClicks copies the whole batch inside one transaction.
func (p *PostgresStore) AppendClicks(ctx context.Context, at time.Time, counts map[shortener.Alias]int64) error {
	if len(counts) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(counts))
	for alias, n := range counts {
		rows = append(rows, []any{string(alias), at, n})
	}

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"clicks"}, []string{"alias", "ts", "n"}, pgx.CopyFromRows(rows))

		return err
	})
	if err != nil {
		return unavailable(err)
	}

	return nil
}

func (p *PostgresStore) TotalClicks(ctx context.Context, alias shortener.Alias) (int64, error) {
	var total int64

	err := p.pool.QueryRow(ctx, `SELECT COALESCE(SUM(n), 0)::BIGINT FROM clicks WHERE alias = $1`, string(alias)).
		Scan(&total)
	if err != nil {
		return 0, unavailable(err)
	}

	return total, nil
}

// Ping reports whether the database is reachable.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", shortener.ErrStoreUnavailable, err)
}
