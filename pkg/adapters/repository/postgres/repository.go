package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// SQLSTATE unique_violation
const uniqueViolation = "23505"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ ports.LinkStore = (*PostgresRepository)(nil)

func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
	CREATE TABLE IF NOT EXISTS urls (
		id BIGSERIAL PRIMARY KEY,
		original_url TEXT NOT NULL,
		short_code VARCHAR(20) NOT NULL UNIQUE,
		clicks BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_clicked_at TIMESTAMPTZ
	);
	ALTER TABLE urls ADD COLUMN IF NOT EXISTS last_clicked_at TIMESTAMPTZ;
	CREATE INDEX IF NOT EXISTS idx_urls_created_at ON urls(created_at);
	`
	_, err := pool.Exec(ctx, query)
	return err
}

func (r *PostgresRepository) Insert(ctx context.Context, link *domain.Link) error {
	query := `INSERT INTO urls (original_url, short_code, clicks, created_at)
			  VALUES ($1, $2, 0, $3) RETURNING id`

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	link.CreatedAt = link.CreatedAt.UTC()

	err := r.pool.QueryRow(ctx, query, link.OriginalURL, link.ShortCode, link.CreatedAt).Scan(&link.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrInsertConflict
		}
		return unavailable("insert link", err)
	}
	link.Clicks = 0
	link.LastClickedAt = nil
	return nil
}

func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	query := `SELECT id, original_url, short_code, clicks, created_at, last_clicked_at
			  FROM urls WHERE short_code = $1`

	link, err := scanLink(r.pool.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("find link", err)
	}
	return link, nil
}

func (r *PostgresRepository) IncrementClicks(ctx context.Context, code string, at time.Time) error {
	query := `UPDATE urls
			  SET clicks = clicks + 1,
			      last_clicked_at = GREATEST(COALESCE(last_clicked_at, $2), $2)
			  WHERE short_code = $1`

	tag, err := r.pool.Exec(ctx, query, code, at.UTC())
	if err != nil {
		return unavailable("increment clicks", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]domain.Link, error) {
	query := `SELECT id, original_url, short_code, clicks, created_at, last_clicked_at
			  FROM urls ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, unavailable("list links", err)
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, unavailable("list links", err)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list links", err)
	}
	return links, nil
}

func (r *PostgresRepository) DeleteByCode(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM urls WHERE short_code = $1`, code)
	if err != nil {
		return unavailable("delete link", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Summary(ctx context.Context) (domain.Summary, error) {
	query := `SELECT COUNT(*),
			         COALESCE(SUM(clicks), 0)::BIGINT,
			         COUNT(*) FILTER (WHERE clicks > 0)
			  FROM urls`

	var s domain.Summary
	if err := r.pool.QueryRow(ctx, query).Scan(&s.TotalLinks, &s.TotalClicks, &s.ActiveLinks); err != nil {
		return domain.Summary{}, unavailable("summarize links", err)
	}
	return s, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanLink(row pgx.Row) (*domain.Link, error) {
	var link domain.Link
	if err := row.Scan(&link.ID, &link.OriginalURL, &link.ShortCode, &link.Clicks, &link.CreatedAt, &link.LastClickedAt); err != nil {
		return nil, err
	}
	link.CreatedAt = link.CreatedAt.UTC()
	if link.LastClickedAt != nil {
		t := link.LastClickedAt.UTC()
		link.LastClickedAt = &t
	}
	return &link, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
