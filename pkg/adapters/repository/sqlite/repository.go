package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	moderncsqlite "modernc.org/sqlite"                   // Local SQLite driver
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// Timestamps are stored as fixed-width UTC text so that string comparison
// in SQL orders them chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const busyTimeoutMillis = 5000

type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.LinkStore = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens a local SQLite file (or memory DSN) or, for
// libsql:// and wss:// URLs, a remote libSQL database.
func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.HasPrefix(dbURL, "libsql://") || strings.HasPrefix(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	if driverName == "sqlite" {
		// One connection serializes writers inside the process.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis)); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		original_url TEXT NOT NULL,
		short_code TEXT NOT NULL UNIQUE,
		clicks INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		last_clicked_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_urls_created_at ON urls(created_at);
	`
	if _, err := db.Exec(query); err != nil {
		return err
	}

	// Databases created before click timestamps were tracked lack the column.
	// SQLite has no ADD COLUMN IF NOT EXISTS, so try and ignore the duplicate error.
	_, _ = db.Exec(`ALTER TABLE urls ADD COLUMN last_clicked_at DATETIME`)

	return nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, link *domain.Link) error {
	query := `INSERT INTO urls (original_url, short_code, clicks, created_at) VALUES (?, ?, 0, ?)`

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	link.CreatedAt = link.CreatedAt.UTC()

	res, err := r.db.ExecContext(ctx, query, link.OriginalURL, link.ShortCode, formatTime(link.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrInsertConflict
		}
		return unavailable("insert link", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return unavailable("insert link", err)
	}
	link.ID = id
	link.Clicks = 0
	link.LastClickedAt = nil
	return nil
}

func (r *SQLiteRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	query := `SELECT id, original_url, short_code, clicks, created_at, last_clicked_at
			  FROM urls WHERE short_code = ?`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("find link", err)
	}
	return link, nil
}

func (r *SQLiteRepository) IncrementClicks(ctx context.Context, code string, at time.Time) error {
	query := `UPDATE urls
			  SET clicks = clicks + 1,
			      last_clicked_at = CASE
			          WHEN last_clicked_at IS NULL OR last_clicked_at < ? THEN ?
			          ELSE last_clicked_at
			      END
			  WHERE short_code = ?`

	ts := formatTime(at)
	res, err := r.db.ExecContext(ctx, query, ts, ts, code)
	if err != nil {
		return unavailable("increment clicks", err)
	}
	return expectOneRow(res, "increment clicks")
}

func (r *SQLiteRepository) List(ctx context.Context) ([]domain.Link, error) {
	query := `SELECT id, original_url, short_code, clicks, created_at, last_clicked_at
			  FROM urls ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
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

func (r *SQLiteRepository) DeleteByCode(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM urls WHERE short_code = ?`, code)
	if err != nil {
		return unavailable("delete link", err)
	}
	return expectOneRow(res, "delete link")
}

func (r *SQLiteRepository) Summary(ctx context.Context) (domain.Summary, error) {
	query := `SELECT COUNT(*),
			         COALESCE(SUM(clicks), 0),
			         COALESCE(SUM(CASE WHEN clicks > 0 THEN 1 ELSE 0 END), 0)
			  FROM urls`

	var s domain.Summary
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.TotalLinks, &s.TotalClicks, &s.ActiveLinks); err != nil {
		return domain.Summary{}, unavailable("summarize links", err)
	}
	return s, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*domain.Link, error) {
	var (
		link        domain.Link
		createdAt   sql.NullString
		lastClicked sql.NullString
	)
	if err := row.Scan(&link.ID, &link.OriginalURL, &link.ShortCode, &link.Clicks, &createdAt, &lastClicked); err != nil {
		return nil, err
	}

	var err error
	if link.CreatedAt, err = parseTime(createdAt.String); err != nil {
		return nil, err
	}
	if lastClicked.Valid && lastClicked.String != "" {
		t, err := parseTime(lastClicked.String)
		if err != nil {
			return nil, err
		}
		link.LastClickedAt = &t
	}
	return &link, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime also accepts CURRENT_TIMESTAMP output and the driver's own
// time rendering for rows written by other tools.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var serr *moderncsqlite.Error
	if errors.As(err, &serr) {
		return serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	// libsql reports constraint failures as plain text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
