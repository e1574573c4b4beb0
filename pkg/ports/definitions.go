package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

// LinkStore defines storage operations for links.
//
// Implementations return domain.ErrNotFound when no row matches a code,
// domain.ErrInsertConflict when the unique constraint on short_code rejects an
// insert, and wrap every other failure with domain.ErrStoreUnavailable.
type LinkStore interface {
	// Insert persists a new link and fills in its ID and CreatedAt.
	Insert(ctx context.Context, link *domain.Link) error
	FindByCode(ctx context.Context, code string) (*domain.Link, error)
	// IncrementClicks adds one click and records at as the last click time in a single statement.
	IncrementClicks(ctx context.Context, code string, at time.Time) error
	List(ctx context.Context) ([]domain.Link, error) // newest first
	DeleteByCode(ctx context.Context, code string) error
	Summary(ctx context.Context) (domain.Summary, error)

	Ping(ctx context.Context) error
	Close() error
}

// LinkService defines the business logic operations
type LinkService interface {
	// Allocator
	Shorten(ctx context.Context, originalURL, customCode string) (*ShortenResult, error)

	// Resolver
	ResolveAndTrack(ctx context.Context, code string) (string, error)

	// Registry
	List(ctx context.Context) ([]domain.Link, error)
	Stats(ctx context.Context, code string) (*domain.Link, error)
	Delete(ctx context.Context, code string) error
	Summary(ctx context.Context) (domain.Summary, error)

	ShortURL(code string) string
}

// ShortenResult is the outcome of a successful allocation.
type ShortenResult struct {
	Link     *domain.Link
	ShortURL string
}
