package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/logging"
	"github.com/wadjakorntonsri/shortlink/pkg/metrics"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type BreakerSettings struct {
	Name     string
	Failures uint32        // consecutive failures that open the breaker
	Timeout  time.Duration // time spent open before a half-open probe
}

// BreakerStore fails fast with domain.ErrStoreUnavailable while the wrapped
// store keeps failing.
type BreakerStore struct {
	next ports.LinkStore
	cb   *gobreaker.CircuitBreaker[struct{}]
}

var _ ports.LinkStore = (*BreakerStore)(nil)

func NewBreakerStore(next ports.LinkStore, s BreakerSettings) *BreakerStore {
	if s.Failures == 0 {
		s.Failures = 5
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "store-" + s.Name,
		MaxRequests: 1,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.Failures
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(int(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("store breaker state changed")
		},
	}

	metrics.SetBreakerState(int(gobreaker.StateClosed))
	return &BreakerStore{next: next, cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

// Domain outcomes and cancelled requests say nothing about store health.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInsertConflict) ||
		errors.Is(err, context.Canceled)
}

func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerStore) do(fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}

func (b *BreakerStore) Insert(ctx context.Context, link *domain.Link) error {
	return b.do(func() error { return b.next.Insert(ctx, link) })
}

func (b *BreakerStore) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	var link *domain.Link
	err := b.do(func() (err error) {
		link, err = b.next.FindByCode(ctx, code)
		return err
	})
	return link, err
}

func (b *BreakerStore) IncrementClicks(ctx context.Context, code string, at time.Time) error {
	return b.do(func() error { return b.next.IncrementClicks(ctx, code, at) })
}

func (b *BreakerStore) List(ctx context.Context) ([]domain.Link, error) {
	var links []domain.Link
	err := b.do(func() (err error) {
		links, err = b.next.List(ctx)
		return err
	})
	return links, err
}

func (b *BreakerStore) DeleteByCode(ctx context.Context, code string) error {
	return b.do(func() error { return b.next.DeleteByCode(ctx, code) })
}

func (b *BreakerStore) Summary(ctx context.Context) (domain.Summary, error) {
	var s domain.Summary
	err := b.do(func() (err error) {
		s, err = b.next.Summary(ctx)
		return err
	})
	return s, err
}

func (b *BreakerStore) Ping(ctx context.Context) error {
	return b.do(func() error { return b.next.Ping(ctx) })
}

func (b *BreakerStore) Close() error {
	return b.next.Close()
}
