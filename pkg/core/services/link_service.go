package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/logging"
	"github.com/wadjakorntonsri/shortlink/pkg/metrics"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
	"github.com/wadjakorntonsri/shortlink/pkg/validation"
)

const (
	codeLength   = 7
	maxCodeTries = 5
	codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"
)

type LinkService struct {
	store   ports.LinkStore
	baseURL string
	newCode func() (string, error)
	now     func() time.Time
}

var _ ports.LinkService = (*LinkService)(nil)

type Option func(*LinkService)

// WithCodeGenerator replaces the random generator for non-custom codes.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *LinkService) { s.newCode = gen }
}

func WithClock(now func() time.Time) Option {
	return func(s *LinkService) { s.now = now }
}

func NewLinkService(store ports.LinkStore, baseURL string, opts ...Option) *LinkService {
	s := &LinkService{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		newCode: func() (string, error) { return generateShortCode(codeLength) },
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LinkService) ShortURL(code string) string {
	return s.baseURL + "/" + code
}

func (s *LinkService) Shorten(ctx context.Context, originalURL, customCode string) (*ports.ShortenResult, error) {
	if err := validation.ValidateShorten(validation.ShortenInput{
		OriginalURL: originalURL,
		CustomCode:  customCode,
	}); err != nil {
		return nil, err
	}

	var (
		link *domain.Link
		err  error
	)
	if customCode != "" {
		link, err = s.insertCustom(ctx, originalURL, customCode)
	} else {
		link, err = s.insertGenerated(ctx, originalURL)
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordLinkCreated(customCode != "")
	logging.Ctx(ctx).Info().
		Str("code", link.ShortCode).
		Bool("custom", customCode != "").
		Msg("short link created")

	return &ports.ShortenResult{Link: link, ShortURL: s.ShortURL(link.ShortCode)}, nil
}

func (s *LinkService) insertCustom(ctx context.Context, originalURL, code string) (*domain.Link, error) {
	// Check if custom code exists
	_, err := s.store.FindByCode(ctx, code)
	switch {
	case err == nil:
		return nil, domain.ErrCodeInUse
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	link := s.newLink(originalURL, code)
	if err := s.store.Insert(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *LinkService) insertGenerated(ctx context.Context, originalURL string) (*domain.Link, error) {
	for attempt := 1; attempt <= maxCodeTries; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate short code: %w", err)
		}

		link := s.newLink(originalURL, code)
		err = s.store.Insert(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, domain.ErrInsertConflict) {
			return nil, err
		}

		metrics.RecordCodeCollision()
		logging.Ctx(ctx).Debug().Str("code", code).Int("attempt", attempt).Msg("generated code collided")
	}
	return nil, domain.ErrInsertConflict
}

func (s *LinkService) newLink(originalURL, code string) *domain.Link {
	return &domain.Link{
		OriginalURL: originalURL,
		ShortCode:   code,
		CreatedAt:   s.now().UTC(),
	}
}

// ResolveAndTrack returns the target URL for code and counts the click.
// A failed increment is logged and the redirect still goes ahead.
func (s *LinkService) ResolveAndTrack(ctx context.Context, code string) (string, error) {
	if !validation.IsShortCode(code) {
		metrics.RecordRedirect(metrics.RedirectNotFound)
		return "", domain.ErrNotFound
	}

	link, err := s.store.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.RecordRedirect(metrics.RedirectNotFound)
		} else {
			metrics.RecordRedirect(metrics.RedirectError)
		}
		return "", err
	}

	if err := s.store.IncrementClicks(ctx, code, s.now().UTC()); err != nil {
		metrics.RecordClickTrackFailure()
		logging.Ctx(ctx).Warn().Err(err).Str("code", code).Msg("click tracking failed")
	}

	metrics.RecordRedirect(metrics.RedirectFound)
	return link.OriginalURL, nil
}

func (s *LinkService) List(ctx context.Context) ([]domain.Link, error) {
	return s.store.List(ctx)
}

func (s *LinkService) Stats(ctx context.Context, code string) (*domain.Link, error) {
	if !validation.IsShortCode(code) {
		return nil, domain.ErrNotFound
	}
	return s.store.FindByCode(ctx, code)
}

func (s *LinkService) Delete(ctx context.Context, code string) error {
	if !validation.IsShortCode(code) {
		return domain.ErrNotFound
	}
	if err := s.store.DeleteByCode(ctx, code); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Str("code", code).Msg("short link deleted")
	return nil
}

func (s *LinkService) Summary(ctx context.Context) (domain.Summary, error) {
	return s.store.Summary(ctx)
}

func generateShortCode(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[num.Int64()]
	}
	return string(b), nil
}
