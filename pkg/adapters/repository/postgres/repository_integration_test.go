//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

func newTestRepo(t *testing.T) *PostgresRepository {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("shortlink"),
		tcpostgres.WithUsername("shortlink"),
		tcpostgres.WithPassword("shortlink"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	repo, err := NewPostgresRepository(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestPostgresRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("insert and find", func(t *testing.T) {
		link := &domain.Link{OriginalURL: "https://example.com/a/b", ShortCode: "pg-one", CreatedAt: base}
		if err := repo.Insert(ctx, link); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if link.ID == 0 {
			t.Error("ID not assigned")
		}

		got, err := repo.FindByCode(ctx, "pg-one")
		if err != nil {
			t.Fatal(err)
		}
		if got.OriginalURL != link.OriginalURL || !got.CreatedAt.Equal(base) || got.LastClickedAt != nil {
			t.Errorf("unexpected link %+v", got)
		}
	})

	t.Run("duplicate is conflict", func(t *testing.T) {
		err := repo.Insert(ctx, &domain.Link{OriginalURL: "https://other.example", ShortCode: "pg-one", CreatedAt: base})
		if !errors.Is(err, domain.ErrInsertConflict) {
			t.Errorf("expected ErrInsertConflict, got %v", err)
		}
	})

	t.Run("concurrent increments keep the latest timestamp", func(t *testing.T) {
		const n = 25
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if err := repo.IncrementClicks(ctx, "pg-one", base.Add(time.Duration(i)*time.Second)); err != nil {
					t.Errorf("increment: %v", err)
				}
			}(i)
		}
		wg.Wait()

		got, _ := repo.FindByCode(ctx, "pg-one")
		if got.Clicks != n {
			t.Errorf("Clicks: got %d want %d", got.Clicks, n)
		}
		want := base.Add((n - 1) * time.Second)
		if got.LastClickedAt == nil || !got.LastClickedAt.Equal(want) {
			t.Errorf("LastClickedAt: got %v want %v", got.LastClickedAt, want)
		}
	})

	t.Run("list and summary", func(t *testing.T) {
		if err := repo.Insert(ctx, &domain.Link{OriginalURL: "https://example.com/2", ShortCode: "pg-two", CreatedAt: base.Add(time.Hour)}); err != nil {
			t.Fatal(err)
		}

		links, err := repo.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(links) != 2 || links[0].ShortCode != "pg-two" {
			t.Errorf("unexpected list %+v", links)
		}

		s, err := repo.Summary(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if s != (domain.Summary{TotalLinks: 2, TotalClicks: 25, ActiveLinks: 1}) {
			t.Errorf("unexpected summary %+v", s)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.DeleteByCode(ctx, "pg-two"); err != nil {
			t.Fatal(err)
		}
		if err := repo.DeleteByCode(ctx, "pg-two"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := repo.IncrementClicks(ctx, "pg-two", base); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
