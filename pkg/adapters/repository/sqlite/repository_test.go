package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	repo, err := NewSQLiteRepository(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func insert(t *testing.T, repo *SQLiteRepository, code, url string, created time.Time) *domain.Link {
	t.Helper()
	link := &domain.Link{OriginalURL: url, ShortCode: code, CreatedAt: created}
	if err := repo.Insert(context.Background(), link); err != nil {
		t.Fatalf("Insert(%s) failed: %v", code, err)
	}
	return link
}

var base = time.Date(2025, 1, 2, 3, 4, 5, 600, time.UTC)

func TestInsertAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	link := insert(t, repo, "abc1234", "https://example.com/a/b", base)
	if link.ID == 0 {
		t.Error("ID not assigned")
	}

	got, err := repo.FindByCode(ctx, "abc1234")
	if err != nil {
		t.Fatalf("FindByCode failed: %v", err)
	}
	if got.OriginalURL != "https://example.com/a/b" || got.Clicks != 0 || got.LastClickedAt != nil {
		t.Errorf("unexpected link %+v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt: got %v want %v", got.CreatedAt, base)
	}

	if _, err := repo.FindByCode(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertDuplicateIsConflict(t *testing.T) {
	repo := newTestRepo(t)
	insert(t, repo, "dupe", "https://a.example", base)

	err := repo.Insert(context.Background(), &domain.Link{OriginalURL: "https://b.example", ShortCode: "dupe", CreatedAt: base})
	if !errors.Is(err, domain.ErrInsertConflict) {
		t.Fatalf("expected ErrInsertConflict, got %v", err)
	}

	got, _ := repo.FindByCode(context.Background(), "dupe")
	if got.OriginalURL != "https://a.example" {
		t.Errorf("original row changed: %+v", got)
	}
}

func TestIncrementClicks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	insert(t, repo, "clicky", "https://example.com", base)

	later := base.Add(time.Hour)
	earlier := base.Add(time.Minute)

	if err := repo.IncrementClicks(ctx, "clicky", later); err != nil {
		t.Fatalf("IncrementClicks failed: %v", err)
	}
	// An older timestamp still counts but must not move last_clicked_at back.
	if err := repo.IncrementClicks(ctx, "clicky", earlier); err != nil {
		t.Fatalf("IncrementClicks failed: %v", err)
	}

	got, _ := repo.FindByCode(ctx, "clicky")
	if got.Clicks != 2 {
		t.Errorf("Clicks: got %d want 2", got.Clicks)
	}
	if got.LastClickedAt == nil || !got.LastClickedAt.Equal(later) {
		t.Errorf("LastClickedAt: got %v want %v", got.LastClickedAt, later)
	}

	if err := repo.IncrementClicks(ctx, "ghost", later); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentIncrementsAreNotLost(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	insert(t, repo, "hot", "https://example.com", base)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := repo.IncrementClicks(ctx, "hot", base.Add(time.Duration(i)*time.Second)); err != nil {
				t.Errorf("increment: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := repo.FindByCode(ctx, "hot")
	if got.Clicks != n {
		t.Errorf("Clicks: got %d want %d", got.Clicks, n)
	}
	want := base.Add((n - 1) * time.Second)
	if got.LastClickedAt == nil || !got.LastClickedAt.Equal(want) {
		t.Errorf("LastClickedAt: got %v want %v", got.LastClickedAt, want)
	}
}

func TestListOrder(t *testing.T) {
	repo := newTestRepo(t)
	insert(t, repo, "old", "https://example.com/1", base)
	insert(t, repo, "newer", "https://example.com/2", base.Add(time.Hour))
	insert(t, repo, "tie", "https://example.com/3", base.Add(time.Hour))

	links, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	var codes []string
	for _, l := range links {
		codes = append(codes, l.ShortCode)
	}
	if strings.Join(codes, ",") != "tie,newer,old" {
		t.Errorf("unexpected order %v", codes)
	}
}

func TestListEmpty(t *testing.T) {
	repo := newTestRepo(t)
	links, err := repo.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if links == nil || len(links) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", links)
	}
}

func TestDeleteByCode(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	insert(t, repo, "bye", "https://example.com", base)

	if err := repo.DeleteByCode(ctx, "bye"); err != nil {
		t.Fatalf("DeleteByCode failed: %v", err)
	}
	if err := repo.DeleteByCode(ctx, "bye"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.FindByCode(ctx, "bye"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted link still found: %v", err)
	}

	// The code is free again.
	insert(t, repo, "bye", "https://example.com/again", base)
}

func TestSummary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s, err := repo.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != (domain.Summary{}) {
		t.Errorf("empty summary: got %+v", s)
	}

	insert(t, repo, "one", "https://example.com/1", base)
	insert(t, repo, "two", "https://example.com/2", base)
	insert(t, repo, "three", "https://example.com/3", base)
	for i := 0; i < 3; i++ {
		_ = repo.IncrementClicks(ctx, "one", base)
	}
	_ = repo.IncrementClicks(ctx, "two", base)

	s, err = repo.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := domain.Summary{TotalLinks: 3, TotalClicks: 4, ActiveLinks: 2}
	if s != want {
		t.Errorf("got %+v want %+v", s, want)
	}
	if s.InactiveLinks() != 1 {
		t.Errorf("InactiveLinks: got %d", s.InactiveLinks())
	}
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	repo := newTestRepo(t)
	repo.Close()

	_, err := repo.FindByCode(context.Background(), "abc")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestFileDatabaseSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.sqlite")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	insert(t, repo, "keep", "https://example.com", base)
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()

	got, err := repo.FindByCode(context.Background(), "keep")
	if err != nil {
		t.Fatalf("FindByCode after reopen: %v", err)
	}
	if got.OriginalURL != "https://example.com" {
		t.Errorf("unexpected link %+v", got)
	}
}

func TestParseTimeLegacyFormats(t *testing.T) {
	for _, s := range []string{"2024-05-06 07:08:09", "2024-05-06T07:08:09Z", "2024-05-06T07:08:09.000000000Z"} {
		got, err := parseTime(s)
		if err != nil {
			t.Errorf("parseTime(%q): %v", s, err)
			continue
		}
		if got.Year() != 2024 || got.Hour() != 7 {
			t.Errorf("parseTime(%q): got %v", s, got)
		}
	}
	if _, err := parseTime("yesterday"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}
