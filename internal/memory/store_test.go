package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mindforge-ai/conscience/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreAndSearch_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.Store(ctx, domain.LayerShortTerm, "unique-test-content-12345")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected record ID to be set")
	}
	if rec.Layer != domain.LayerShortTerm {
		t.Errorf("rec.Layer = %q, want %q", rec.Layer, domain.LayerShortTerm)
	}
	if rec.CreatedAt.IsZero() || rec.CreatedAt.Location() != time.UTC {
		t.Errorf("rec.CreatedAt = %v, want non-zero UTC", rec.CreatedAt)
	}

	results, err := s.Search(ctx, domain.LayerShortTerm, "unique-test-content-12345", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	got := results[0]
	if got.ID != rec.ID {
		t.Errorf("result ID = %q, want %q", got.ID, rec.ID)
	}
	if got.Content != rec.Content {
		t.Errorf("result content = %q, want %q", got.Content, rec.Content)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("result timestamp = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
}

func TestSearch_LayerIsolation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Store(ctx, domain.LayerShortTerm, "isolated fragment xylophone"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	for _, layer := range domain.AllLayers() {
		if layer == domain.LayerShortTerm {
			continue
		}
		results, err := s.Search(ctx, layer, "xylophone", 10)
		if err != nil {
			t.Fatalf("Search(%s): %v", layer, err)
		}
		if len(results) != 0 {
			t.Errorf("Search(%s) found %d cross-layer results, want 0", layer, len(results))
		}
	}
}

func TestSearch_LimitRespected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		content := fmt.Sprintf("observation %d mentions the constellation overhead", i)
		if _, err := s.Store(ctx, domain.LayerEpisodic, content); err != nil {
			t.Fatalf("Store #%d: %v", i, err)
		}
	}

	results, err := s.Search(ctx, domain.LayerEpisodic, "constellation", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("Search returned %d results, want exactly 5", len(results))
	}
}

func TestSearch_RelevanceOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Store(ctx, domain.LayerSemantic, "ripe apple and sour cherry basket"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	both, err := s.Store(ctx, domain.LayerSemantic, "ripe apple and sweet banana basket")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	results, err := s.Search(ctx, domain.LayerSemantic, "apple banana", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search returned %d results, want 2", len(results))
	}
	if results[0].ID != both.ID {
		t.Errorf("first result = %q, want the record matching both terms", results[0].Content)
	}
}

func TestSearch_NoMatchesIsEmptyNotError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Store(ctx, domain.LayerWorking, "some working state"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	results, err := s.Search(ctx, domain.LayerWorking, "zzzquark", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestSearch_UnusableQueryMatchesNothing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Store(ctx, domain.LayerWorking, "the and but"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	for _, query := range []string{"", "the and but", "a an to"} {
		results, err := s.Search(ctx, domain.LayerWorking, query, 10)
		if err != nil {
			t.Fatalf("Search(%q): %v", query, err)
		}
		if len(results) != 0 {
			t.Errorf("Search(%q) returned %d results, want 0", query, len(results))
		}
	}
}

func TestStore_UnknownLayer(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Store(ctx, domain.Layer("bogus"), "content"); !errors.Is(err, ErrUnknownLayer) {
		t.Errorf("Store(bogus) error = %v, want ErrUnknownLayer", err)
	}
	if _, err := s.Search(ctx, domain.Layer("bogus"), "content", 10); !errors.Is(err, ErrUnknownLayer) {
		t.Errorf("Search(bogus) error = %v, want ErrUnknownLayer", err)
	}
}

func TestCount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Store(ctx, domain.LayerWorking, fmt.Sprintf("working item %d", i)); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}
	if _, err := s.Store(ctx, domain.LayerSemantic, "semantic item"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	tests := []struct {
		layer domain.Layer
		want  int64
	}{
		{domain.LayerWorking, 3},
		{domain.LayerSemantic, 1},
		{domain.LayerShortTerm, 0},
	}
	for _, tt := range tests {
		got, err := s.Count(ctx, tt.layer)
		if err != nil {
			t.Fatalf("Count(%s): %v", tt.layer, err)
		}
		if got != tt.want {
			t.Errorf("Count(%s) = %d, want %d", tt.layer, got, tt.want)
		}
	}
}

func TestOptimize(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := s.Store(ctx, domain.LayerLongTerm, fmt.Sprintf("durable note %d about gardening", i)); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	if err := s.Optimize(ctx, domain.LayerLongTerm); err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	results, err := s.Search(ctx, domain.LayerLongTerm, "gardening", 10)
	if err != nil {
		t.Fatalf("Search after optimize: %v", err)
	}
	if len(results) != 10 {
		t.Errorf("Search returned %d results after optimize, want 10", len(results))
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	stored, err := s.Store(ctx, domain.LayerLongTerm, "durable fact about lighthouse keepers")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	results, err := reopened.Search(ctx, domain.LayerLongTerm, "lighthouse keepers", 10)
	if err != nil {
		t.Fatalf("Search after reopen: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected stored record to survive reopen")
	}
	if results[0].ID != stored.ID {
		t.Errorf("result ID = %q, want %q", results[0].ID, stored.ID)
	}
}

func TestConcurrentStoreAndSearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const perLayer = 10
	var wg sync.WaitGroup
	for _, layer := range domain.AllLayers() {
		wg.Add(1)
		go func(layer domain.Layer) {
			defer wg.Done()
			for i := 0; i < perLayer; i++ {
				if _, err := s.Store(ctx, layer, fmt.Sprintf("parallel entry %d carrying beacon", i)); err != nil {
					t.Errorf("Store(%s): %v", layer, err)
					return
				}
				if _, err := s.Search(ctx, layer, "beacon", 5); err != nil {
					t.Errorf("Search(%s): %v", layer, err)
					return
				}
			}
		}(layer)
	}
	wg.Wait()

	for _, layer := range domain.AllLayers() {
		n, err := s.Count(ctx, layer)
		if err != nil {
			t.Fatalf("Count(%s): %v", layer, err)
		}
		if n != perLayer {
			t.Errorf("Count(%s) = %d, want %d", layer, n, perLayer)
		}
	}
}
