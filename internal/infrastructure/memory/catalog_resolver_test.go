package memory

import (
	"context"
	"errors"
	"testing"

	domain "github.com/freshmart/cart-service/internal/domain/catalog"
)

func testEntries() []domain.Entry {
	return []domain.Entry{
		{ID: "p-1", Name: "Tomato", Category: "Vegetables"},
		{ID: "p-2", Name: "Cherry Tomato", Category: "Vegetables"},
		{ID: "p-3", Name: "Salmon Fillet", Category: "Seafood"},
		{ID: "p-4", Name: "Smoked Salmon", Category: "Seafood"},
		{ID: "p-5", Name: "Beluga Caviar", Category: "Seafood", Restricted: true},
	}
}

func TestResolve_ExactAndFuzzy(t *testing.T) {
	r := NewCatalogResolver(testEntries(), domain.DefaultThreshold)
	ctx := context.Background()

	t.Run("exact name", func(t *testing.T) {
		e, err := r.Resolve(ctx, domain.Query{Text: "tomato"})
		if err != nil {
			t.Fatal(err)
		}
		if e.ID != "p-1" {
			t.Fatalf("expected p-1, got %+v", e)
		}
	})

	t.Run("misspelling still matches", func(t *testing.T) {
		e, err := r.Resolve(ctx, domain.Query{Text: "tomatoe"})
		if err != nil {
			t.Fatal(err)
		}
		if e.ID != "p-1" {
			t.Fatalf("expected p-1, got %+v", e)
		}
	})

	t.Run("gibberish finds nothing", func(t *testing.T) {
		_, err := r.Resolve(ctx, domain.Query{Text: "zzqx"})
		if !errors.Is(err, domain.ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch, got %v", err)
		}
	})
}

func TestResolve_ThresholdBoundary(t *testing.T) {
	// Pin the threshold to the exact score of the query so the boundary
	// itself is exercised: a score equal to the threshold is accepted,
	// anything below is not.
	entries := []domain.Entry{{ID: "p-1", Name: "Tomato", Category: "Vegetables"}}
	score := Similarity(trigrams("tomatoe"), trigrams("Tomato"))
	if score <= 0 || score >= 1 {
		t.Fatalf("fixture score out of range: %f", score)
	}

	at := NewCatalogResolver(entries, score)
	if _, err := at.Resolve(context.Background(), domain.Query{Text: "tomatoe"}); err != nil {
		t.Fatalf("score equal to threshold must be accepted: %v", err)
	}

	above := NewCatalogResolver(entries, score+0.0001)
	if _, err := above.Resolve(context.Background(), domain.Query{Text: "tomatoe"}); !errors.Is(err, domain.ErrNoMatch) {
		t.Fatalf("score below threshold must be rejected, got %v", err)
	}
}

func TestResolve_RestrictedFence(t *testing.T) {
	r := NewCatalogResolver(testEntries(), domain.DefaultThreshold)
	ctx := context.Background()

	t.Run("hidden from regular callers", func(t *testing.T) {
		_, err := r.Resolve(ctx, domain.Query{Text: "beluga caviar"})
		if !errors.Is(err, domain.ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch, got %v", err)
		}
	})

	t.Run("category hint cannot bypass the fence", func(t *testing.T) {
		_, err := r.Resolve(ctx, domain.Query{Text: "beluga caviar", CategoryHint: "Seafood"})
		if !errors.Is(err, domain.ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch, got %v", err)
		}
	})

	t.Run("visible to privileged callers", func(t *testing.T) {
		e, err := r.Resolve(ctx, domain.Query{Text: "beluga caviar", Privileged: true})
		if err != nil {
			t.Fatal(err)
		}
		if e.ID != "p-5" {
			t.Fatalf("expected p-5, got %+v", e)
		}
	})
}

func TestResolve_CategoryHint(t *testing.T) {
	r := NewCatalogResolver(testEntries(), domain.DefaultThreshold)
	ctx := context.Background()

	e, err := r.Resolve(ctx, domain.Query{Text: "salmon", CategoryHint: "seafood"})
	if err != nil {
		t.Fatal(err)
	}
	if e.Category != "Seafood" {
		t.Fatalf("hint must be honored case-insensitively, got %+v", e)
	}

	if _, err := r.Resolve(ctx, domain.Query{Text: "salmon", CategoryHint: "Bakery"}); !errors.Is(err, domain.ErrNoMatch) {
		t.Fatalf("hint must exclude other categories, got %v", err)
	}
}

func TestResolve_TieBreaksDeterministically(t *testing.T) {
	entries := []domain.Entry{
		{ID: "p-9", Name: "Olive Oil", Category: "Condiments"},
		{ID: "p-2", Name: "Olive Oil", Category: "Condiments"},
	}
	r := NewCatalogResolver(entries, domain.DefaultThreshold)

	for i := 0; i < 10; i++ {
		e, err := r.Resolve(context.Background(), domain.Query{Text: "olive oil"})
		if err != nil {
			t.Fatal(err)
		}
		if e.ID != "p-2" {
			t.Fatalf("tie must resolve to the lowest ID every time, got %q", e.ID)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity(trigrams("tomato"), trigrams("Tomato")); got != 1 {
		t.Fatalf("identical words (case-folded) should score 1, got %f", got)
	}
	if got := Similarity(trigrams(""), trigrams("Tomato")); got != 0 {
		t.Fatalf("empty query should score 0, got %f", got)
	}
	a := Similarity(trigrams("tomato"), trigrams("tomatoes"))
	b := Similarity(trigrams("tomato"), trigrams("cucumber"))
	if a <= b {
		t.Fatalf("closer word must score higher: %f vs %f", a, b)
	}
}
