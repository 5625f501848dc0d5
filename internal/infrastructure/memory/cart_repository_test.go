package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	domain "github.com/freshmart/cart-service/internal/domain/cart"
	"golang.org/x/sync/errgroup"
)

func TestGetOrCreate_Idempotent(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	second, err := repo.GetOrCreate(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one cart per user, got %q and %q", first.ID, second.ID)
	}
}

func TestFind_Missing(t *testing.T) {
	repo := NewCartRepository()

	_, err := repo.Find(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertLine_IncrementsAndKeepsPrice(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()
	cart, _ := repo.GetOrCreate(ctx, "alice")

	if _, err := repo.UpsertLine(ctx, cart.ID, "p-1", "Tomato", 5, 250); err != nil {
		t.Fatal(err)
	}
	line, err := repo.UpsertLine(ctx, cart.ID, "p-1", "Tomato", 3, 999)
	if err != nil {
		t.Fatal(err)
	}

	if line.Quantity != 8 {
		t.Fatalf("expected quantity 8, got %d", line.Quantity)
	}
	if line.UnitPriceCents != 250 {
		t.Fatalf("existing line must keep its price, got %d", line.UnitPriceCents)
	}
}

func TestUpsertLine_Invalid(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()
	cart, _ := repo.GetOrCreate(ctx, "alice")

	if _, err := repo.UpsertLine(ctx, cart.ID, "p-1", "Tomato", 0, 250); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := repo.UpsertLine(ctx, "no-such-cart", "p-1", "Tomato", 1, 250); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetLineQuantity(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()
	cart, _ := repo.GetOrCreate(ctx, "alice")
	_, _ = repo.UpsertLine(ctx, cart.ID, "p-1", "Tomato", 5, 250)

	t.Run("negative rejected", func(t *testing.T) {
		if err := repo.SetLineQuantity(ctx, cart.ID, "p-1", -1); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})

	t.Run("positive updates", func(t *testing.T) {
		if err := repo.SetLineQuantity(ctx, cart.ID, "p-1", 2); err != nil {
			t.Fatal(err)
		}
		line, err := repo.GetLine(ctx, cart.ID, "p-1")
		if err != nil {
			t.Fatal(err)
		}
		if line.Quantity != 2 {
			t.Fatalf("expected quantity 2, got %d", line.Quantity)
		}
	})

	t.Run("missing line rejected", func(t *testing.T) {
		if err := repo.SetLineQuantity(ctx, cart.ID, "p-404", 2); !errors.Is(err, domain.ErrLineNotFound) {
			t.Fatalf("expected ErrLineNotFound, got %v", err)
		}
	})

	t.Run("zero deletes, twice is fine", func(t *testing.T) {
		if err := repo.SetLineQuantity(ctx, cart.ID, "p-1", 0); err != nil {
			t.Fatal(err)
		}
		if err := repo.SetLineQuantity(ctx, cart.ID, "p-1", 0); err != nil {
			t.Fatal(err)
		}
		if _, err := repo.GetLine(ctx, cart.ID, "p-1"); !errors.Is(err, domain.ErrLineNotFound) {
			t.Fatalf("expected ErrLineNotFound after delete, got %v", err)
		}
	})
}

func TestListLines_MostRecentFirst(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()
	cart, _ := repo.GetOrCreate(ctx, "alice")

	_, _ = repo.UpsertLine(ctx, cart.ID, "p-1", "Tomato", 1, 100)
	_, _ = repo.UpsertLine(ctx, cart.ID, "p-2", "Salmon", 1, 100)
	_, _ = repo.UpsertLine(ctx, cart.ID, "p-3", "Bread", 1, 100)

	lines, err := repo.ListLines(ctx, cart.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"p-3", "p-2", "p-1"}
	for i, id := range want {
		if lines[i].EntryID != id {
			t.Fatalf("expected order %v, got %+v", want, lines)
		}
	}
}

func TestClear_KeepsCart(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()
	cart, _ := repo.GetOrCreate(ctx, "alice")
	_, _ = repo.UpsertLine(ctx, cart.ID, "p-1", "Tomato", 1, 100)

	if err := repo.Clear(ctx, cart.ID); err != nil {
		t.Fatal(err)
	}

	lines, _ := repo.ListLines(ctx, cart.ID)
	if len(lines) != 0 {
		t.Fatalf("expected no lines, got %+v", lines)
	}
	if _, err := repo.Find(ctx, "alice"); err != nil {
		t.Fatalf("cart record must survive a clear: %v", err)
	}
}

func TestGetOrCreate_Concurrent(t *testing.T) {
	repo := NewCartRepository()

	const n = 50
	ids := make(map[string]struct{})
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			cart, err := repo.GetOrCreate(ctx, "alice")
			if err != nil {
				return err
			}
			mu.Lock()
			ids[cart.ID] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent GetOrCreate failed: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected exactly 1 cart id, got %d", len(ids))
	}
}
