package pricing

import "testing"

func TestUnitPriceCents_WithinCategoryBounds(t *testing.T) {
	a := NewSeededAssigner(1, 2)

	for category, r := range categoryRanges {
		for i := 0; i < 200; i++ {
			p := a.UnitPriceCents(category)
			if p < r.min || p > r.max {
				t.Fatalf("%s: price %d outside [%d, %d]", category, p, r.min, r.max)
			}
		}
	}
}

func TestUnitPriceCents_UnknownCategoryUsesDefault(t *testing.T) {
	a := NewSeededAssigner(3, 4)

	for i := 0; i < 200; i++ {
		p := a.UnitPriceCents("Exotic")
		if p < defaultRange.min || p > defaultRange.max {
			t.Fatalf("price %d outside default range [%d, %d]", p, defaultRange.min, defaultRange.max)
		}
	}
}

func TestUnitPriceCents_SeededDeterminism(t *testing.T) {
	a := NewSeededAssigner(7, 11)
	b := NewSeededAssigner(7, 11)

	for i := 0; i < 50; i++ {
		if pa, pb := a.UnitPriceCents("Meat"), b.UnitPriceCents("Meat"); pa != pb {
			t.Fatalf("same seed diverged at draw %d: %d vs %d", i, pa, pb)
		}
	}
}

func TestFixed(t *testing.T) {
	f := Fixed(250)
	for _, category := range []string{"Meat", "Dairy", "anything"} {
		if p := f.UnitPriceCents(category); p != 250 {
			t.Fatalf("expected 250, got %d", p)
		}
	}
}
