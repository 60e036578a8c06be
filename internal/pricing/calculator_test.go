package pricing_test

import (
	"testing"

	"github.com/vladislavdragonenkov/cart/internal/domain"
	"github.com/vladislavdragonenkov/cart/internal/pricing"
)

func cartWith(items ...domain.CartItem) domain.Cart {
	cart := domain.NewCart("sess-1")
	for _, item := range items {
		cart.Put(item)
	}
	return cart
}

func TestTotals_EmptyCart(t *testing.T) {
	totals := pricing.Totals(domain.NewCart("sess-1"))

	if totals.SubtotalMinor != 0 || totals.TaxMinor != 0 || totals.TotalMinor != 0 {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
	if totals.TotalItems != 0 || totals.UniqueProductCount != 0 {
		t.Fatalf("expected zero counts, got %+v", totals)
	}
}

func TestTotals_ReferenceScenario(t *testing.T) {
	// 2 x 24.99 + 1 x 22.99 = 72.97; налог 16% = 11.68; итог 84.65.
	cart := cartWith(
		domain.CartItem{ProductID: "1", Name: "a", PriceMinor: 2499, Quantity: 2},
		domain.CartItem{ProductID: "2", Name: "b", PriceMinor: 2299, Quantity: 1},
	)

	totals := pricing.Totals(cart)
	if totals.SubtotalMinor != 7297 {
		t.Fatalf("expected subtotal 7297, got %d", totals.SubtotalMinor)
	}
	if totals.TaxMinor != 1168 {
		t.Fatalf("expected tax 1168, got %d", totals.TaxMinor)
	}
	if totals.TotalMinor != 8465 {
		t.Fatalf("expected total 8465, got %d", totals.TotalMinor)
	}
	if totals.TotalItems != 3 {
		t.Fatalf("expected 3 items, got %d", totals.TotalItems)
	}
	if totals.UniqueProductCount != 2 {
		t.Fatalf("expected 2 unique products, got %d", totals.UniqueProductCount)
	}
}

func TestTotals_TaxRoundsHalfUp(t *testing.T) {
	cases := []struct {
		subtotal int64
		tax      int64
	}{
		// 16% от 3: 0.48 -> 0
		{subtotal: 3, tax: 0},
		// 16% от 4: 0.64 -> 1
		{subtotal: 4, tax: 1},
		// 16% от 103: 16.48 -> 16
		{subtotal: 103, tax: 16},
		// 16% от 116: 18.56 -> 19
		{subtotal: 116, tax: 19},
		// ровно половина: 16% от 1250 = 200.00, без округления
		{subtotal: 1250, tax: 200},
	}

	for _, tc := range cases {
		cart := cartWith(domain.CartItem{ProductID: "p", PriceMinor: tc.subtotal, Quantity: 1})
		totals := pricing.Totals(cart)
		if totals.TaxMinor != tc.tax {
			t.Fatalf("subtotal %d: expected tax %d, got %d", tc.subtotal, tc.tax, totals.TaxMinor)
		}
		if totals.TotalMinor != tc.subtotal+tc.tax {
			t.Fatalf("subtotal %d: total mismatch", tc.subtotal)
		}
	}
}

func TestTotals_IsPure(t *testing.T) {
	cart := cartWith(domain.CartItem{ProductID: "p", PriceMinor: 100, Quantity: 2})

	first := pricing.Totals(cart)
	second := pricing.Totals(cart)
	if first != second {
		t.Fatalf("expected identical totals, got %+v and %+v", first, second)
	}
	if cart.Items[0].Quantity != 2 {
		t.Fatal("totals must not mutate the cart")
	}
}
