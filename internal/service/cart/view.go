package cart

import (
	"github.com/vladislavdragonenkov/cart/internal/domain"
	"github.com/vladislavdragonenkov/cart/internal/pricing"
)

// BuildView строит read-only проекцию корзины с пересчитанными итогами.
func BuildView(cart domain.Cart) domain.CartView {
	totals := pricing.Totals(cart)

	items := make([]domain.ViewItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		subtotal := item.Subtotal()
		items = append(items, domain.ViewItem{
			ProductID:         item.ProductID,
			Name:              item.Name,
			PriceMinor:        item.PriceMinor,
			Quantity:          item.Quantity,
			SubtotalMinor:     subtotal,
			PriceFormatted:    domain.FormatMinor(item.PriceMinor),
			SubtotalFormatted: domain.FormatMinor(subtotal),
			Category:          item.Category,
			Era:               item.Era,
			Year:              item.Year,
			ImageRef:          item.ImageRef,
		})
	}

	return domain.CartView{
		Items:             items,
		Totals:            totals,
		SubtotalFormatted: domain.FormatMinor(totals.SubtotalMinor),
		TaxFormatted:      domain.FormatMinor(totals.TaxMinor),
		TotalFormatted:    domain.FormatMinor(totals.TotalMinor),
		IsEmpty:           len(items) == 0,
	}
}
