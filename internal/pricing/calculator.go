// Package pricing считает денежные агрегаты корзины.
// Вся арифметика ведётся в минимальных денежных единицах (int64), чтобы
// исключить дрейф плавающей точки.
package pricing

import "github.com/vladislavdragonenkov/cart/internal/domain"

// TaxRatePercent — фиксированная ставка налога в процентах.
const TaxRatePercent = 16

// Totals вычисляет subtotal/tax/total и счётчики позиций корзины.
// Чистая функция без побочных эффектов и ошибок.
func Totals(cart domain.Cart) domain.Totals {
	var subtotal int64
	var units int32
	for _, item := range cart.Items {
		subtotal += item.Subtotal()
		units += item.Quantity
	}

	tax := roundTax(subtotal)
	return domain.Totals{
		SubtotalMinor:      subtotal,
		TaxMinor:           tax,
		TotalMinor:         subtotal + tax,
		TotalItems:         units,
		UniqueProductCount: len(cart.Items),
	}
}

// roundTax возвращает налог, округлённый до минимальной единицы (half-up).
func roundTax(subtotalMinor int64) int64 {
	return (subtotalMinor*TaxRatePercent + 50) / 100
}
