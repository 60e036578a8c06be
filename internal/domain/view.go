package domain

import "fmt"

// Totals — денежные агрегаты корзины, рассчитываются в минимальных единицах.
type Totals struct {
	SubtotalMinor      int64 `json:"subtotal_minor"`
	TaxMinor           int64 `json:"tax_minor"`
	TotalMinor         int64 `json:"total_minor"`
	TotalItems         int32 `json:"total_items"`
	UniqueProductCount int   `json:"unique_product_count"`
}

// ViewItem — позиция корзины в проекции для отображения.
type ViewItem struct {
	ProductID         string `json:"product_id"`
	Name              string `json:"name"`
	PriceMinor        int64  `json:"price_minor"`
	Quantity          int32  `json:"quantity"`
	SubtotalMinor     int64  `json:"subtotal_minor"`
	PriceFormatted    string `json:"price"`
	SubtotalFormatted string `json:"subtotal"`
	Category          string `json:"category,omitempty"`
	Era               string `json:"era,omitempty"`
	Year              int32  `json:"year,omitempty"`
	ImageRef          string `json:"image_ref,omitempty"`
}

// CartView — read-only проекция корзины для презентационного слоя.
type CartView struct {
	Items             []ViewItem `json:"items"`
	Totals            Totals     `json:"totals"`
	SubtotalFormatted string     `json:"subtotal"`
	TaxFormatted      string     `json:"tax"`
	TotalFormatted    string     `json:"total"`
	IsEmpty           bool       `json:"is_empty"`
}

// FormatMinor переводит сумму в минимальных единицах в строку с двумя знаками
// после разделителя, например 2499 -> "24.99".
func FormatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
