package app

import (
	"time"

	"github.com/vladislavdragonenkov/cart/internal/domain"
)

// newTestCart создаёт тестовую корзину для использования в тестах.
func newTestCart() domain.Cart {
	now := time.Now().UTC()
	return domain.Cart{
		SessionID: "test-session-1",
		Items: []domain.CartItem{
			{
				ProductID:  "1",
				Name:       "Abbey Road",
				PriceMinor: 2499,
				Quantity:   1,
				Category:   "rock",
				Era:        "60s",
				Year:       1969,
				AddedAt:    now,
			},
		},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
