package health

import (
	"context"
	"errors"
	"time"

	"github.com/vladislavdragonenkov/cart/internal/domain"
)

// NewStorageChecker проверяет доступность хранилища корзин пробным чтением.
// Отсутствие корзины у probe-сессии — здоровое состояние.
func NewStorageChecker(repo domain.CartRepository) *SimpleChecker {
	return NewSimpleChecker("cart-storage", func() error {
		_, err := repo.Get("health-probe")
		if err != nil && !errors.Is(err, domain.ErrCartNotFound) {
			return err
		}
		return nil
	})
}

// NewCatalogChecker проверяет доступность каталога товаров пробным чтением.
// Отсутствие товара с probe-идентификатором — здоровое состояние.
func NewCatalogChecker(catalog domain.ProductCatalog, probeID string) *SimpleChecker {
	if probeID == "" {
		probeID = "health-probe"
	}
	return NewSimpleChecker("product-catalog", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := catalog.Get(ctx, probeID)
		if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
			return err
		}
		return nil
	})
}
