// Package catalog содержит реализации read-only каталога товаров.
package catalog

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/cart/internal/domain"
)

// MockCatalog — конфигурируемая заглушка ProductCatalog для тестов.
// Товары можно добавлять и менять по ходу теста, ошибки — инжектировать.
type MockCatalog struct {
	mu       sync.Mutex
	products map[string]domain.Product

	// GetErr возвращается из Get вместо поиска, если не nil.
	GetErr error
	// GetCalls считает обращения к каталогу.
	GetCalls int
}

// NewMockCatalog возвращает mock с успешным сценарием по умолчанию.
func NewMockCatalog(products ...domain.Product) *MockCatalog {
	m := &MockCatalog{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

// Get возвращает снапшот товара, заранее настроенную ошибку и считает вызовы.
func (m *MockCatalog) Get(_ context.Context, productID string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	if m.GetErr != nil {
		return domain.Product{}, m.GetErr
	}

	product, ok := m.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// Put добавляет или заменяет товар.
func (m *MockCatalog) Put(product domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
}

// Delete убирает товар из каталога (для сценариев Verify).
func (m *MockCatalog) Delete(productID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, productID)
}

// SetStock выставляет остаток существующего товара.
func (m *MockCatalog) SetStock(productID string, stock int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if product, ok := m.products[productID]; ok {
		product.Stock = &stock
		m.products[productID] = product
	}
}

// SetPrice выставляет цену существующего товара.
func (m *MockCatalog) SetPrice(productID string, priceMinor int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if product, ok := m.products[productID]; ok {
		product.PriceMinor = priceMinor
		m.products[productID] = product
	}
}

var _ domain.ProductCatalog = (*MockCatalog)(nil)
