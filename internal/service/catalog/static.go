package catalog

import (
	"context"

	"github.com/vladislavdragonenkov/cart/internal/domain"
)

// StaticCatalog — неизменяемый каталог с предзаполненными товарами.
// Используется для локального запуска, пока нет реального каталога.
type StaticCatalog struct {
	products map[string]domain.Product
}

// NewStaticCatalog строит каталог из переданных товаров.
func NewStaticCatalog(products []domain.Product) *StaticCatalog {
	index := make(map[string]domain.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	return &StaticCatalog{products: index}
}

// NewSeededCatalog возвращает каталог с демонстрационным ассортиментом.
func NewSeededCatalog() *StaticCatalog {
	stock := func(v int32) *int32 { return &v }
	return NewStaticCatalog([]domain.Product{
		{ID: "1", Name: "Abbey Road", PriceMinor: 2499, Stock: stock(12), Category: "rock", Era: "60s", Year: 1969, ImageRef: "abbey-road.jpg"},
		{ID: "2", Name: "Rumours", PriceMinor: 2299, Stock: stock(8), Category: "rock", Era: "70s", Year: 1977, ImageRef: "rumours.jpg"},
		{ID: "3", Name: "Thriller", PriceMinor: 2699, Stock: stock(5), Category: "pop", Era: "80s", Year: 1982, ImageRef: "thriller.jpg"},
		{ID: "4", Name: "Kind of Blue", PriceMinor: 2899, Stock: stock(3), Category: "jazz", Era: "50s", Year: 1959, ImageRef: "kind-of-blue.jpg"},
		{ID: "5", Name: "Nevermind", PriceMinor: 2199, Stock: nil, Category: "grunge", Era: "90s", Year: 1991, ImageRef: "nevermind.jpg"},
	})
}

// Get возвращает снапшот товара или ErrProductNotFound.
func (c *StaticCatalog) Get(_ context.Context, productID string) (domain.Product, error) {
	product, ok := c.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

var _ domain.ProductCatalog = (*StaticCatalog)(nil)
