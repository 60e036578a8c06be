package domain

// Product — снапшот товара из каталога на момент чтения.
type Product struct {
	// ID — внешний идентификатор товара.
	ID string
	// Name — отображаемое имя.
	Name string
	// PriceMinor — актуальная цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// Stock — доступный остаток; nil означает, что остаток не отслеживается
	// и ограничение по стоку не применяется.
	Stock *int32
	// Косметические атрибуты, копируются в CartItem при добавлении.
	Category string
	Era      string
	Year     int32
	ImageRef string
}

// StockKnown сообщает, отслеживается ли остаток товара.
func (p Product) StockKnown() bool {
	return p.Stock != nil
}

// StockLevel возвращает остаток; вызывать только при StockKnown.
func (p Product) StockLevel() int32 {
	if p.Stock == nil {
		return 0
	}
	return *p.Stock
}
