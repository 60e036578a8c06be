package domain

import "time"

// Границы количества для одной позиции корзины.
const (
	MinQuantity int32 = 1
	MaxQuantity int32 = 99
)

// CartItem представляет одну позицию корзины.
// Name и PriceMinor — снапшот каталога на момент добавления; они не
// перечитываются до запуска Verify.
type CartItem struct {
	// ProductID — внешний идентификатор товара, уникален внутри корзины.
	ProductID string
	// Name — имя товара на момент добавления.
	Name string
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// Quantity — количество единиц, инвариант MinQuantity..MaxQuantity.
	Quantity int32
	// Косметические атрибуты для отображения; на инварианты не влияют.
	Category string
	Era      string
	Year     int32
	ImageRef string
	// AddedAt фиксирует момент добавления позиции в корзину.
	AddedAt time.Time
}

// Subtotal возвращает стоимость позиции в минимальных единицах.
func (i CartItem) Subtotal() int64 {
	return int64(i.Quantity) * i.PriceMinor
}

// Cart агрегирует позиции одной сессии. Порядок вставки сохраняется для
// стабильного отображения.
type Cart struct {
	SessionID string
	Items     []CartItem
	// Version используется для optimistic locking при сохранении.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCart возвращает пустую корзину для сессии.
func NewCart(sessionID string) Cart {
	now := time.Now().UTC()
	return Cart{
		SessionID: sessionID,
		Items:     nil,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IndexOf возвращает позицию товара в корзине или -1.
func (c *Cart) IndexOf(productID string) int {
	for idx, item := range c.Items {
		if item.ProductID == productID {
			return idx
		}
	}
	return -1
}

// Find возвращает позицию по productID.
func (c *Cart) Find(productID string) (CartItem, bool) {
	idx := c.IndexOf(productID)
	if idx < 0 {
		return CartItem{}, false
	}
	return c.Items[idx], true
}

// Put добавляет позицию в конец или заменяет существующую, сохраняя её место.
func (c *Cart) Put(item CartItem) {
	if idx := c.IndexOf(item.ProductID); idx >= 0 {
		c.Items[idx] = item
		return
	}
	c.Items = append(c.Items, item)
}

// Remove удаляет позицию и возвращает её снапшот.
func (c *Cart) Remove(productID string) (CartItem, bool) {
	idx := c.IndexOf(productID)
	if idx < 0 {
		return CartItem{}, false
	}
	removed := c.Items[idx]
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return removed, true
}

// TotalUnits возвращает суммарное количество единиц по всем позициям.
func (c *Cart) TotalUnits() int32 {
	var total int32
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// IsEmpty сообщает, пуста ли корзина.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ValidateInvariants проверяет базовые инварианты корзины и возвращает список замечаний.
func (c *Cart) ValidateInvariants() []error {
	var errs []error

	if c.SessionID == "" {
		errs = append(errs, ErrSessionIDRequired)
	}

	seen := make(map[string]struct{}, len(c.Items))
	for _, item := range c.Items {
		if item.ProductID == "" {
			errs = append(errs, ErrProductIDRequired)
			continue
		}
		if _, dup := seen[item.ProductID]; dup {
			errs = append(errs, ErrDuplicateProduct)
		}
		seen[item.ProductID] = struct{}{}

		if item.Quantity < MinQuantity || item.Quantity > MaxQuantity {
			errs = append(errs, ErrQuantityOutOfRange)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	return errs
}
