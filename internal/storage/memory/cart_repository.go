package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/cart/internal/domain"
)

// cartRepositoryInMemory — простая in-memory реализация CartRepository.
type cartRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Cart
}

// NewCartRepository возвращает in-memory хранилище корзин для локальной
// разработки и тестов.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{
		items: make(map[string]domain.Cart),
	}
}

// Get возвращает корзину сессии или ErrCartNotFound, если её нет.
func (r *cartRepositoryInMemory) Get(sessionID string) (domain.Cart, error) {
	if sessionID == "" {
		return domain.Cart{}, domain.ErrSessionIDRequired
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.items[sessionID]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return cloneCart(cart), nil
}

// Save создаёт корзину с Version == 0 или перезаписывает существующую,
// проверяя версию (optimistic locking).
func (r *cartRepositoryInMemory) Save(cart domain.Cart) error {
	if cart.SessionID == "" {
		return domain.ErrSessionIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.items[cart.SessionID]
	if !exists {
		if cart.Version != 0 {
			return domain.ErrCartVersionConflict
		}
	} else if current.Version != cart.Version {
		return domain.ErrCartVersionConflict
	}

	// Инкрементируем версию перед сохранением.
	cart.Version++
	cart.UpdatedAt = time.Now().UTC()
	r.items[cart.SessionID] = cloneCart(cart)
	return nil
}

// Clear удаляет корзину сессии; отсутствие корзины ошибкой не считается.
func (r *cartRepositoryInMemory) Clear(sessionID string) error {
	if sessionID == "" {
		return domain.ErrSessionIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, sessionID)
	return nil
}

// cloneCart копирует корзину, чтобы избежать непредсказуемых мутаций извне.
func cloneCart(src domain.Cart) domain.Cart {
	dst := src
	dst.Items = append([]domain.CartItem(nil), src.Items...)
	return dst
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
