package domain

// CartRepository описывает требования к хранилищу корзин.
// Корзина принадлежит ровно одной сессии; реализация обязана проверять
// версию при сохранении (optimistic locking).
type CartRepository interface {
	// Get возвращает корзину сессии или ErrCartNotFound, если она ещё не создавалась.
	Get(sessionID string) (Cart, error)
	// Save сохраняет корзину. Корзина с Version == 0 создаётся; иначе запись
	// обновляется только при совпадении версии, при расхождении возвращается
	// ErrCartVersionConflict.
	Save(cart Cart) error
	// Clear удаляет корзину сессии. Отсутствие корзины ошибкой не считается.
	Clear(sessionID string) error
}
