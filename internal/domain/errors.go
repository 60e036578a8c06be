package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора сессии.
	ErrSessionIDRequired = errors.New("session_id is required")
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = errors.New("product_id is required")
	// Ошибка количества вне допустимого диапазона 1..99.
	ErrQuantityOutOfRange = errors.New("quantity must be between 1 and 99")
	// Ошибка неизвестного режима обновления количества.
	ErrInvalidUpdateMode = errors.New("update mode must be set, increment or decrement")
	// Ошибка повторяющегося товара в корзине.
	ErrDuplicateProduct = errors.New("product appears more than once in cart")
	// Ошибка отрицательной цены позиции.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// ErrProductNotFound возвращается, если товара нет в каталоге.
	ErrProductNotFound = errors.New("product not found in catalog")
	// ErrCartItemNotFound возвращается, если товара нет в корзине.
	ErrCartItemNotFound = errors.New("product not found in cart")
	// ErrCartNotFound возвращается хранилищем, если корзина сессии ещё не создавалась.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrCartVersionConflict = errors.New("cart version conflict")
	// ErrCatalogUnavailable — инфраструктурная ошибка каталога; операция завершается целиком.
	ErrCatalogUnavailable = errors.New("product catalog unavailable")
	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой хеш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists — ключ уже зарегистрирован.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ переиспользован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key is used with different request payload")
	// ErrIdempotencyKeyNotFound — записи по ключу нет.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrCartVersionConflict)
}

// IsNotFound объединяет оба варианта "не найдено" для маппинга на транспортный статус.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrCartItemNotFound)
}

// IsValidation проверяет, относится ли ошибка к ошибкам валидации входа.
func IsValidation(err error) bool {
	return errors.Is(err, ErrProductIDRequired) ||
		errors.Is(err, ErrQuantityOutOfRange) ||
		errors.Is(err, ErrInvalidUpdateMode)
}
