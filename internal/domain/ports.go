package domain

import (
	"context"
	"time"
)

// ProductCatalog описывает read-only доступ к каталогу товаров.
// Ядро корзины никогда не пишет в каталог.
type ProductCatalog interface {
	// Get возвращает снапшот товара или ErrProductNotFound.
	// Инфраструктурные сбои оборачиваются в ErrCatalogUnavailable.
	Get(ctx context.Context, productID string) (Product, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// DeadLetterPublisher принимает события, не опубликованные после всех retry,
// вместе с контекстом сбоя.
type DeadLetterPublisher interface {
	PublishFailed(event OutboxMessage, attempts int, publishErr error) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
