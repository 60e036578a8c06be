// Package kafka содержит публикацию событий корзины в Kafka.
package kafka

// EventType определяет тип события корзины
type EventType string

const (
	EventTypeItemAdded   EventType = "cart.item_added"
	EventTypeItemUpdated EventType = "cart.item_updated"
	EventTypeItemRemoved EventType = "cart.item_removed"
	EventTypeCleared     EventType = "cart.cleared"
	EventTypeVerified    EventType = "cart.verified"
)

// Topics для Kafka
const (
	TopicCartEvents      = "cart.events"
	TopicDeadLetterQueue = "cart.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers, описывающие сбой публикации в DLQ-сообщении.
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)
