package cart

import (
	"encoding/json"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cart/internal/domain"
	"github.com/vladislavdragonenkov/cart/internal/messaging/kafka"
)

// Типы событий корзины, попадающие в outbox. Каталог типов живёт в пакете
// kafka рядом с topic'ами.
const (
	eventCartItemAdded   = string(kafka.EventTypeItemAdded)
	eventCartItemUpdated = string(kafka.EventTypeItemUpdated)
	eventCartItemRemoved = string(kafka.EventTypeItemRemoved)
	eventCartCleared     = string(kafka.EventTypeCleared)
	eventCartVerified    = string(kafka.EventTypeVerified)

	aggregateTypeCart = "cart"
)

type itemEventPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Status    string `json:"status,omitempty"`
}

type clearedEventPayload struct {
	ItemsRemoved int32 `json:"items_removed"`
}

type verifiedEventPayload struct {
	Unavailable    int  `json:"unavailable"`
	PriceChanged   int  `json:"price_changed"`
	Adjusted       int  `json:"adjusted"`
	RequiresReview bool `json:"requires_review"`
}

// publishEvent кладёт событие в outbox. Сбой не валит операцию: корзина уже
// сохранена, событие только потеряется, что логируется как warning.
func (s *Service) publishEvent(sessionID, eventType string, payload any) {
	if s.outbox == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).WithField("event_type", eventType).Warn("failed to marshal cart event")
		return
	}

	_, err = s.outbox.Enqueue(domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: aggregateTypeCart,
		AggregateID:   sessionID,
		EventType:     eventType,
		Payload:       body,
	})
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"session_id": sessionID,
		}).Warn("failed to enqueue cart event")
	}
}
