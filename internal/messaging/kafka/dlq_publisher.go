package kafka

import (
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/cart/internal/domain"
)

// DLQPublisher отправляет события, которые не удалось опубликовать, в dead
// letter topic. Контекст сбоя уходит в record headers, payload остаётся
// исходным envelope, чтобы событие можно было переотправить как есть.
type DLQPublisher struct {
	producer    *Producer
	sourceTopic string
	topic       string
}

// NewDLQPublisher создаёт DLQ-паблишер. sourceTopic — topic, публикация в
// который провалилась; он записывается в header x-original-topic.
func NewDLQPublisher(producer *Producer, sourceTopic string) *DLQPublisher {
	if sourceTopic == "" {
		sourceTopic = TopicCartEvents
	}
	return &DLQPublisher{
		producer:    producer,
		sourceTopic: sourceTopic,
		topic:       TopicDeadLetterQueue,
	}
}

// PublishFailed публикует событие в DLQ с числом попыток и текстом ошибки
// в headers.
func (p *DLQPublisher) PublishFailed(event domain.OutboxMessage, attempts int, publishErr error) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka dlq publisher is not initialized")
	}

	errorMessage := ""
	if publishErr != nil {
		errorMessage = publishErr.Error()
	}
	headers := []sarama.RecordHeader{
		{Key: []byte(HeaderRetryCount), Value: []byte(strconv.Itoa(attempts))},
		{Key: []byte(HeaderOriginalTopic), Value: []byte(p.sourceTopic)},
		{Key: []byte(HeaderErrorMessage), Value: []byte(errorMessage)},
		{Key: []byte(HeaderFailedAt), Value: []byte(time.Now().UTC().Format(time.RFC3339Nano))},
	}

	return p.producer.PublishEventWithHeaders(p.topic, partitionKey(event), newEventEnvelope(event), headers)
}

var _ domain.DeadLetterPublisher = (*DLQPublisher)(nil)
