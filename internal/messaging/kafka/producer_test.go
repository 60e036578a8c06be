package kafka

import (
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func TestProducer_PublishEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageAndSucceed()

	event := map[string]interface{}{
		"event_type": string(EventTypeItemAdded),
		"session_id": "session-123",
		"product_id": "p1",
		"quantity":   2,
	}

	err := producer.PublishEvent(TopicCartEvents, "session-123", event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event := map[string]interface{}{
		"event_type": string(EventTypeItemAdded),
		"session_id": "session-123",
	}

	err := producer.PublishEvent(TopicCartEvents, "session-123", event)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEventWithHeaders(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicDeadLetterQueue {
			return fmt.Errorf("expected topic %s, got %s", TopicDeadLetterQueue, msg.Topic)
		}
		if len(msg.Headers) != 2 {
			return fmt.Errorf("expected 2 headers, got %d", len(msg.Headers))
		}
		if string(msg.Headers[0].Key) != HeaderRetryCount || string(msg.Headers[0].Value) != "3" {
			return fmt.Errorf("unexpected first header %s=%s", msg.Headers[0].Key, msg.Headers[0].Value)
		}
		if string(msg.Headers[1].Key) != HeaderOriginalTopic || string(msg.Headers[1].Value) != TopicCartEvents {
			return fmt.Errorf("unexpected second header %s=%s", msg.Headers[1].Key, msg.Headers[1].Value)
		}
		return nil
	})

	headers := []sarama.RecordHeader{
		{Key: []byte(HeaderRetryCount), Value: []byte("3")},
		{Key: []byte(HeaderOriginalTopic), Value: []byte(TopicCartEvents)},
	}

	err := producer.PublishEventWithHeaders(TopicDeadLetterQueue, "session-123", map[string]string{"product_id": "p1"}, headers)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}
