package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

func newTestProducer(t *testing.T) (*Producer, *mocks.SyncProducer) {
	t.Helper()

	mockProducer := mocks.NewSyncProducer(t, nil)
	return newProducer(mockProducer, log.WithField("component", "kafka-producer-test")), mockProducer
}

func TestProducer_PublishEvent(t *testing.T) {
	producer, mockProducer := newTestProducer(t)
	mockProducer.ExpectSendMessageAndSucceed()

	event := NewEnvelope(domain.Event{
		Type:        domain.EventCustomerCreated,
		AggregateID: "cust-1",
		Payload:     map[string]interface{}{"email": "a@x.com"},
	})
	if err := producer.PublishEvent(TopicCRMEvents, "cust-1", event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	producer, mockProducer := newTestProducer(t)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.PublishEvent(TopicCRMEvents, "cust-1", NewEnvelope(domain.Event{Type: domain.EventCustomerCreated}))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_MarshalError(t *testing.T) {
	producer, mockProducer := newTestProducer(t)

	// Каналы не сериализуются в JSON, сообщение не отправляется.
	if err := producer.PublishEvent(TopicCRMEvents, "k", map[string]interface{}{"bad": make(chan int)}); err == nil {
		t.Fatal("expected marshal error")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestEventPublisher_Publish(t *testing.T) {
	producer, mockProducer := newTestProducer(t)
	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		envelope, err := DecodeEnvelope(value)
		if err != nil {
			return err
		}
		if envelope.EventType != domain.EventOrderCreated {
			return errors.New("unexpected event type " + string(envelope.EventType))
		}
		if envelope.AggregateID != "order-1" {
			return errors.New("unexpected aggregate id " + envelope.AggregateID)
		}
		if envelope.Payload["total_amount"] != "25.50" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	publisher := NewEventPublisher(producer, "")
	if publisher.topic != TopicCRMEvents {
		t.Fatalf("expected default topic %s, got %s", TopicCRMEvents, publisher.topic)
	}

	err := publisher.Publish(context.Background(), domain.Event{
		Type:        domain.EventOrderCreated,
		AggregateID: "order-1",
		Payload:     map[string]any{"total_amount": "25.50"},
		OccurredAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestEventPublisher_PublishErrors(t *testing.T) {
	var nilPublisher *EventPublisher
	if err := nilPublisher.Publish(context.Background(), domain.Event{}); err == nil {
		t.Fatal("expected error for nil publisher")
	}

	producer, mockProducer := newTestProducer(t)
	publisher := NewEventPublisher(producer, "custom.topic")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := publisher.Publish(ctx, domain.Event{Type: domain.EventProductCreated}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	mockProducer.ExpectSendMessageAndFail(sarama.ErrNotConnected)
	if err := publisher.Publish(context.Background(), domain.Event{Type: domain.EventProductCreated, AggregateID: "p-1"}); err == nil {
		t.Fatal("expected producer error")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDecodeEnvelope(t *testing.T) {
	if _, err := DecodeEnvelope([]byte(`{"aggregate_id":"x"}`)); err == nil {
		t.Fatal("expected error for missing event_type")
	}
	if _, err := DecodeEnvelope([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}

	envelope, err := DecodeEnvelope([]byte(`{"event_type":"product.created","aggregate_id":"p-1","payload":{"stock":3}}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if envelope.EventType != domain.EventProductCreated || envelope.AggregateID != "p-1" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestNewProducer_NoBrokers(t *testing.T) {
	if _, err := NewProducer(nil); err == nil {
		t.Fatal("expected error without brokers")
	}
}
