package kafka

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// EventPublisher публикует доменные события CRM в заданный Kafka topic.
// Ключ сообщения — идентификатор созданной записи.
type EventPublisher struct {
	producer *Producer
	topic    string
}

// NewEventPublisher создаёт паблишер. Пустой topic заменяется на TopicCRMEvents.
func NewEventPublisher(producer *Producer, topic string) *EventPublisher {
	if topic == "" {
		topic = TopicCRMEvents
	}
	return &EventPublisher{
		producer: producer,
		topic:    topic,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, event domain.Event) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka event publisher is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	return p.producer.PublishEvent(p.topic, event.AggregateID, NewEnvelope(event))
}

var _ domain.EventPublisher = (*EventPublisher)(nil)
