package domain

import (
	"context"
	"time"
)

// EventType задаёт тип доменного события.
type EventType string

const (
	EventCustomerCreated EventType = "customer.created"
	EventProductCreated  EventType = "product.created"
	EventOrderCreated    EventType = "order.created"
)

// Event — уведомление о созданной записи. Публикуется после фиксации в хранилище.
type Event struct {
	Type        EventType
	AggregateID string
	Payload     map[string]any
	OccurredAt  time.Time
}

// EventPublisher отправляет доменные события во внешний брокер.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher отбрасывает события; используется, когда брокер не настроен.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

var _ EventPublisher = NoopPublisher{}
