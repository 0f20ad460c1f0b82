package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// TopicCRMEvents — topic по умолчанию для доменных событий CRM.
const TopicCRMEvents = "crm.events"

// Envelope — формат сообщения о созданной записи.
type Envelope struct {
	EventType   domain.EventType       `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	PublishedAt time.Time              `json:"published_at"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// NewEnvelope упаковывает доменное событие для отправки.
func NewEnvelope(event domain.Event) *Envelope {
	return &Envelope{
		EventType:   event.Type,
		AggregateID: event.AggregateID,
		OccurredAt:  event.OccurredAt.UTC(),
		PublishedAt: time.Now().UTC(),
		Payload:     event.Payload,
	}
}

// DecodeEnvelope разбирает значение сообщения.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal crm event: %w", err)
	}
	if envelope.EventType == "" {
		return nil, fmt.Errorf("crm event has no event_type")
	}
	return &envelope, nil
}
