package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dairymart/dairymart-backend/pkg/enums"
)

// EventOrderStatusChanged is published after an order status change commits.
const EventOrderStatusChanged = "order.status_changed"

const envelopeVersion = 1

// Envelope is the stable message body published to the notification topic.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// OrderStatusChanged is the payload of EventOrderStatusChanged.
type OrderStatusChanged struct {
	UserID     uuid.UUID         `json:"userId"`
	OrderID    uuid.UUID         `json:"orderId"`
	Status     enums.OrderStatus `json:"status"`
	TrackingID string            `json:"trackingId,omitempty"`
}

func newEnvelope(eventType string, payload any, now time.Time) ([]byte, string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}
	eventID := uuid.NewString()
	body, err := json.Marshal(Envelope{
		Version:    envelopeVersion,
		EventID:    eventID,
		EventType:  eventType,
		OccurredAt: now.UTC(),
		Data:       data,
	})
	if err != nil {
		return nil, "", err
	}
	return body, eventID, nil
}
