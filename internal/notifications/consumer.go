package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	"github.com/dairymart/dairymart-backend/pkg/idempotency"
	"github.com/dairymart/dairymart-backend/pkg/logger"
)

const orderNotificationConsumer = "order-notifications"

type creator interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer turns order status events into in-app notifications.
type Consumer struct {
	repo         creator
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer. The subscription may be
// nil when events are delivered in-process through InlinePublisher.
func NewConsumer(repo creator, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("notification subscription required")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Data, msg.Attributes)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, messageID string, data []byte, attrs map[string]string) processResult {
	eventType := attrs["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != EventOrderStatusChanged {
		c.logg.Info(logCtx, "skipping unrelated event")
		return processResult{ack: true}
	}

	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload OrderStatusChanged
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithOrderID(logCtx, payload.OrderID.String())
	logCtx = c.logg.WithField(logCtx, "status", payload.Status)

	if err := c.createOrderNotification(ctx, payload); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	c.logg.Info(logCtx, "customer notified of order status")
	return processResult{ack: true}
}

func (c *Consumer) createOrderNotification(ctx context.Context, payload OrderStatusChanged) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}
	if payload.OrderID == uuid.Nil {
		return fmt.Errorf("order id missing")
	}
	orderID := payload.OrderID
	notification := &models.Notification{
		UserID:  payload.UserID,
		OrderID: &orderID,
		Type:    enums.NotificationTypeOrderStatus,
		Title:   "Order " + strings.ToLower(string(payload.Status)),
		Message: StatusMessage(payload.OrderID, payload.Status, payload.TrackingID),
		Link:    stringPtr(fmt.Sprintf("/orders/%s", payload.OrderID)),
	}
	return c.repo.Create(ctx, notification)
}

// StatusMessage renders the customer-facing text for a status change.
func StatusMessage(orderID uuid.UUID, status enums.OrderStatus, trackingID string) string {
	ref := strings.ToUpper(strings.ReplaceAll(orderID.String(), "-", "")[:8])
	message := fmt.Sprintf("Your order %s is now %s.", ref, status)
	if trackingID != "" && status == enums.OrderStatusShipped {
		message += " Tracking ID: " + trackingID
	}
	return message
}

// InlinePublisher hands events straight to a consumer. Used when no Pub/Sub
// topic is configured.
type InlinePublisher struct {
	consumer *Consumer
}

func NewInlinePublisher(consumer *Consumer) *InlinePublisher {
	return &InlinePublisher{consumer: consumer}
}

func (p *InlinePublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	id := attrs["event_id"]
	if result := p.consumer.process(ctx, id, data, attrs); result.nack {
		return "", fmt.Errorf("inline notification delivery failed")
	}
	return id, nil
}

func stringPtr(value string) *string {
	return &value
}
