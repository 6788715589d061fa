package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dairymart/dairymart-backend/pkg/enums"
	"github.com/dairymart/dairymart-backend/pkg/logger"
)

const defaultPublishTimeout = 5 * time.Second

// Publisher delivers an encoded event. pubsub.TopicPublisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// Dispatcher publishes order status events without blocking the caller.
type Dispatcher struct {
	publisher Publisher
	timeout   time.Duration
	logg      *logger.Logger
	now       func() time.Time
	wg        sync.WaitGroup
}

// NewDispatcher builds a dispatcher. A nil publisher drops every event.
func NewDispatcher(publisher Publisher, timeout time.Duration, logg *logger.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &Dispatcher{publisher: publisher, timeout: timeout, logg: logg, now: time.Now}
}

// Notify publishes in the background. Failures are logged and never returned.
func (d *Dispatcher) Notify(ctx context.Context, userID, orderID uuid.UUID, status enums.OrderStatus, trackingID string) {
	if d == nil || d.publisher == nil {
		return
	}
	body, eventID, err := newEnvelope(EventOrderStatusChanged, OrderStatusChanged{
		UserID:     userID,
		OrderID:    orderID,
		Status:     status,
		TrackingID: trackingID,
	}, d.now())
	if err != nil {
		d.logError(ctx, orderID, "encode notification event", err)
		return
	}
	attrs := map[string]string{
		"event_type": EventOrderStatusChanged,
		"event_id":   eventID,
		"order_id":   orderID.String(),
	}

	publishCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(publishCtx, d.timeout)
		defer cancel()
		if _, err := d.publisher.Publish(ctx, body, attrs); err != nil {
			d.logError(ctx, orderID, "publish notification event", err)
		}
	}()
}

// Wait blocks until in-flight publishes finish.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func (d *Dispatcher) logError(ctx context.Context, orderID uuid.UUID, msg string, err error) {
	if d.logg == nil {
		return
	}
	d.logg.Error(d.logg.WithOrderID(ctx, orderID.String()), msg, err)
}
