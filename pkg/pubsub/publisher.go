package pubsub

import (
	"context"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// TopicPublisher adapts a v2 Publisher to a publish-and-wait call.
type TopicPublisher struct {
	publisher *pubsub.Publisher
}

// NewTopicPublisher wraps p; it returns nil when p is nil.
func NewTopicPublisher(p *pubsub.Publisher) *TopicPublisher {
	if p == nil {
		return nil
	}
	return &TopicPublisher{publisher: p}
}

// Publish sends data with attributes and blocks until the server acknowledges it.
func (t *TopicPublisher) Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error) {
	if t == nil || t.publisher == nil {
		return "", errors.New("publisher not configured")
	}
	result := t.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes})
	if result == nil {
		return "", errors.New("publish result is nil")
	}
	return result.Get(ctx)
}

// Stop flushes pending messages.
func (t *TopicPublisher) Stop() {
	if t == nil || t.publisher == nil {
		return
	}
	t.publisher.Stop()
}
