package pubsub

import (
	"context"
	"fmt"

	"github.com/nfrund/shellrt/internal/topicmgr"
)

// Publisher is a write-only handle bound to one topic.
type Publisher[T any] struct {
	bus   *Bus
	topic *topicmgr.TypedTopic[T]
}

// CreatePublisher returns a publisher for topic. The topic must be registered
// with the bus's manager under the same message type, and that type must
// survive the bus codec.
func CreatePublisher[T any](bus *Bus, topic *topicmgr.TypedTopic[T]) (*Publisher[T], error) {
	if err := bus.topics.CheckRegistered(topic); err != nil {
		return nil, fmt.Errorf("create publisher: %w", err)
	}
	if err := checkCopyable(topic.MessageType()); err != nil {
		return nil, fmt.Errorf("create publisher for %s: %w", topic.Name(), err)
	}
	return &Publisher[T]{bus: bus, topic: topic}, nil
}

// Topic returns the topic this publisher writes to.
func (p *Publisher[T]) Topic() *topicmgr.TypedTopic[T] {
	return p.topic
}

// Publish copies msg into every subscription currently bound to the topic.
// It returns once each of them has queued its copy; it never waits for a
// consumer to drain. With no subscriptions it does nothing. A value that
// cannot be decoded again is rejected here, before any subscription sees it.
func (p *Publisher[T]) Publish(ctx context.Context, msg T) error {
	payload, err := encode(msg)
	if err != nil {
		return fmt.Errorf("%w: encode for %s: %v", ErrUnsupportedMessage, p.topic.Name(), err)
	}
	if _, err := decode[T](payload); err != nil {
		return fmt.Errorf("%w: decode for %s: %v", ErrUnsupportedMessage, p.topic.Name(), err)
	}
	return p.bus.publish(ctx, p.topic.Name(), payload)
}
