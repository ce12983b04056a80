package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nfrund/shellrt/internal/topicmgr"
)

// SubscriptionOptions configures the inbound queue of a subscription.
type SubscriptionOptions struct {
	// Capacity bounds the queue; 0 means unbounded.
	Capacity int `validate:"gte=0"`
	// Overflow applies only when Capacity > 0.
	Overflow OverflowPolicy
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*SubscriptionOptions)

// WithCapacity bounds the subscription queue to n messages.
func WithCapacity(n int) SubscriptionOption {
	return func(o *SubscriptionOptions) {
		o.Capacity = n
	}
}

// WithOverflow selects what happens when a bounded queue is full.
func WithOverflow(policy OverflowPolicy) SubscriptionOption {
	return func(o *SubscriptionOptions) {
		o.Overflow = policy
	}
}

// WithDefaults applies a whole options value, usually the runtime's defaults.
func WithDefaults(defaults SubscriptionOptions) SubscriptionOption {
	return func(o *SubscriptionOptions) {
		*o = defaults
	}
}

// Subscription is an inbound FIFO of T owned by exactly one actor.
type Subscription[T any] struct {
	topic  *topicmgr.TypedTopic[T]
	queue  *queue[T]
	logger *slog.Logger

	notifyMu sync.RWMutex
	notify   func()

	failed atomic.Uint64

	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    atomic.Bool
}

// CreateSubscription binds a new queue to topic. Messages published after it
// returns are delivered to it. The topic must be registered with the bus's
// manager under the same message type, and that type must survive the bus
// codec.
func CreateSubscription[T any](bus *Bus, topic *topicmgr.TypedTopic[T], opts ...SubscriptionOption) (*Subscription[T], error) {
	if err := bus.topics.CheckRegistered(topic); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	if err := checkCopyable(topic.MessageType()); err != nil {
		return nil, fmt.Errorf("create subscription for %s: %w", topic.Name(), err)
	}

	var o SubscriptionOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.Capacity < 0 {
		return nil, fmt.Errorf("create subscription for %s: negative capacity %d", topic.Name(), o.Capacity)
	}

	s := &Subscription[T]{
		topic:  topic,
		queue:  newQueue[T](o.Capacity, o.Overflow),
		logger: bus.logger.With("topic", topic.Name()),
	}

	cancel, err := bus.subscribe(topic.Name(), s.deliver)
	if err != nil {
		return nil, err
	}
	s.cancel = cancel
	return s, nil
}

func (s *Subscription[T]) deliver(payload []byte) {
	if s.closed.Load() {
		return
	}

	// Publish already decoded this payload once, so this only fails for a
	// type whose decoder is not deterministic.
	msg, err := decode[T](payload)
	if err != nil {
		s.failed.Add(1)
		s.logger.Error("Failed to decode message", "error", err)
		return
	}

	if s.queue.push(msg) {
		s.logger.Debug("Subscription full, message dropped",
			"capacity", s.queue.capacity,
			"policy", s.queue.policy.String(),
		)
	}

	s.notifyMu.RLock()
	notify := s.notify
	s.notifyMu.RUnlock()
	if notify != nil {
		notify()
	}
}

// SetNotify installs the callback run after each enqueue. The owning actor
// uses it to wake its scheduler; it must not block.
func (s *Subscription[T]) SetNotify(fn func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.notify = fn
}

// TryTake returns the oldest pending message, or false if none is pending.
// It never blocks.
func (s *Subscription[T]) TryTake() (T, bool) {
	return s.queue.pop()
}

// Len returns the number of pending messages.
func (s *Subscription[T]) Len() int {
	return s.queue.size()
}

// Dropped returns how many messages the overflow policy has discarded.
func (s *Subscription[T]) Dropped() uint64 {
	return s.queue.droppedCount()
}

// Failed returns how many delivered messages could not be decoded.
func (s *Subscription[T]) Failed() uint64 {
	return s.failed.Load()
}

// Topic returns the topic this subscription is bound to.
func (s *Subscription[T]) Topic() *topicmgr.TypedTopic[T] {
	return s.topic
}

// Name returns the topic name, for diagnostics.
func (s *Subscription[T]) Name() string {
	return s.topic.Name()
}

// Close detaches the subscription from the bus. Messages already queued stay
// takeable; nothing new arrives.
func (s *Subscription[T]) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
	})
}
