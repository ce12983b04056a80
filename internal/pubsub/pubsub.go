// Package pubsub implements topic-addressed fan-out between actors.
//
// A Publisher is a write-only handle bound to one topic. A Subscription is a
// per-actor inbound queue bound to one topic and drained with the
// non-blocking TryTake. Publishing copies the message into every subscription
// currently bound to the topic; with no subscriptions it is a silent no-op.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nfrund/shellrt/internal/topicmgr"
)

// ErrBusClosed is returned by operations on a closed Bus.
var ErrBusClosed = errors.New("pubsub: bus closed")

// Bus routes messages from publishers to subscriptions within one runtime.
// It is safe for concurrent use by any number of actors.
type Bus struct {
	topics *topicmgr.Manager
	pubsub *gochannel.GoChannel
	logger *slog.Logger
	tracer trace.Tracer

	closed atomic.Bool
	// Pump goroutines, one per live subscription.
	pumps sync.WaitGroup
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used by the bus and the underlying watermill Pub/Sub.
func WithLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithTracer records a span for every publish.
func WithTracer(tracer trace.Tracer) BusOption {
	return func(b *Bus) {
		b.tracer = tracer
	}
}

// NewBus creates an in-memory bus whose topics are resolved against mgr.
func NewBus(mgr *topicmgr.Manager, opts ...BusOption) *Bus {
	b := &Bus{
		topics: mgr,
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("shellrt-pubsub"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "pubsub")

	// Publish returns only after every subscriber's pump has acked, and a pump
	// acks right after enqueueing. That makes delivery into each subscription
	// FIFO per publisher and keeps a publish from outliving its caller's turn.
	b.pubsub = gochannel.NewGoChannel(
		gochannel.Config{
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: true,
		},
		NewSlogAdapter(b.logger),
	)
	return b
}

// Topics returns the manager the bus validates handles against.
func (b *Bus) Topics() *topicmgr.Manager {
	return b.topics
}

// Close shuts the bus down. Existing subscriptions keep whatever they already
// queued; publishing afterwards returns ErrBusClosed.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := b.pubsub.Close()
	b.pumps.Wait()
	b.logger.Debug("Bus closed")
	return err
}

func (b *Bus) publish(ctx context.Context, topic string, payload []byte) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	ctx, span := b.tracer.Start(ctx, fmt.Sprintf("pubsub.publish.%s", topic),
		trace.WithAttributes(
			attribute.String("messaging.system", "watermill"),
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.destination", topic),
			attribute.Int("messaging.message_payload_size_bytes", len(payload)),
		),
	)
	defer span.End()

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(topic, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// subscribe attaches deliver to topic. deliver runs on the pump goroutine and
// must not block. The returned cancel detaches the pump.
func (b *Bus) subscribe(topic string, deliver func(payload []byte)) (context.CancelFunc, error) {
	if b.closed.Load() {
		return nil, ErrBusClosed
	}

	ctx, cancel := context.WithCancel(context.Background())
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	b.pumps.Add(1)
	go func() {
		defer b.pumps.Done()
		for msg := range messages {
			deliver(msg.Payload)
			msg.Ack()
		}
		b.logger.Debug("Subscription pump ended", "topic", topic)
	}()

	return cancel, nil
}
