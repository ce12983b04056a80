package pubsub_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/shellrt/internal/core/dirqueue"
	"github.com/nfrund/shellrt/internal/pubsub"
	"github.com/nfrund/shellrt/internal/topicmgr"
)

type DirectionMsg struct {
	PlayerID  int
	Direction string
}

type Snapshot struct {
	Cells map[int][]int
}

func newBus(t *testing.T) (*pubsub.Bus, *topicmgr.Manager) {
	t.Helper()
	mgr := topicmgr.NewManager()
	bus := pubsub.NewBus(mgr)
	t.Cleanup(func() { _ = bus.Close() })
	return bus, mgr
}

func registerTopic[T any](t *testing.T, mgr *topicmgr.Manager, name string) *topicmgr.TypedTopic[T] {
	t.Helper()
	topic, err := topicmgr.Register(mgr, topicmgr.Define[T](topicmgr.TopicConfig{
		Name:        name,
		Module:      "test",
		Description: "test topic " + name,
	}))
	require.NoError(t, err)
	return topic
}

func TestPublishSubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("FIFO delivery", func(t *testing.T) {
		bus, mgr := newBus(t)
		topic := registerTopic[DirectionMsg](t, mgr, "test.direction")

		sub, err := pubsub.CreateSubscription(bus, topic)
		require.NoError(t, err)
		pub, err := pubsub.CreatePublisher(bus, topic)
		require.NoError(t, err)

		for i := 1; i <= 50; i++ {
			require.NoError(t, pub.Publish(ctx, DirectionMsg{PlayerID: i, Direction: "up"}))
		}

		assert.Equal(t, 50, sub.Len())
		for i := 1; i <= 50; i++ {
			msg, ok := sub.TryTake()
			require.True(t, ok)
			assert.Equal(t, i, msg.PlayerID)
		}
		_, ok := sub.TryTake()
		assert.False(t, ok, "drained subscription reports empty")
	})

	t.Run("Publish with no subscriptions is a no-op", func(t *testing.T) {
		bus, mgr := newBus(t)
		topic := registerTopic[DirectionMsg](t, mgr, "test.direction")

		pub, err := pubsub.CreatePublisher(bus, topic)
		require.NoError(t, err)
		assert.NoError(t, pub.Publish(ctx, DirectionMsg{PlayerID: 1}))

		// A subscription created afterwards sees nothing from before.
		sub, err := pubsub.CreateSubscription(bus, topic)
		require.NoError(t, err)
		assert.Equal(t, 0, sub.Len())
	})

	t.Run("Fan-out gives every subscription its own copy", func(t *testing.T) {
		bus, mgr := newBus(t)
		topic := registerTopic[Snapshot](t, mgr, "test.snapshot")

		subA, err := pubsub.CreateSubscription(bus, topic)
		require.NoError(t, err)
		subB, err := pubsub.CreateSubscription(bus, topic)
		require.NoError(t, err)
		pub, err := pubsub.CreatePublisher(bus, topic)
		require.NoError(t, err)

		original := Snapshot{Cells: map[int][]int{1: {1, 2}}}
		require.NoError(t, pub.Publish(ctx, original))

		a, ok := subA.TryTake()
		require.True(t, ok)
		b, ok := subB.TryTake()
		require.True(t, ok)

		a.Cells[1][0] = 99
		assert.Equal(t, 1, b.Cells[1][0], "mutating one copy must not affect another subscriber")
		assert.Equal(t, 1, original.Cells[1][0], "or the publisher's value")
	})

	t.Run("Topics are isolated from each other", func(t *testing.T) {
		bus, mgr := newBus(t)
		left := registerTopic[DirectionMsg](t, mgr, "test.left")
		right := registerTopic[DirectionMsg](t, mgr, "test.right")

		subLeft, err := pubsub.CreateSubscription(bus, left)
		require.NoError(t, err)
		pubRight, err := pubsub.CreatePublisher(bus, right)
		require.NoError(t, err)

		require.NoError(t, pubRight.Publish(ctx, DirectionMsg{PlayerID: 1}))
		assert.Equal(t, 0, subLeft.Len())
	})

	t.Run("Notify runs after enqueue", func(t *testing.T) {
		bus, mgr := newBus(t)
		topic := registerTopic[DirectionMsg](t, mgr, "test.direction")

		sub, err := pubsub.CreateSubscription(bus, topic)
		require.NoError(t, err)

		var mu sync.Mutex
		seen := 0
		sub.SetNotify(func() {
			mu.Lock()
			defer mu.Unlock()
			seen += sub.Len()
		})

		pub, err := pubsub.CreatePublisher(bus, topic)
		require.NoError(t, err)
		require.NoError(t, pub.Publish(ctx, DirectionMsg{PlayerID: 1}))

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, seen, "the message is queued before notify runs")
	})

	t.Run("Close keeps queued messages and stops new ones", func(t *testing.T) {
		bus, mgr := newBus(t)
		topic := registerTopic[DirectionMsg](t, mgr, "test.direction")

		sub, err := pubsub.CreateSubscription(bus, topic)
		require.NoError(t, err)
		pub, err := pubsub.CreatePublisher(bus, topic)
		require.NoError(t, err)

		require.NoError(t, pub.Publish(ctx, DirectionMsg{PlayerID: 1}))
		sub.Close()
		require.NoError(t, pub.Publish(ctx, DirectionMsg{PlayerID: 2}))

		msg, ok := sub.TryTake()
		require.True(t, ok)
		assert.Equal(t, 1, msg.PlayerID)
		_, ok = sub.TryTake()
		assert.False(t, ok)
	})
}

func TestBoundedSubscription(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		policy pubsub.OverflowPolicy
		want   []int
	}{
		{"drop oldest keeps the newest", pubsub.OverflowDropOldest, []int{3, 4, 5}},
		{"drop newest keeps the oldest", pubsub.OverflowDropNewest, []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus, mgr := newBus(t)
			topic := registerTopic[DirectionMsg](t, mgr, "test.direction")

			sub, err := pubsub.CreateSubscription(bus, topic,
				pubsub.WithCapacity(3), pubsub.WithOverflow(tt.policy))
			require.NoError(t, err)
			pub, err := pubsub.CreatePublisher(bus, topic)
			require.NoError(t, err)

			for i := 1; i <= 5; i++ {
				require.NoError(t, pub.Publish(ctx, DirectionMsg{PlayerID: i}))
			}

			var got []int
			for {
				msg, ok := sub.TryTake()
				if !ok {
					break
				}
				got = append(got, msg.PlayerID)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, uint64(2), sub.Dropped())
		})
	}
}

func TestConfigurationErrors(t *testing.T) {
	bus, mgr := newBus(t)

	unregistered := topicmgr.Define[DirectionMsg](topicmgr.TopicConfig{Name: "test.missing", Description: "x"})
	_, err := pubsub.CreatePublisher(bus, unregistered)
	assert.True(t, errors.Is(err, topicmgr.ErrTopicNotFound))
	_, err = pubsub.CreateSubscription(bus, unregistered)
	assert.True(t, errors.Is(err, topicmgr.ErrTopicNotFound))

	registerTopic[DirectionMsg](t, mgr, "test.direction")
	mismatched := topicmgr.Define[Snapshot](topicmgr.TopicConfig{Name: "test.direction", Description: "x"})
	_, err = pubsub.CreateSubscription(bus, mismatched)
	assert.True(t, errors.Is(err, topicmgr.ErrTypeMismatch))

	topic := registerTopic[Snapshot](t, mgr, "test.snapshot")
	_, err = pubsub.CreateSubscription(bus, topic, pubsub.WithCapacity(-1))
	assert.Error(t, err)
}

func TestClosedBus(t *testing.T) {
	mgr := topicmgr.NewManager()
	bus := pubsub.NewBus(mgr)
	topic := registerTopic[DirectionMsg](t, mgr, "test.direction")

	pub, err := pubsub.CreatePublisher(bus, topic)
	require.NoError(t, err)

	require.NoError(t, bus.Close())
	assert.NoError(t, bus.Close(), "Close is idempotent")

	err = pub.Publish(context.Background(), DirectionMsg{PlayerID: 1})
	assert.True(t, errors.Is(err, pubsub.ErrBusClosed))

	_, err = pubsub.CreateSubscription(bus, topic)
	assert.True(t, errors.Is(err, pubsub.ErrBusClosed))
}

func TestParseOverflowPolicy(t *testing.T) {
	p, err := pubsub.ParseOverflowPolicy("drop_newest")
	require.NoError(t, err)
	assert.Equal(t, pubsub.OverflowDropNewest, p)

	p, err = pubsub.ParseOverflowPolicy("")
	require.NoError(t, err)
	assert.Equal(t, pubsub.OverflowDropOldest, p)

	_, err = pubsub.ParseOverflowPolicy("block")
	assert.Error(t, err)
}

type hiddenPlayer struct {
	player int
	Dir    string
}

type withCallback struct {
	OnDone func()
}

type withChannel struct {
	Done chan struct{}
}

type withAny struct {
	Payload any
}

type withSkipped struct {
	Seq   int
	Cache []int `msgpack:"-"`
}

type nestedHidden struct {
	Moves []hiddenPlayer
}

type position struct {
	X, Y int
}

// Placed embeds an unexported struct whose fields are exported.
type Placed struct {
	position
	At    time.Time
	Queue dirqueue.State
}

// Checked refuses to decode a negative value.
type Checked struct {
	N int
}

func (c Checked) MarshalBinary() ([]byte, error) {
	return []byte{byte(int8(c.N))}, nil
}

func (c *Checked) UnmarshalBinary(data []byte) error {
	n := int(int8(data[0]))
	if n < 0 {
		return errors.New("negative value")
	}
	c.N = n
	return nil
}

// Flaky fails every second decode.
type Flaky struct {
	N int
}

var flakyDecodes atomic.Int32

func (f Flaky) MarshalBinary() ([]byte, error) {
	return []byte{byte(f.N)}, nil
}

func (f *Flaky) UnmarshalBinary(data []byte) error {
	if flakyDecodes.Add(1)%2 == 0 {
		return errors.New("decoder gave up")
	}
	f.N = int(data[0])
	return nil
}

func TestMessageTypeContract(t *testing.T) {
	rejected := []struct {
		name  string
		setup func(t *testing.T, bus *pubsub.Bus, mgr *topicmgr.Manager) (pubErr, subErr error)
	}{
		{"unexported field", func(t *testing.T, bus *pubsub.Bus, mgr *topicmgr.Manager) (error, error) {
			return handles(t, bus, registerTopic[hiddenPlayer](t, mgr, "test.hidden"))
		}},
		{"unexported field in a slice element", func(t *testing.T, bus *pubsub.Bus, mgr *topicmgr.Manager) (error, error) {
			return handles(t, bus, registerTopic[nestedHidden](t, mgr, "test.nested"))
		}},
		{"func field", func(t *testing.T, bus *pubsub.Bus, mgr *topicmgr.Manager) (error, error) {
			return handles(t, bus, registerTopic[withCallback](t, mgr, "test.callback"))
		}},
		{"chan field", func(t *testing.T, bus *pubsub.Bus, mgr *topicmgr.Manager) (error, error) {
			return handles(t, bus, registerTopic[withChannel](t, mgr, "test.channel"))
		}},
		{"interface field", func(t *testing.T, bus *pubsub.Bus, mgr *topicmgr.Manager) (error, error) {
			return handles(t, bus, registerTopic[withAny](t, mgr, "test.any"))
		}},
		{"field excluded by tag", func(t *testing.T, bus *pubsub.Bus, mgr *topicmgr.Manager) (error, error) {
			return handles(t, bus, registerTopic[withSkipped](t, mgr, "test.skipped"))
		}},
	}

	for _, tt := range rejected {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			bus, mgr := newBus(t)
			pubErr, subErr := tt.setup(t, bus, mgr)
			assert.True(t, errors.Is(pubErr, pubsub.ErrUnsupportedMessage), "publisher: %v", pubErr)
			assert.True(t, errors.Is(subErr, pubsub.ErrUnsupportedMessage), "subscription: %v", subErr)
		})
	}

	t.Run("accepts self-encoding and embedded fields", func(t *testing.T) {
		bus, mgr := newBus(t)
		topic := registerTopic[Placed](t, mgr, "test.placed")

		sub, err := pubsub.CreateSubscription(bus, topic)
		require.NoError(t, err)
		pub, err := pubsub.CreatePublisher(bus, topic)
		require.NoError(t, err)

		at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		queue := dirqueue.Push(dirqueue.Push(dirqueue.New(), 7, dirqueue.Up), 7, dirqueue.Left)
		require.NoError(t, pub.Publish(context.Background(), Placed{position: position{X: 2, Y: 3}, At: at, Queue: queue}))

		got, ok := sub.TryTake()
		require.True(t, ok)
		assert.Equal(t, 2, got.X)
		assert.Equal(t, 3, got.Y)
		assert.True(t, at.Equal(got.At), "time survives up to its location")

		// The opaque state arrives whole and still works with its own functions.
		assert.Equal(t, 2, dirqueue.Pending(got.Queue, 7))
		_, dir, ok := dirqueue.TryConsumeNext(got.Queue, 7)
		require.True(t, ok)
		assert.Equal(t, dirqueue.Up, dir)
	})
}

func handles[T any](t *testing.T, bus *pubsub.Bus, topic *topicmgr.TypedTopic[T]) (error, error) {
	t.Helper()
	_, pubErr := pubsub.CreatePublisher(bus, topic)
	_, subErr := pubsub.CreateSubscription(bus, topic)
	return pubErr, subErr
}

func TestUndecodableMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("Publish rejects a value that cannot be decoded", func(t *testing.T) {
		bus, mgr := newBus(t)
		topic := registerTopic[Checked](t, mgr, "test.checked")

		sub, err := pubsub.CreateSubscription(bus, topic)
		require.NoError(t, err)
		pub, err := pubsub.CreatePublisher(bus, topic)
		require.NoError(t, err)

		err = pub.Publish(ctx, Checked{N: -1})
		assert.True(t, errors.Is(err, pubsub.ErrUnsupportedMessage), "got %v", err)
		assert.Equal(t, 0, sub.Len(), "nothing reaches the subscription")

		require.NoError(t, pub.Publish(ctx, Checked{N: 4}))
		msg, ok := sub.TryTake()
		require.True(t, ok)
		assert.Equal(t, 4, msg.N)
	})

	t.Run("A failed delivery is counted", func(t *testing.T) {
		bus, mgr := newBus(t)
		topic := registerTopic[Flaky](t, mgr, "test.flaky")
		flakyDecodes.Store(0)

		sub, err := pubsub.CreateSubscription(bus, topic)
		require.NoError(t, err)
		pub, err := pubsub.CreatePublisher(bus, topic)
		require.NoError(t, err)

		// The publisher's check decodes first; the subscription's decode fails.
		require.NoError(t, pub.Publish(ctx, Flaky{N: 1}))
		assert.Equal(t, 0, sub.Len())
		assert.Equal(t, uint64(1), sub.Failed())
	})
}
