package runtime

import (
	"time"

	"github.com/nfrund/shellrt/internal/pubsub"
	"github.com/nfrund/shellrt/internal/topicmgr"
)

// FaultTopicName carries ActorFault reports.
const FaultTopicName = "runtime.actor.fault"

// ActorFault describes an actor that stopped because of a fatal error. It is
// published on FaultTopic so whatever owns actor lifecycles can react.
//
// The fault is published just before the runtime cancels every actor, so an
// actor subscribed to FaultTopic is stopped before its next turn. Read it from
// a subscription held outside the actor set, as the application does.
type ActorFault struct {
	ActorID   string
	ActorName string
	Source    string
	Error     string
	At        time.Time
}

// FaultTopic is registered in every runtime.
var FaultTopic = topicmgr.Define[ActorFault](topicmgr.TopicConfig{
	Name:        FaultTopicName,
	Scope:       topicmgr.ScopeFramework,
	Description: "An actor stopped after a reducer error or panic",
	Example:     `{"ActorName":"snake.game","Source":"snake.tick","Error":"..."}`,
})

// Topic registers a topic definition with the runtime's registry.
func Topic[T any](rt *Runtime, cfg topicmgr.TopicConfig) (*topicmgr.TypedTopic[T], error) {
	return topicmgr.Register(rt.topics, topicmgr.Define[T](cfg))
}

// Publisher creates a publisher on the runtime's bus.
func Publisher[T any](rt *Runtime, topic *topicmgr.TypedTopic[T]) (*pubsub.Publisher[T], error) {
	return pubsub.CreatePublisher(rt.bus, topic)
}

// Subscribe creates a subscription on the runtime's bus. The runtime's
// subscription defaults apply unless opts override them.
func Subscribe[T any](rt *Runtime, topic *topicmgr.TypedTopic[T], opts ...pubsub.SubscriptionOption) (*pubsub.Subscription[T], error) {
	opts = append([]pubsub.SubscriptionOption{pubsub.WithDefaults(rt.subDefaults)}, opts...)
	return pubsub.CreateSubscription(rt.bus, topic, opts...)
}
