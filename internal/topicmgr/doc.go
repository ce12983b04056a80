// Package topicmgr provides the message and topic registry for a shellrt runtime.
//
// A topic is identified by its name and bound to exactly one Go message type.
// Topics carry no routing state of their own: they are definitions that the
// pubsub bus uses to connect publishers to subscriptions. Each runtime owns one
// Manager; there is no process-wide registry.
//
// Key Features:
//   - Typed topic definitions (TypedTopic[T]) so publishers and subscriptions
//     cannot disagree on the payload type
//   - Framework/module scoping for runtime-owned and application topics
//   - Validation of names and definitions at registration time
//   - Structured TopicError values that work with errors.Is
//
// Usage:
//
// Module topics are defined by application modules:
//
//	var TopicDirection = topicmgr.Define[DirectionMsg](topicmgr.TopicConfig{
//		Name:        "snake.input.direction",
//		Module:      "snake",
//		Description: "A player changed direction",
//	})
//
// Topics are registered with the runtime's manager:
//
//	topic, err := topicmgr.Register(mgr, TopicDirection)
//	if err != nil {
//		return err
//	}
//
// Registering the same name twice with the same message type is idempotent;
// registering it with a different type fails with ErrorTypeMismatch.
package topicmgr
