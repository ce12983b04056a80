package topicmgr

import (
	"fmt"
	"strings"
)

// Manager provides the main API for topic management. A runtime owns exactly
// one Manager and passes it explicitly to whatever needs it.
type Manager struct {
	registry  *Registry
	validator *Validator
}

// NewManager creates a new topic manager with registry and validator
func NewManager() *Manager {
	return &Manager{
		registry:  NewRegistry(),
		validator: NewValidator(),
	}
}

// Register validates a topic and adds it to the registry. It returns the
// registered topic, which is the existing one if the name was already taken by
// a topic of the same message type.
func (m *Manager) Register(topic Topic) (Topic, error) {
	if err := m.validator.ValidateDefinition(topic); err != nil {
		name, module := "", ""
		if topic != nil {
			name, module = topic.Name(), topic.Module()
		}
		return nil, &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   name,
			Module:  module,
			Message: "topic validation failed",
			Cause:   err,
		}
	}

	return m.registry.Register(topic)
}

// MustRegister registers a topic and panics on error (for static setup)
func (m *Manager) MustRegister(topic Topic) Topic {
	registered, err := m.Register(topic)
	if err != nil {
		panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
	}
	return registered
}

// Register registers a typed topic and returns the typed handle that is now
// canonical for its name.
func Register[T any](m *Manager, topic *TypedTopic[T]) (*TypedTopic[T], error) {
	registered, err := m.Register(topic)
	if err != nil {
		return nil, err
	}
	typed, ok := registered.(*TypedTopic[T])
	if !ok {
		return nil, &TopicError{
			Type:    ErrorTypeMismatch,
			Topic:   topic.Name(),
			Module:  topic.Module(),
			Message: fmt.Sprintf("topic %s is registered with type %s", topic.Name(), registered.MessageType()),
		}
	}
	return typed, nil
}

// Resolve looks up a registered topic by name and checks that it carries T.
func Resolve[T any](m *Manager, name string) (*TypedTopic[T], error) {
	topic, ok := m.Get(name)
	if !ok {
		return nil, &TopicError{
			Type:    ErrorTopicNotFound,
			Topic:   name,
			Message: fmt.Sprintf("topic not found: %s", name),
		}
	}
	typed, ok := topic.(*TypedTopic[T])
	if !ok {
		return nil, &TopicError{
			Type:   ErrorTypeMismatch,
			Topic:  name,
			Module: topic.Module(),
			Message: fmt.Sprintf("topic %s carries %s, not %s",
				name, topic.MessageType(), typeOf[T]()),
		}
	}
	return typed, nil
}

// CheckRegistered verifies that this exact topic definition is the one
// registered under its name. Handles are only created for registered topics.
func (m *Manager) CheckRegistered(topic Topic) error {
	if topic == nil {
		return &TopicError{Type: ErrorTopicNotFound, Message: "nil topic"}
	}
	registered, ok := m.Get(topic.Name())
	if !ok {
		return &TopicError{
			Type:    ErrorTopicNotFound,
			Topic:   topic.Name(),
			Module:  topic.Module(),
			Message: fmt.Sprintf("topic not registered: %s", topic.Name()),
		}
	}
	if registered.MessageType() != topic.MessageType() {
		return &TopicError{
			Type:   ErrorTypeMismatch,
			Topic:  topic.Name(),
			Module: topic.Module(),
			Message: fmt.Sprintf("topic %s is registered with type %s, not %s",
				topic.Name(), registered.MessageType(), topic.MessageType()),
		}
	}
	return nil
}

// Get retrieves a topic by name
func (m *Manager) Get(name string) (Topic, bool) {
	return m.registry.Get(name)
}

// List returns all registered topics
func (m *Manager) List() []Topic {
	return m.registry.List()
}

// ListByModule returns topics for a specific module
func (m *Manager) ListByModule(module string) []Topic {
	return m.registry.ListByModule(module)
}

// ListByScope returns topics for a specific scope (framework or module)
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	return m.registry.ListByScope(scope)
}

// ValidateTopicName checks if a topic name is valid without creating a topic
func (m *Manager) ValidateTopicName(name string) error {
	return m.validator.ValidateName(name)
}

// Validate checks a topic definition without registering it
func (m *Manager) Validate(topic Topic) error {
	return m.validator.ValidateDefinition(topic)
}

// Count returns the total number of registered topics
func (m *Manager) Count() int {
	return m.registry.Count()
}

// GetStats returns registry statistics
func (m *Manager) GetStats() RegistryStats {
	return m.registry.GetStats()
}

// FindTopics searches for topics matching a pattern. A trailing '*' matches
// any suffix.
func (m *Manager) FindTopics(pattern string) []Topic {
	var matches []Topic
	for _, topic := range m.registry.List() {
		if matchesPattern(topic.Name(), pattern) {
			matches = append(matches, topic)
		}
	}
	return matches
}

func matchesPattern(name, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return name == pattern
}
