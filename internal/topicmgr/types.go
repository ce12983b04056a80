package topicmgr

import (
	"reflect"
	"strings"
	"time"
	"unicode"
)

// Topic represents a typed topic identifier
type Topic interface {
	// Name returns the unique string identifier for this topic
	Name() string

	// Module returns the module that owns this topic (empty for framework topics)
	Module() string

	// Description returns human-readable documentation
	Description() string

	// Example returns a usage example
	Example() string

	// MessageType returns the Go type carried on this topic
	MessageType() reflect.Type

	// Metadata returns additional topic information
	Metadata() map[string]interface{}

	// Scope returns whether this is a framework or module topic
	Scope() TopicScope
}

// TypedTopic binds a topic definition to its message type T.
type TypedTopic[T any] struct {
	name        string
	module      string
	description string
	example     string
	metadata    map[string]interface{}
	scope       TopicScope
}

// Compile-time interface compliance check
var _ Topic = (*TypedTopic[struct{}])(nil)

// TopicConfig holds configuration for creating a new topic
type TopicConfig struct {
	Name        string                 `json:"name"`        // Unique identifier; derived from the message type when empty
	Module      string                 `json:"module"`      // Owning module (empty for framework topics)
	Scope       TopicScope             `json:"scope"`       // Framework or module scope
	Description string                 `json:"description"` // Human-readable description
	Example     string                 `json:"example"`     // Usage example
	Metadata    map[string]interface{} `json:"metadata"`    // Additional data
}

// TopicScope defines whether a topic belongs to framework or module level
type TopicScope string

const (
	ScopeFramework TopicScope = "framework" // Runtime-owned topics (actor lifecycle, faults)
	ScopeModule    TopicScope = "module"    // Application topics (snake input, state updates)
)

// RegistryEntry represents a topic entry in the registry with metadata
type RegistryEntry struct {
	Topic        Topic     `json:"topic"`
	RegisteredAt time.Time `json:"registered_at"`
	Module       string    `json:"module"`
}

// Define creates a typed topic definition. Module topics are the default; set
// cfg.Scope to ScopeFramework for runtime-owned topics.
func Define[T any](cfg TopicConfig) *TypedTopic[T] {
	if cfg.Name == "" {
		cfg.Name = NameFor[T]()
	}
	if cfg.Scope == "" {
		cfg.Scope = ScopeModule
	}
	if cfg.Scope == ScopeFramework {
		cfg.Module = ""
	}

	metadata := make(map[string]interface{}, len(cfg.Metadata)+1)
	for k, v := range cfg.Metadata {
		metadata[k] = v
	}
	metadata["type_name"] = typeOf[T]().String()

	return &TypedTopic[T]{
		name:        cfg.Name,
		module:      cfg.Module,
		description: cfg.Description,
		example:     cfg.Example,
		metadata:    metadata,
		scope:       cfg.Scope,
	}
}

// NameFor derives a topic name from a message type: DirectionMsg becomes
// "direction_msg".
func NameFor[T any]() string {
	name := typeOf[T]().Name()
	if name == "" {
		name = typeOf[T]().String()
	}

	var b strings.Builder
	prevLower := false
	for _, r := range name {
		switch {
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		case unicode.IsLower(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevLower = true
		default:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			prevLower = false
		}
	}
	return strings.Trim(b.String(), "_")
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Name returns the topic's unique identifier
func (t *TypedTopic[T]) Name() string {
	return t.name
}

// Module returns the module that owns this topic
func (t *TypedTopic[T]) Module() string {
	return t.module
}

// Description returns human-readable documentation
func (t *TypedTopic[T]) Description() string {
	return t.description
}

// Example returns a usage example
func (t *TypedTopic[T]) Example() string {
	return t.example
}

// MessageType returns the reflect.Type of T
func (t *TypedTopic[T]) MessageType() reflect.Type {
	return typeOf[T]()
}

// Metadata returns a copy of the additional topic information
func (t *TypedTopic[T]) Metadata() map[string]interface{} {
	result := make(map[string]interface{}, len(t.metadata))
	for k, v := range t.metadata {
		result[k] = v
	}
	return result
}

// Scope returns whether this is a framework or module topic
func (t *TypedTopic[T]) Scope() TopicScope {
	return t.scope
}

// String returns the topic name for easy debugging
func (t *TypedTopic[T]) String() string {
	return t.name
}
