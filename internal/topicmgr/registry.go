package topicmgr

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry manages the collection of registered topics with metadata
type Registry struct {
	entries map[string]*RegistryEntry
	mu      sync.RWMutex
}

// NewRegistry creates a new topic registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*RegistryEntry),
	}
}

// Register adds a topic to the registry. If a topic with the same name and
// message type is already present, the existing topic is returned.
func (r *Registry) Register(topic Topic) (Topic, error) {
	if topic == nil {
		return nil, &TopicError{
			Type:    ErrorValidationFailed,
			Message: "cannot register nil topic",
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := topic.Name()
	if existing, exists := r.entries[name]; exists {
		if existing.Topic.MessageType() != topic.MessageType() {
			return nil, &TopicError{
				Type:   ErrorTypeMismatch,
				Topic:  name,
				Module: topic.Module(),
				Message: fmt.Sprintf("topic %s already registered with type %s, not %s",
					name, existing.Topic.MessageType(), topic.MessageType()),
			}
		}
		return existing.Topic, nil
	}

	r.entries[name] = &RegistryEntry{
		Topic:        topic,
		RegisteredAt: time.Now(),
		Module:       topic.Module(),
	}
	return topic, nil
}

// Get retrieves a topic by name
func (r *Registry) Get(name string) (Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	if !exists {
		return nil, false
	}
	return entry.Topic, true
}

// GetEntry retrieves a copy of a registry entry by topic name
func (r *Registry) GetEntry(name string) (RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	if !exists {
		return RegistryEntry{}, false
	}
	return *entry, true
}

// List returns all registered topics sorted by name
func (r *Registry) List() []Topic {
	return r.filter(func(Topic) bool { return true })
}

// ListByModule returns topics for a specific module
func (r *Registry) ListByModule(module string) []Topic {
	return r.filter(func(t Topic) bool { return t.Module() == module })
}

// ListByScope returns topics for a specific scope
func (r *Registry) ListByScope(scope TopicScope) []Topic {
	return r.filter(func(t Topic) bool { return t.Scope() == scope })
}

func (r *Registry) filter(keep func(Topic) bool) []Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]Topic, 0, len(r.entries))
	for _, entry := range r.entries {
		if keep(entry.Topic) {
			topics = append(topics, entry.Topic)
		}
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name() < topics[j].Name() })
	return topics
}

// Count returns the number of registered topics
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// GetStats returns registry statistics
func (r *Registry) GetStats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		TotalTopics:     len(r.entries),
		ModuleBreakdown: make(map[string]int),
	}

	for _, entry := range r.entries {
		switch entry.Topic.Scope() {
		case ScopeFramework:
			stats.FrameworkTopics++
		case ScopeModule:
			stats.ModuleTopics++
			stats.ModuleBreakdown[entry.Topic.Module()]++
		}
	}

	return stats
}

// RegistryStats provides statistics about the registry
type RegistryStats struct {
	TotalTopics     int            `json:"total_topics"`
	FrameworkTopics int            `json:"framework_topics"`
	ModuleTopics    int            `json:"module_topics"`
	ModuleBreakdown map[string]int `json:"module_breakdown"`
}
