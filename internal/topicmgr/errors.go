package topicmgr

// TopicError represents structured errors in the topic management system
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Module  string    `json:"module"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// ErrorType defines the type of topic management error
type ErrorType string

const (
	ErrorTopicNotFound    ErrorType = "topic_not_found"
	ErrorTypeMismatch     ErrorType = "type_mismatch"
	ErrorValidationFailed ErrorType = "validation_failed"
	ErrorInvalidScope     ErrorType = "invalid_scope"
)

// Sentinel values for errors.Is. Only the Type field is compared.
var (
	ErrTopicNotFound    = &TopicError{Type: ErrorTopicNotFound, Message: "topic not found"}
	ErrTypeMismatch     = &TopicError{Type: ErrorTypeMismatch, Message: "topic message type mismatch"}
	ErrValidationFailed = &TopicError{Type: ErrorValidationFailed, Message: "topic validation failed"}
	ErrInvalidScope     = &TopicError{Type: ErrorInvalidScope, Message: "invalid topic scope"}
)

// Error implements the error interface
func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *TopicError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a TopicError of the same type.
func (e *TopicError) Is(target error) bool {
	t, ok := target.(*TopicError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}
