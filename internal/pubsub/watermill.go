package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// SlogAdapter routes watermill's logging into slog.
type SlogAdapter struct {
	logger *slog.Logger
}

var _ watermill.LoggerAdapter = (*SlogAdapter)(nil)

// NewSlogAdapter wraps logger as a watermill.LoggerAdapter.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

func (a *SlogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Error(msg, append(attrs(fields), "error", err)...)
}

// Info is logged at debug level: gochannel reports every fan-out at info.
func (a *SlogAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, attrs(fields)...)
}

func (a *SlogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, attrs(fields)...)
}

func (a *SlogAdapter) Trace(msg string, fields watermill.LogFields) {
	// Trace is below slog's lowest named level.
	a.logger.Log(context.Background(), slog.LevelDebug-4, msg, attrs(fields)...)
}

func (a *SlogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &SlogAdapter{logger: a.logger.With(attrs(fields)...)}
}

func attrs(fields watermill.LogFields) []any {
	out := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}
