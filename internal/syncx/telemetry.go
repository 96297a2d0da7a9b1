package syncx

import (
	"context"

	"github.com/ddanilovs/campuslink/internal/logging"
)

// Telemetry event names emitted around a sync pass.
const (
	EventSyncStarted   = "sync_started"
	EventSyncSucceeded = "sync_succeeded"
	EventSyncRetried   = "sync_retried"
	EventSyncFailed    = "sync_failed"
)

// TelemetrySink accepts structured events. Delivery is best-effort; the
// orchestrator never fails a pass because a sink did.
type TelemetrySink interface {
	Emit(ctx context.Context, event string, args ...any)
}

// LogSink is the default TelemetrySink, writing events to the logger.
type LogSink struct {
	logger logging.Logger
}

func NewLogSink(l logging.Logger) *LogSink {
	return &LogSink{logger: l}
}

func (s *LogSink) Emit(ctx context.Context, event string, args ...any) {
	s.logger.Info(ctx, event, args...)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(ctx context.Context, event string, args ...any) {}
