package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Level classifies the severity of an audit event.
type Level string

const (
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is one append-only record of a transport or throttling anomaly.
// Success paths never produce events, keeping the stream signal-dense.
type Event struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Level     Level     `json:"level"`
	Code      string    `json:"code"`
	Route     string    `json:"route"`
	Identity  string    `json:"identity"`
	RequestID string    `json:"request_id"`
	Message   string    `json:"message"`
}

// Sink receives audit events. Implementations must tolerate concurrent use.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// LogSink writes audit events through a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink builds a zerolog-backed audit sink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "audit").Logger()}
}

// Record emits the event as one structured log line at its level.
func (s *LogSink) Record(_ context.Context, event Event) {
	event = normalize(event)

	entry := s.logger.Warn()
	if event.Level == LevelError {
		entry = s.logger.Error()
	}

	entry.
		Str("audit_id", event.ID).
		Time("event_time", event.Time).
		Str("code", event.Code).
		Str("route", event.Route).
		Str("identity", event.Identity).
		Str("request_id", event.RequestID).
		Msg(event.Message)
}

// MemorySink buffers events in memory so tests can assert exact sequences.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink builds an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record appends the event.
func (s *MemorySink) Record(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, normalize(event))
}

// Events returns a copy of everything recorded so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func normalize(event Event) Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	if event.Level == "" {
		event.Level = LevelError
	}
	return event
}
