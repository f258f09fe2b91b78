package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pyquest-go-api/internal/models"
)

// AttemptEvent is broadcast after each graded submission. Downstream
// bookkeeping (XP, streaks, achievements) subscribes to these instead of
// coupling to the grading core.
type AttemptEvent struct {
	ExerciseID uint                `json:"exercise_id"`
	StudentID  uint                `json:"student_id"`
	Type       models.ExerciseType `json:"type"`
	Score      int                 `json:"score"`
	Passed     bool                `json:"passed"`
	RequestID  string              `json:"request_id,omitempty"`
	GradedAt   time.Time           `json:"graded_at"`
}

// Publisher emits attempt events. Publishing is fire-and-forget; a grading
// response never waits on downstream consumers.
type Publisher interface {
	PublishAttempt(ctx context.Context, event AttemptEvent) error
}

// NATSPublisher publishes attempt events on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher builds a publisher for the given subject.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) *NATSPublisher {
	if subject == "" {
		subject = "pyquest.attempts"
	}
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "attempt_publisher").Logger(),
	}
}

// PublishAttempt marshals and publishes one event.
func (p *NATSPublisher) PublishAttempt(_ context.Context, event AttemptEvent) error {
	if event.GradedAt.IsZero() {
		event.GradedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal attempt event: %w", err)
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish attempt event: %w", err)
	}
	return nil
}

// NopPublisher drops every event. Used when NATS is not configured.
type NopPublisher struct{}

// PublishAttempt discards the event.
func (NopPublisher) PublishAttempt(context.Context, AttemptEvent) error { return nil }
