// Package events publishes session lifecycle and live feedback events to
// Kafka for downstream consumers (coaching dashboards, analytics).
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"poise/internal/adapters/kafka"
	"poise/internal/domain/session"
	"poise/internal/metrics"
	"poise/pkg/logger"
)

// Event topic constants
const (
	TopicSessionStarted = "sessions.started"
	TopicSessionEnded   = "sessions.ended"
	TopicLiveFeedback   = "sessions.feedback"
)

// Envelope wraps every published event with identity and timing
type Envelope struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Publisher publishes session events to Kafka
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		log:      logger.Get().With("component", "event_publisher"),
	}
}

// SessionStarted publishes a session lifecycle start event
func (p *Publisher) SessionStarted(ctx context.Context, sessionID string, at time.Time) error {
	return p.publish(ctx, TopicSessionStarted, Envelope{
		ID:        uuid.NewString(),
		Type:      "session_started",
		Timestamp: at,
		SessionID: sessionID,
	})
}

// FeedbackEvent publishes one live feedback frame
func (p *Publisher) FeedbackEvent(ctx context.Context, fb session.LiveFeedback) error {
	return p.publish(ctx, TopicLiveFeedback, Envelope{
		ID:        uuid.NewString(),
		Type:      "live_feedback",
		Timestamp: fb.Timestamp,
		SessionID: fb.SessionID,
		Payload:   fb,
	})
}

// SessionEnded publishes the final report event
func (p *Publisher) SessionEnded(ctx context.Context, report session.Report) error {
	return p.publish(ctx, TopicSessionEnded, Envelope{
		ID:        uuid.NewString(),
		Type:      "session_ended",
		Timestamp: report.Timestamp,
		SessionID: report.SessionID,
		Payload:   report,
	})
}

func (p *Publisher) publish(ctx context.Context, topic string, env Envelope) error {
	err := p.producer.Publish(ctx, topic, env.SessionID, env)
	status := "success"
	if err != nil {
		status = "error"
		p.log.Warnw("Failed to publish event", "topic", topic, "session_id", env.SessionID, "error", err)
	}
	metrics.EventsPublished.WithLabelValues(topic, status).Inc()
	return err
}
