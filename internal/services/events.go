package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/sirupsen/logrus"
)

const (
	EventMatchCreated     = "match.created"
	EventBookingCreated   = "booking.created"
	EventBookingResponded = "booking.responded"
	EventBookingCancelled = "booking.cancelled"
)

type DomainEvent struct {
	Type       string            `json:"type"`
	ActorID    uint              `json:"actor_id"`
	SubjectID  uint              `json:"subject_id"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// EventPublisher emits domain events. Publishing is best-effort: it never
// fails the operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent)
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, DomainEvent) {}

type NSQPublisher struct {
	producer *nsq.Producer
	topic    string
	log      logrus.FieldLogger
}

func NewNSQPublisher(addr, topic string, log logrus.FieldLogger) (*NSQPublisher, error) {
	producer, err := nsq.NewProducer(addr, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create nsq producer: %w", err)
	}
	return &NSQPublisher{producer: producer, topic: topic, log: log}, nil
}

func (p *NSQPublisher) Publish(_ context.Context, event DomainEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.WithError(err).WithField("event", event.Type).Warn("failed to encode domain event")
		return
	}
	if err := p.producer.Publish(p.topic, body); err != nil {
		p.log.WithError(err).WithField("event", event.Type).Warn("failed to publish domain event")
	}
}

func (p *NSQPublisher) Stop() {
	p.producer.Stop()
}
