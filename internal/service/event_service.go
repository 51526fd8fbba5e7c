package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lovableswim/swim-api/pkg/jobs"
	"github.com/lovableswim/swim-api/pkg/messaging"
)

// Domain event routing keys.
const (
	EventSessionScheduled    = "session.scheduled"
	EventSessionCancelled    = "session.cancelled"
	EventEnrollmentCreated   = "enrollment.created"
	EventEnrollmentCancelled = "enrollment.cancelled"
	EventPackagePurchased    = "package.purchased"
	EventBookingConfirmed    = "booking.confirmed"
)

// EventPublisher is what domain services need to announce committed changes.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{})
}

// EventService delivers domain events to the broker from a worker queue so
// request handlers never wait on the broker.
type EventService struct {
	publisher messaging.Publisher
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEventService wires the publisher to a new worker queue. Start must be
// called before events are accepted.
func NewEventService(publisher messaging.Publisher, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = messaging.NewNoopPublisher(logger)
	}
	cfg.Logger = logger
	svc := &EventService{publisher: publisher, metrics: metrics, logger: logger}
	svc.queue = jobs.NewQueue("domain-events", svc.deliver, cfg)
	return svc
}

// Start launches the delivery workers.
func (s *EventService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits up to timeout for buffered events, then closes the publisher.
func (s *EventService) Stop(timeout time.Duration) {
	s.queue.Drain(timeout)
	if err := s.publisher.Close(); err != nil {
		s.logger.Warn("failed to close event publisher", zap.Error(err))
	}
}

// Publish enqueues an event. Failures are logged and never reach the caller.
func (s *EventService) Publish(_ context.Context, eventType string, payload interface{}) {
	if s == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: eventType, Payload: payload}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordEvent(false)
		s.logger.Warn("failed to enqueue event", zap.String("type", eventType), zap.Error(err))
	}
}

func (s *EventService) deliver(ctx context.Context, job jobs.Job) error {
	err := s.publisher.Publish(ctx, messaging.Message{
		RoutingKey: job.Type,
		Payload: map[string]interface{}{
			"id":          job.ID,
			"type":        job.Type,
			"occurred_at": job.Enqueued,
			"data":        job.Payload,
		},
		Timestamp: job.Enqueued,
	})
	s.metrics.RecordEvent(err == nil)
	return err
}

type noopEvents struct{}

func (noopEvents) Publish(context.Context, string, interface{}) {}
