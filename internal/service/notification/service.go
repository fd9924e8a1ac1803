package notification

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/google/uuid"
)

// Config holds notification service configuration
type Config struct {
	WorkerCount     int           // default: 2
	QueueSize       int           // default: 1000
	DeliveryTimeout time.Duration // default: 2 seconds
}

type service struct {
	hub    *sse.Hub
	config Config

	mu      sync.RWMutex
	stopped bool
	queue   chan notification.Message
	wg      sync.WaitGroup

	delivered atomic.Int64
	skipped   atomic.Int64
	dropped   atomic.Int64
}

// NewNotificationService creates a new notification service with background workers
func NewNotificationService(hub *sse.Hub, cfg Config) notification.Service {
	// Set defaults
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 2 * time.Second
	}

	s := &service{
		hub:    hub,
		config: cfg,
		queue:  make(chan notification.Message, cfg.QueueSize),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("notification service started",
		"workers", cfg.WorkerCount,
		"queue_size", cfg.QueueSize,
		"delivery_timeout", cfg.DeliveryTimeout,
	)

	return s
}

// worker delivers queued messages until the queue is closed and drained
func (s *service) worker(id int) {
	defer s.wg.Done()

	for msg := range s.queue {
		s.deliver(id, msg)
	}
}

func (s *service) deliver(workerID int, msg notification.Message) {
	delivered, skipped := s.hub.Publish(msg.Topic, sse.Event{Event: msg.Event, Data: msg}, s.config.DeliveryTimeout)

	s.delivered.Add(int64(delivered))
	if skipped > 0 {
		s.skipped.Add(int64(skipped))
		slog.Warn("notification skipped for slow subscribers",
			"worker", workerID,
			"topic", msg.Topic,
			"event", msg.Event,
			"skipped", skipped,
		)
	}
	if delivered == 0 && skipped == 0 {
		s.dropped.Add(1)
		slog.Debug("notification dropped, no subscribers", "topic", msg.Topic, "event", msg.Event)
	}
}

// Publish queues a message without blocking
func (s *service) Publish(ctx context.Context, msg notification.Message) error {
	if !notification.KnownTopic(msg.Topic) {
		return notification.ErrUnknownTopic
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return notification.ErrServiceStopped
	}

	select {
	case s.queue <- msg:
		return nil
	default:
		return notification.ErrQueueFull
	}
}

// Subscribe creates an SSE subscription for a topic
func (s *service) Subscribe(ctx context.Context, topic string) (<-chan notification.Message, func()) {
	ch, cleanup := s.hub.Subscribe(topic)

	out := make(chan notification.Message, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				msg, ok := event.Data.(notification.Message)
				if !ok {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

// Stats returns delivered, skipped and dropped counts since start
func (s *service) Stats() (delivered, skipped, dropped int64) {
	return s.delivered.Load(), s.skipped.Load(), s.dropped.Load()
}

// Stop drains queued messages and stops the workers
func (s *service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	delivered, skipped, dropped := s.Stats()
	slog.Info("notification service stopped", "delivered", delivered, "skipped", skipped, "dropped", dropped)
}
