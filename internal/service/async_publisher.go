package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	q "github.com/Julioneves77/sr-backend-api/internal/queue"
)

var (
	// ErrPublishQueueFull is returned when the event buffer has no room.
	ErrPublishQueueFull = errors.New("event queue full")
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("event publisher closed")
)

const (
	defaultEventBuffer    = 256
	defaultPublishTimeout = 5 * time.Second
)

// AsyncPublisher hands events to a single background worker that forwards
// them to the wrapped publisher in the order they were accepted.  Publish
// never blocks on the broker.
type AsyncPublisher struct {
	next    EventPublisher
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	events chan q.TicketEvent
	done   chan struct{}
}

// NewAsyncPublisher starts the worker.  size <= 0 uses a buffer of 256 and
// timeout <= 0 bounds each forwarded publish to 5s.
func NewAsyncPublisher(next EventPublisher, size int, timeout time.Duration, logger *slog.Logger) *AsyncPublisher {
	if size <= 0 {
		size = defaultEventBuffer
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &AsyncPublisher{
		next:    next,
		logger:  logger,
		timeout: timeout,
		events:  make(chan q.TicketEvent, size),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for ev := range p.events {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.next.Publish(ctx, ev)
		cancel()
		if err != nil {
			p.logger.Warn("ticket event publish failed",
				slog.String("type", ev.Type),
				slog.Int64("ticket_id", ev.TicketID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Publish queues event for delivery.  It fails fast when the buffer is full
// or the publisher is closed.
func (p *AsyncPublisher) Publish(_ context.Context, event q.TicketEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.events <- event:
		return nil
	default:
		return ErrPublishQueueFull
	}
}

// Close stops accepting events and waits until the queued ones have been
// forwarded or ctx is done.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
