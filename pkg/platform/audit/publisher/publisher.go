package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "safenest/pkg/platform/audit"
	"safenest/pkg/requestcontext"
)

var (
	ErrBufferFull = errors.New("audit buffer full")
	ErrClosed     = errors.New("audit publisher closed")
)

// Publisher stamps events and appends them to a store, either inline or
// through a bounded buffer drained by a background goroutine.
// Use sync mode with transactional stores so the append joins the caller's transaction.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	bufferSize int
	events     chan audit.Event
	done       chan struct{}

	mu     sync.RWMutex
	closed bool
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.bufferSize = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.events = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Emit fills in timestamp, category and request metadata, then stores the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}

	if p.events == nil {
		return p.store.Append(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"request_id", event.RequestID,
		)
		return ErrBufferFull
	}
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.events {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("failed to persist audit event",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
	}
}

// Close stops accepting events and, in async mode, waits for the buffer to drain.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.events != nil {
		close(p.events)
	}
	p.mu.Unlock()

	if p.done != nil {
		<-p.done
	}
}
