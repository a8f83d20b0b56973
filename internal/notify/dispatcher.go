package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sink delivers events to one downstream system.
type Sink interface {
	Name() string
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Dispatcher queues events and publishes them from a background worker.
type Dispatcher struct {
	sinks   []Sink
	queue   chan Event
	timeout time.Duration
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(sinks []Sink, buffer int, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	d := &Dispatcher{
		sinks:   sinks,
		queue:   make(chan Event, buffer),
		timeout: timeout,
		log:     log.With(zap.String("component", "notify")),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify enqueues event without blocking. When the buffer is full or the
// dispatcher is closed the event is dropped and logged.
func (d *Dispatcher) Notify(event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("Dispatcher closed, dropping event", zap.String("booking_id", event.BookingID))
		return
	}

	select {
	case d.queue <- event:
	default:
		d.log.Warn("Notification buffer full, dropping event",
			zap.String("booking_id", event.BookingID),
			zap.String("booking_status", event.BookingStatus),
		)
	}
}

// Close stops accepting events, drains the queue and closes every sink.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done

	var errs []error
	for _, sink := range d.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		for _, sink := range d.sinks {
			d.publish(sink, event)
		}
	}
}

func (d *Dispatcher) publish(sink Sink, event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Sink panicked",
				zap.String("sink", sink.Name()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := sink.Publish(ctx, event); err != nil {
		d.log.Warn("Failed to publish notification",
			zap.Error(err),
			zap.String("sink", sink.Name()),
			zap.String("booking_id", event.BookingID),
		)
	}
}
