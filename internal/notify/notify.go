// internal/notify/notify.go
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/sabwatch/internal/logger"
)

// Notifier accepts events without blocking the caller.
type Notifier interface {
	Notify(e Event)
}

// Sink delivers events to one destination.
// Send is called from a single goroutine; kinds a sink does not handle
// are ignored with a nil error.
type Sink interface {
	Name() string
	Send(ctx context.Context, e Event) error
}

// Recorder counts delivery problems. Implemented by metrics.Metrics.
type Recorder interface {
	NotifyFailed(sink string)
	NotifyDropped()
}

// Config for the dispatcher.
type Config struct {
	QueueSize   int
	SendTimeout time.Duration
}

// Dispatcher fans events out to sinks from one worker goroutine.
//
// Notify never blocks. Alerts go through a bounded queue; when it is full
// the alert is dropped and counted. Status reports do not share that
// queue: only the latest one is kept, so a slow sink never makes a
// status report cost an alert. Pending alerts are delivered before the
// pending status report. Delivery failures are logged and counted, never
// returned.
type Dispatcher struct {
	cfg   Config
	sinks []Sink
	rec   Recorder
	log   *zap.SugaredLogger

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}

	statusMu sync.Mutex
	status   chan Event // latest status report, capacity 1
}

// NewDispatcher starts the worker. rec and log may be nil.
func NewDispatcher(cfg Config, sinks []Sink, rec Recorder, log *zap.SugaredLogger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	d := &Dispatcher{
		cfg:   cfg,
		sinks: sinks,
		rec:   rec,
		log:   log,
		queue:  make(chan Event, cfg.QueueSize),
		done:   make(chan struct{}),
		status: make(chan Event, 1),
	}
	go d.run()
	return d
}

// Notify enqueues e. After Close it is a no-op.
func (d *Dispatcher) Notify(e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return
	}
	if !e.Kind.Alert() {
		d.offerStatus(e)
		return
	}

	select {
	case d.queue <- e:
	default:
		d.log.Warnw("notification queue full, dropping event", "kind", e.Kind.String(), "id", e.ID.String())
		if d.rec != nil {
			d.rec.NotifyDropped()
		}
	}
}

// Close stops accepting events and waits for queued ones to be delivered,
// or until ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return errors.New("notify: close: pending events abandoned")
	}
}

// offerStatus replaces any undelivered status report with e.
func (d *Dispatcher) offerStatus(e Event) {
	d.statusMu.Lock()
	defer d.statusMu.Unlock()

	select {
	case <-d.status:
	default:
	}
	// the worker only receives, so the slot is free here
	d.status <- e
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for {
		// alerts first
		select {
		case e, ok := <-d.queue:
			if !ok {
				d.flushStatus()
				return
			}
			d.deliver(e)
			continue
		default:
		}

		select {
		case e, ok := <-d.queue:
			if !ok {
				d.flushStatus()
				return
			}
			d.deliver(e)
		case e := <-d.status:
			d.deliver(e)
		}
	}
}

func (d *Dispatcher) flushStatus() {
	select {
	case e := <-d.status:
		d.deliver(e)
	default:
	}
}

func (d *Dispatcher) deliver(e Event) {
	for _, s := range d.sinks {
		d.send(s, e)
	}
}

func (d *Dispatcher) send(s Sink, e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	if err := s.Send(ctx, e); err != nil {
		d.log.Warnw("notification failed",
			"sink", s.Name(),
			"kind", e.Kind.String(),
			"id", e.ID.String(),
			"err", err,
		)
		if d.rec != nil {
			d.rec.NotifyFailed(s.Name())
		}
	}
}
