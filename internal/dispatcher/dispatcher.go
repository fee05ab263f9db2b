package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrUnhandled is returned by Dispatch when nothing listens for an event.
var ErrUnhandled = errors.New("unhandled event")

// Event is a notification or input event travelling over the bus.
type Event struct {
	Type      string
	Payload   any
	Timestamp time.Time
}

// ListenerFunc receives an event.
type ListenerFunc func(Event)

// ListenerID identifies a registration so it can be removed again.
type ListenerID uint64

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures listener registration.
type Option func(*config)

type config struct {
	once   bool
	logged bool
}

// Once removes the listener after its first call.
func Once() Option {
	return func(c *config) {
		c.once = true
	}
}

// Logged adds debug logging to the listener.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

type listener struct {
	id   ListenerID
	fn   ListenerFunc
	once bool
}

// Dispatcher is a synchronous event bus. Listeners run in registration order
// on the goroutine that fires the event.
type Dispatcher struct {
	logger Logger

	// OTEL metrics
	listenerCount metric.Int64ObservableGauge
	fired         metric.Int64Counter
	unhandled     metric.Int64Counter

	mu        sync.RWMutex
	listeners map[string][]listener
	nextID    ListenerID
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		listeners: make(map[string][]listener),
		logger:    logger,
	}

	m := meter()

	var err error

	d.listenerCount, err = m.Int64ObservableGauge(
		"dispatcher.listeners",
		metric.WithDescription("Current number of listeners per event"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating listener gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for event, ls := range d.listeners {
				o.ObserveInt64(d.listenerCount, int64(len(ls)),
					metric.WithAttributes(attribute.String("event", event)))
			}
			return nil
		},
		d.listenerCount,
	)
	if err != nil {
		return nil, fmt.Errorf("registering listener callback: %w", err)
	}

	d.fired, err = m.Int64Counter(
		"dispatcher.events.fired",
		metric.WithDescription("Total events delivered to at least one listener"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fired counter: %w", err)
	}

	d.unhandled, err = m.Int64Counter(
		"dispatcher.events.unhandled",
		metric.WithDescription("Total events fired with no listener"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating unhandled counter: %w", err)
	}

	return d, nil
}

// On registers fn for the given event and returns its id.
func (d *Dispatcher) On(event string, fn ListenerFunc, opts ...Option) ListenerID {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logged {
		fn = d.withLogging(event, fn)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.listeners[event] = append(d.listeners[event], listener{id: d.nextID, fn: fn, once: cfg.once})
	return d.nextID
}

// Off removes a listener. Unknown ids are ignored.
func (d *Dispatcher) Off(event string, id ListenerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removeLocked(event, id)
}

func (d *Dispatcher) removeLocked(event string, id ListenerID) {
	ls := d.listeners[event]
	for i, l := range ls {
		if l.id == id {
			// copy so an in-progress Fire keeps iterating its own snapshot
			next := make([]listener, 0, len(ls)-1)
			next = append(next, ls[:i]...)
			next = append(next, ls[i+1:]...)
			if len(next) == 0 {
				delete(d.listeners, event)
			} else {
				d.listeners[event] = next
			}
			return
		}
	}
}

// Fire delivers a notification to every listener of event.
func (d *Dispatcher) Fire(event string, payload any) {
	_ = d.Dispatch(Event{Type: event, Payload: payload, Timestamp: time.Now()})
}

// Dispatch delivers e and returns ErrUnhandled when nothing listens for it.
// Listeners added or removed during delivery take effect on the next event.
func (d *Dispatcher) Dispatch(e Event) error {
	d.mu.Lock()
	snapshot := d.listeners[e.Type]
	for _, l := range snapshot {
		if l.once {
			d.removeLocked(e.Type, l.id)
		}
	}
	d.mu.Unlock()

	attrs := metric.WithAttributes(attribute.String("event", e.Type))
	if len(snapshot) == 0 {
		d.unhandled.Add(context.Background(), 1, attrs)
		return fmt.Errorf("%w: %s", ErrUnhandled, e.Type)
	}

	for _, l := range snapshot {
		l.fn(e)
	}
	d.fired.Add(context.Background(), 1, attrs)
	return nil
}

// HasListeners returns true if at least one listener is registered for event.
func (d *Dispatcher) HasListeners(event string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[event]) > 0
}

func (d *Dispatcher) withLogging(event string, fn ListenerFunc) ListenerFunc {
	return func(e Event) {
		if d.logger == nil {
			fn(e)
			return
		}
		start := time.Now()
		d.logger.Debug("handling event", "event", event)
		fn(e)
		d.logger.Debug("event complete", "event", event, "duration", time.Since(start))
	}
}
