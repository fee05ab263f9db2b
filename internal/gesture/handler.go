package gesture

import (
	"log/slog"
	"time"

	"github.com/OCAP2/maprotate/internal/dispatcher"
)

// Bus is the part of the event bus gesture handlers subscribe to.
type Bus interface {
	On(event string, fn dispatcher.ListenerFunc, opts ...dispatcher.Option) dispatcher.ListenerID
	Off(event string, id dispatcher.ListenerID)
}

// Rotator is the bearing the gestures drive.
type Rotator interface {
	SetBearing(deg float64)
	Bearing() float64
}

// Toggle is anything that can be switched on and off.
type Toggle interface {
	Enable()
	Disable()
	Enabled() bool
}

// Dependencies holds what every gesture handler needs.
type Dependencies struct {
	Bus     Bus
	Rotator Rotator
	Guard   *Guard
	Logger  *slog.Logger
	Now     func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Guard == nil {
		d.Guard = NewGuard(0, d.Now, d.Logger)
	}
	return d
}

type binding struct {
	event string
	fn    dispatcher.ListenerFunc
	id    dispatcher.ListenerID
}

// handler subscribes a fixed set of listeners while enabled.
type handler struct {
	bus      Bus
	bindings []binding
	enabled  bool
}

func (h *handler) listen(event string, fn dispatcher.ListenerFunc) {
	h.bindings = append(h.bindings, binding{event: event, fn: fn})
}

// Enable subscribes the handler's listeners.
func (h *handler) Enable() {
	if h.enabled {
		return
	}
	for i := range h.bindings {
		h.bindings[i].id = h.bus.On(h.bindings[i].event, h.bindings[i].fn, dispatcher.Logged())
	}
	h.enabled = true
}

// Disable unsubscribes the handler's listeners.
func (h *handler) Disable() {
	if !h.enabled {
		return
	}
	for _, b := range h.bindings {
		h.bus.Off(b.event, b.id)
	}
	h.enabled = false
}

// Enabled reports whether the handler is listening.
func (h *handler) Enabled() bool {
	return h.enabled
}
