package basemap

import (
	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/internal/geo"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
)

// ContainerConverter maps container pixels to positions, honouring rotation.
type ContainerConverter interface {
	ContainerPointToLatLng(p r2.Point) core.LatLng
}

// WheelZoom zooms by one step per wheel tick, keeping the point under the
// cursor fixed.
type WheelZoom struct {
	m       *Map
	bus     Bus
	conv    ContainerConverter
	delta   float64
	enabled bool
	id      dispatcher.ListenerID
}

// NewWheelZoom creates a disabled wheel zoom handler.
func NewWheelZoom(m *Map, bus Bus, conv ContainerConverter) *WheelZoom {
	return &WheelZoom{m: m, bus: bus, conv: conv, delta: 1}
}

// Enable starts listening for wheel input.
func (w *WheelZoom) Enable() {
	if w.enabled {
		return
	}
	w.enabled = true
	w.id = w.bus.On(core.InputWheel, w.onWheel, dispatcher.Logged())
}

// Disable stops listening for wheel input.
func (w *WheelZoom) Disable() {
	if !w.enabled {
		return
	}
	w.enabled = false
	w.bus.Off(core.InputWheel, w.id)
}

// Enabled reports whether wheel input zooms the map.
func (w *WheelZoom) Enabled() bool { return w.enabled }

func (w *WheelZoom) onWheel(e dispatcher.Event) {
	// a listener earlier in the same delivery may have disabled us
	ev, ok := e.Payload.(core.WheelEvent)
	if !ok || ev.DeltaY == 0 || !w.enabled {
		return
	}

	zoom := w.m.Zoom() + w.delta
	if ev.DeltaY > 0 {
		zoom = w.m.Zoom() - w.delta
	}
	zoom = w.m.LimitZoom(zoom)
	if zoom == w.m.Zoom() {
		return
	}

	// keep the position under the cursor in place
	scale := geo.ZoomScale(zoom, w.m.Zoom())
	half := w.m.Size().Mul(0.5)
	offset := ev.Position.Sub(half).Mul(1 - 1/scale)
	center := w.conv.ContainerPointToLatLng(half.Add(offset))

	w.m.SetView(center, zoom)
}
