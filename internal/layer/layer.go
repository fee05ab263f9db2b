// Package layer places map content under the current bearing: markers and
// overlays in the upright panes, vector paths and tiles in the rotated pane.
package layer

import (
	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
)

// Bus is the part of the event bus layers use.
type Bus interface {
	On(event string, fn dispatcher.ListenerFunc, opts ...dispatcher.Option) dispatcher.ListenerID
	Off(event string, id dispatcher.ListenerID)
	Fire(event string, payload any)
}

// Projector is the rotation-aware view layers position themselves in.
// Enabled reports whether rotation applies at all; when it does not, layer
// points are used as pane points unchanged.
type Projector interface {
	Enabled() bool
	Bearing() float64
	LatLngToLayerPoint(ll core.LatLng) r2.Point
	LayerPointToLatLng(p r2.Point) core.LatLng
	RotatedPointToMapPanePoint(p r2.Point) r2.Point
	MapPanePointToRotatedPoint(p r2.Point) r2.Point
	Corners(pad float64) [4]r2.Point
	Center() core.LatLng
}

type subscription struct {
	event string
	id    dispatcher.ListenerID
}

// subscriptions tracks listeners so a layer can drop all of them on removal.
type subscriptions struct {
	bus  Bus
	subs []subscription
}

func (s *subscriptions) on(bus Bus, fn func(), events ...string) {
	s.bus = bus
	for _, event := range events {
		id := bus.On(event, func(dispatcher.Event) { fn() })
		s.subs = append(s.subs, subscription{event: event, id: id})
	}
}

func (s *subscriptions) off() {
	for _, sub := range s.subs {
		s.bus.Off(sub.event, sub.id)
	}
	s.subs = nil
}

// anchor pins a point layer to a position. Upright panes are children of
// the map pane, so the layer point is carried out of the rotated pane.
type anchor struct {
	subscriptions
	proj   Projector
	latlng core.LatLng
	pos    r2.Point
}

func (a *anchor) attach(proj Projector, bus Bus, update func()) {
	a.proj = proj
	a.on(bus, func() {
		if a.proj != nil {
			update()
		}
	}, core.EventRotate, core.EventZoom, core.EventViewReset)
	update()
}

func (a *anchor) detach() {
	if a.proj == nil {
		return
	}
	a.off()
	a.proj = nil
}

func (a *anchor) panePoint() r2.Point {
	p := a.proj.LatLngToLayerPoint(a.latlng)
	if a.proj.Enabled() {
		return a.proj.RotatedPointToMapPanePoint(p)
	}
	return p
}
