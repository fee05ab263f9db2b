package basemap

import (
	"log/slog"
	"math"

	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/internal/geo"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
)

// Bus is the part of the event bus the map uses.
type Bus interface {
	On(event string, fn dispatcher.ListenerFunc, opts ...dispatcher.Option) dispatcher.ListenerID
	Off(event string, id dispatcher.ListenerID)
	Fire(event string, payload any)
}

// PixelOriginFunc computes the pixel origin for a view.
type PixelOriginFunc func(center core.LatLng, zoom float64) r2.Point

// Options configures a Map.
type Options struct {
	Size     r2.Point
	MinZoom  float64
	MaxZoom  float64
	ZoomSnap float64
	Platform core.Platform
}

// Map is the unrotated map engine: view state, projection, panes and frames.
// It is not safe for concurrent use.
type Map struct {
	bus    Bus
	logger *slog.Logger

	size        r2.Point
	zoom        float64
	lastCenter  core.LatLng
	pixelOrigin r2.Point
	mapPanePos  r2.Point
	loaded      bool

	minZoom  float64
	maxZoom  float64
	zoomSnap float64

	panes         map[string]core.PaneTransform
	pixelOriginFn PixelOriginFunc
	frames        *Frames
	platform      core.Platform
}

// New creates a map with no view. Call SetView before reading positions.
func New(bus Bus, logger *slog.Logger, opts Options) *Map {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Map{
		bus:      bus,
		logger:   logger,
		size:     opts.Size,
		minZoom:  opts.MinZoom,
		maxZoom:  opts.MaxZoom,
		zoomSnap: opts.ZoomSnap,
		panes:    make(map[string]core.PaneTransform),
		frames:   NewFrames(),
		platform: opts.Platform,
	}
	if m.maxZoom == 0 {
		m.maxZoom = math.Inf(1)
	}
	m.pixelOriginFn = m.defaultPixelOrigin
	return m
}

// Size returns the container size in pixels.
func (m *Map) Size() r2.Point { return m.size }

// Zoom returns the current zoom.
func (m *Map) Zoom() float64 { return m.zoom }

// LastCenter returns the center of the last SetView or Move.
func (m *Map) LastCenter() core.LatLng { return m.lastCenter }

// Loaded reports whether a view has been set.
func (m *Map) Loaded() bool { return m.loaded }

// PixelOrigin returns the absolute pixel of layer point (0,0).
func (m *Map) PixelOrigin() r2.Point { return m.pixelOrigin }

// MapPanePos returns the offset of the map pane inside the container.
func (m *Map) MapPanePos() r2.Point { return m.mapPanePos }

// Frames returns the animation frame scheduler.
func (m *Map) Frames() *Frames { return m.frames }

// Platform returns the environment capabilities.
func (m *Map) Platform() core.Platform { return m.platform }

// SetPlatform replaces the environment capabilities.
func (m *Map) SetPlatform(p core.Platform) { m.platform = p }

// SetPixelOriginFunc replaces the pixel origin computation. A nil fn restores the default.
func (m *Map) SetPixelOriginFunc(fn PixelOriginFunc) {
	if fn == nil {
		fn = m.defaultPixelOrigin
	}
	m.pixelOriginFn = fn
}

func (m *Map) defaultPixelOrigin(center core.LatLng, zoom float64) r2.Point {
	half := m.size.Mul(0.5)
	return geo.Round(m.Project(center, zoom).Sub(half).Add(m.mapPanePos))
}

// Project converts a position into absolute pixels at zoom.
func (m *Map) Project(ll core.LatLng, zoom float64) r2.Point {
	return geo.Project(ll, zoom)
}

// Unproject converts absolute pixels at zoom into a position.
func (m *Map) Unproject(p r2.Point, zoom float64) core.LatLng {
	return geo.Unproject(p, zoom)
}

// LatLngToLayerPoint converts a position into a layer point at the current zoom.
func (m *Map) LatLngToLayerPoint(ll core.LatLng) r2.Point {
	return m.Project(ll, m.zoom).Sub(m.pixelOrigin)
}

// LayerPointToLatLng converts a layer point into a position.
func (m *Map) LayerPointToLatLng(p r2.Point) core.LatLng {
	return m.Unproject(p.Add(m.pixelOrigin), m.zoom)
}

// ContainerPointToLayerPoint is the unrotated container to layer conversion.
func (m *Map) ContainerPointToLayerPoint(p r2.Point) r2.Point {
	return p.Sub(m.mapPanePos)
}

// LayerPointToContainerPoint is the unrotated layer to container conversion.
func (m *Map) LayerPointToContainerPoint(p r2.Point) r2.Point {
	return p.Add(m.mapPanePos)
}

// SetPaneTransform positions a pane.
func (m *Map) SetPaneTransform(name string, t core.PaneTransform) {
	m.panes[name] = t
}

// PaneTransform returns the transform of a pane; unknown panes sit at the origin.
func (m *Map) PaneTransform(name string) core.PaneTransform {
	return m.panes[name]
}

// LimitZoom snaps zoom to the configured step and clamps it to the zoom range.
func (m *Map) LimitZoom(zoom float64) float64 {
	if m.zoomSnap > 0 {
		zoom = math.Round(zoom/m.zoomSnap) * m.zoomSnap
	}
	return math.Max(m.minZoom, math.Min(m.maxZoom, zoom))
}

// SetView resets the view to center and zoom, moving the map pane back to the origin.
func (m *Map) SetView(center core.LatLng, zoom float64) {
	zoom = m.LimitZoom(zoom)
	zoomChanged := !m.loaded || m.zoom != zoom

	m.setMapPanePos(r2.Point{})
	m.loaded = true

	m.move(center, zoom, zoomChanged)
	m.moveEnd(zoomChanged)
	m.bus.Fire(core.EventViewReset, core.ViewEvent{Center: center, Zoom: zoom})
	m.logger.Debug("view reset", "lat", center.Lat, "lng", center.Lng, "zoom", zoom)
}

// Move changes center and zoom without resetting the map pane. It is the
// per-frame update used by pinch gestures and does not fire end events.
func (m *Map) Move(center core.LatLng, zoom float64) {
	m.move(center, zoom, m.zoom != zoom)
}

func (m *Map) move(center core.LatLng, zoom float64, zoomChanged bool) {
	m.zoom = zoom
	m.lastCenter = center
	m.pixelOrigin = m.pixelOriginFn(center, zoom)

	ev := core.ViewEvent{Center: center, Zoom: zoom}
	if zoomChanged {
		m.bus.Fire(core.EventZoom, ev)
	}
	m.bus.Fire(core.EventMove, ev)
}

func (m *Map) moveEnd(zoomChanged bool) {
	ev := core.ViewEvent{Center: m.lastCenter, Zoom: m.zoom}
	if zoomChanged {
		m.bus.Fire(core.EventZoomEnd, ev)
	}
	m.bus.Fire(core.EventMoveEnd, ev)
}

// PanBy shifts the view by offset container pixels.
func (m *Map) PanBy(offset r2.Point) {
	if offset == (r2.Point{}) {
		return
	}
	m.setMapPanePos(m.mapPanePos.Sub(offset))

	ev := core.ViewEvent{Center: m.lastCenter, Zoom: m.zoom}
	m.bus.Fire(core.EventMove, ev)
	m.bus.Fire(core.EventMoveEnd, ev)
}

// SetSize resizes the container and pans so the view stays centered.
func (m *Map) SetSize(size r2.Point) {
	old := m.size
	if old == size {
		return
	}
	m.size = size

	if m.loaded {
		offset := geo.Round(old.Mul(0.5)).Sub(geo.Round(size.Mul(0.5)))
		m.PanBy(offset)
	}
	m.bus.Fire(core.EventResize, core.ResizeEvent{OldSize: old, NewSize: size})
}

func (m *Map) setMapPanePos(p r2.Point) {
	m.mapPanePos = p
	m.panes[MapPane] = core.PaneTransform{Position: p}
}
