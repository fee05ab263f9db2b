// Package mapview assembles a rotating map: the host engine, the bearing
// controller, every gesture source, the layers and the rotate control.
package mapview

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/OCAP2/maprotate/internal/basemap"
	"github.com/OCAP2/maprotate/internal/cache"
	"github.com/OCAP2/maprotate/internal/control"
	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/internal/gesture"
	"github.com/OCAP2/maprotate/internal/layer"
	"github.com/OCAP2/maprotate/internal/rotation"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	geom "github.com/peterstace/simplefeatures/geom"
)

// MarkerTargetPrefix prefixes the pointer target of a marker icon.
const MarkerTargetPrefix = "marker:"

// Options configures a Map.
type Options struct {
	core.MapOptions
	Size     r2.Point
	Center   core.LatLng
	Zoom     float64
	Platform core.Platform
}

// Dependencies holds the ambient collaborators of a Map.
type Dependencies struct {
	Logger           *slog.Logger
	DispatcherLogger dispatcher.Logger
	Now              func() time.Time
}

// Map is a map view that can be rotated. It is not safe for concurrent use.
type Map struct {
	opts   core.MapOptions
	logger *slog.Logger

	bus   *dispatcher.Dispatcher
	host  *basemap.Map
	ctrl  *rotation.Controller
	guard *gesture.Guard

	wheelZoom *basemap.WheelZoom
	shiftKey  *gesture.ShiftKeyRotate
	touch     *gesture.TouchGestures
	compass   *gesture.CompassBearing
	control   *control.Rotate

	renderer *layer.Renderer
	tiles    *layer.TileGrid
	markers  *cache.Registry[*layer.Marker]
	overlays *cache.Registry[*layer.Overlay]

	drag       *layer.MarkerDrag
	dragOffset r2.Point
}

// New builds a map and sets its initial view and bearing.
func New(opts Options, deps Dependencies) (*Map, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.Size.X <= 0 || opts.Size.Y <= 0 {
		return nil, fmt.Errorf("invalid map size %v", opts.Size)
	}

	bus, err := dispatcher.New(deps.DispatcherLogger)
	if err != nil {
		return nil, fmt.Errorf("creating event bus: %w", err)
	}

	m := &Map{
		opts:     opts.MapOptions,
		logger:   deps.Logger,
		bus:      bus,
		markers:  cache.NewRegistry[*layer.Marker](),
		overlays: cache.NewRegistry[*layer.Overlay](),
	}

	m.host = basemap.New(bus, deps.Logger, basemap.Options{
		Size:     opts.Size,
		MinZoom:  opts.MinZoom,
		MaxZoom:  opts.MaxZoom,
		ZoomSnap: opts.ZoomSnap,
		Platform: opts.Platform,
	})
	m.ctrl = rotation.NewController(rotation.Dependencies{
		Host:     m.host,
		Notifier: bus,
		Logger:   deps.Logger,
	}, opts.Rotate)
	if opts.Rotate {
		m.host.SetPixelOriginFunc(m.ctrl.PixelOrigin)
	}
	for _, event := range []string{core.EventMove, core.EventZoom, core.EventViewReset, core.EventResize} {
		bus.On(event, func(dispatcher.Event) { m.ctrl.Refresh() })
	}

	m.setupGestures(opts, deps)

	m.host.SetView(opts.Center, opts.Zoom)

	m.renderer = layer.NewRenderer(opts.RendererPadding, deps.Logger)
	m.renderer.AddTo(m.ctrl, bus)
	m.tiles = layer.NewTileGrid(layer.TileGridOptions{
		MinZoom:    opts.MinZoom,
		MaxZoom:    opts.MaxZoom,
		KeepBuffer: opts.KeepBuffer,
	}, deps.Logger)
	m.tiles.AddTo(m.ctrl, m.host, bus)

	bus.On(core.InputPointerDown, m.onPointerDown, dispatcher.Logged())
	bus.On(core.InputPointerMove, m.onPointerMove, dispatcher.Logged())
	bus.On(core.InputPointerUp, m.onPointerUp, dispatcher.Logged())

	if opts.Rotate && opts.Bearing != 0 {
		m.ctrl.SetBearing(opts.Bearing)
	}

	m.logger.Debug("map created",
		"rotate", opts.Rotate,
		"size", opts.Size,
		"zoom", m.host.Zoom(),
		"bearing", m.ctrl.Bearing())
	return m, nil
}

func (m *Map) setupGestures(opts Options, deps Dependencies) {
	m.guard = gesture.NewGuard(opts.StaleGestureTimeout, deps.Now, deps.Logger)
	gdeps := gesture.Dependencies{
		Bus:     m.bus,
		Rotator: m.ctrl,
		Guard:   m.guard,
		Logger:  deps.Logger,
		Now:     deps.Now,
	}

	m.wheelZoom = basemap.NewWheelZoom(m.host, m.bus, m.ctrl)

	// shift+wheel listens before wheel zoom so it can take the tick away
	m.shiftKey = gesture.NewShiftKeyRotate(gdeps, m.wheelZoom)
	if opts.Rotate && opts.ShiftKeyRotate {
		m.shiftKey.Enable()
	}
	if opts.ScrollWheelZoom {
		m.wheelZoom.Enable()
	}

	m.touch = gesture.NewTouchGestures(gdeps, m.host, m.ctrl)
	touchRotate := opts.Platform.Touch
	if opts.TouchRotate != nil {
		touchRotate = *opts.TouchRotate
	}
	if opts.Rotate && touchRotate {
		m.touch.RotateToggle().Enable()
	}
	if opts.TouchZoom {
		m.touch.ZoomToggle().Enable()
	}

	m.compass = gesture.NewCompassBearing(gdeps, m.host, opts.CompassThrottle)
	if opts.Rotate && opts.CompassBearing {
		m.compass.Enable()
	}

	if opts.RotateControl {
		m.control = control.NewRotate(control.Dependencies{
			Bus:      m.bus,
			Rotator:  m.ctrl,
			Touch:    m.touch.RotateToggle(),
			Compass:  m.compass,
			Guard:    m.guard,
			Platform: m.host,
			Logger:   deps.Logger,
		}, control.Options{CloseOnZeroBearing: opts.CloseOnZeroBearing})
	}
}

// Dispatch routes an input event to the gesture sources listening for it.
func (m *Map) Dispatch(event string, payload any) error {
	return m.bus.Dispatch(dispatcher.Event{Type: event, Payload: payload, Timestamp: time.Now()})
}

// On subscribes to a map notification such as core.EventRotate.
func (m *Map) On(event string, fn dispatcher.ListenerFunc, opts ...dispatcher.Option) dispatcher.ListenerID {
	return m.bus.On(event, fn, opts...)
}

// Handles returns true if something currently listens for event.
func (m *Map) Handles(event string) bool {
	return m.bus.HasListeners(event)
}

// Off removes a subscription made with On.
func (m *Map) Off(event string, id dispatcher.ListenerID) {
	m.bus.Off(event, id)
}

// Rotate reports whether rotation is enabled for this map.
func (m *Map) Rotate() bool { return m.ctrl.Enabled() }

// SetBearing turns the map to deg degrees clockwise.
func (m *Map) SetBearing(deg float64) { m.ctrl.SetBearing(deg) }

// Bearing returns the bearing in degrees, in [0, 360).
func (m *Map) Bearing() float64 { return m.ctrl.Bearing() }

// State returns the rotation state.
func (m *Map) State() rotation.State { return m.ctrl.State() }

// Size returns the container size in pixels.
func (m *Map) Size() r2.Point { return m.host.Size() }

// Zoom returns the current zoom level.
func (m *Map) Zoom() float64 { return m.host.Zoom() }

// Center returns the position under the container center.
func (m *Map) Center() core.LatLng { return m.ctrl.Center() }

// Bounds returns the geographic box containing the visible container.
func (m *Map) Bounds() orb.Bound { return m.ctrl.Bounds() }

// SetView centers the map on center at zoom.
func (m *Map) SetView(center core.LatLng, zoom float64) { m.host.SetView(center, zoom) }

// PanBy shifts the view by offset container pixels.
func (m *Map) PanBy(offset r2.Point) { m.host.PanBy(offset) }

// SetSize resizes the container.
func (m *Map) SetSize(size r2.Point) { m.host.SetSize(size) }

// FlushFrames runs pending animation frames and returns how many ran.
func (m *Map) FlushFrames() int { return m.host.Frames().Flush() }

// ContainerPointToLayerPoint converts a container pixel to the rotated
// layer space markers and paths are positioned in.
func (m *Map) ContainerPointToLayerPoint(p r2.Point) r2.Point {
	return m.ctrl.ContainerPointToLayerPoint(p)
}

// LayerPointToContainerPoint is the inverse of ContainerPointToLayerPoint.
func (m *Map) LayerPointToContainerPoint(p r2.Point) r2.Point {
	return m.ctrl.LayerPointToContainerPoint(p)
}

// RotatedPointToMapPanePoint carries a point from the rotated pane into the
// upright map pane.
func (m *Map) RotatedPointToMapPanePoint(p r2.Point) r2.Point {
	return m.ctrl.RotatedPointToMapPanePoint(p)
}

// MapPanePointToRotatedPoint is the inverse of RotatedPointToMapPanePoint.
func (m *Map) MapPanePointToRotatedPoint(p r2.Point) r2.Point {
	return m.ctrl.MapPanePointToRotatedPoint(p)
}

// ContainerPointToLatLng returns the position under a container pixel,
// honouring the bearing.
func (m *Map) ContainerPointToLatLng(p r2.Point) core.LatLng {
	return m.ctrl.ContainerPointToLatLng(p)
}

// LatLngToContainerPoint returns the container pixel showing ll.
func (m *Map) LatLngToContainerPoint(ll core.LatLng) r2.Point {
	return m.ctrl.LatLngToContainerPoint(ll)
}

// PaneTransform returns the transform of a pane.
func (m *Map) PaneTransform(name string) core.PaneTransform {
	return m.host.PaneTransform(name)
}

// Guard returns the lock that keeps gesture sources from driving the bearing
// at the same time.
func (m *Map) Guard() *gesture.Guard { return m.guard }

// WheelZoom returns the plain wheel zoom handler.
func (m *Map) WheelZoom() *basemap.WheelZoom { return m.wheelZoom }

// ShiftKeyRotate returns the shift+wheel rotation handler.
func (m *Map) ShiftKeyRotate() *gesture.ShiftKeyRotate { return m.shiftKey }

// Touch returns the two-finger rotate and pinch handler.
func (m *Map) Touch() *gesture.TouchGestures { return m.touch }

// Compass returns the device orientation follower.
func (m *Map) Compass() *gesture.CompassBearing { return m.compass }

// Renderer returns the vector renderer that draws paths.
func (m *Map) Renderer() *layer.Renderer { return m.renderer }

// Tiles returns the tile grid.
func (m *Map) Tiles() *layer.TileGrid { return m.tiles }

// Control returns the rotate control, nil when it is switched off.
func (m *Map) Control() *control.Rotate { return m.control }

// AddMarker places a marker, replacing any marker with the same id.
func (m *Map) AddMarker(id string, ll core.LatLng, opts core.MarkerOptions) *layer.Marker {
	m.RemoveMarker(id)
	mk := layer.NewMarker(id, ll, opts)
	mk.AddTo(m.ctrl, m.bus)
	m.markers.Set(id, mk)
	return mk
}

// Marker returns a marker by id.
func (m *Map) Marker(id string) (*layer.Marker, bool) {
	return m.markers.Get(id)
}

// Markers returns all markers in id order.
func (m *Map) Markers() []*layer.Marker {
	out := make([]*layer.Marker, 0, m.markers.Len())
	m.markers.Each(func(_ string, mk *layer.Marker) { out = append(out, mk) })
	return out
}

// RemoveMarker takes a marker off the map.
func (m *Map) RemoveMarker(id string) {
	if mk, ok := m.markers.Delete(id); ok {
		mk.Remove()
	}
}

// AddOverlay opens a popup or tooltip, replacing any overlay with the same id.
func (m *Map) AddOverlay(id string, kind layer.OverlayKind, ll core.LatLng, offset r2.Point) *layer.Overlay {
	m.RemoveOverlay(id)
	o := layer.NewOverlay(kind, ll, offset)
	o.AddTo(m.ctrl, m.bus)
	m.overlays.Set(id, o)
	return o
}

// Overlays returns all overlays keyed by id.
func (m *Map) Overlays() map[string]*layer.Overlay {
	out := make(map[string]*layer.Overlay, m.overlays.Len())
	m.overlays.Each(func(id string, o *layer.Overlay) { out[id] = o })
	return out
}

// RemoveOverlay closes a popup or tooltip.
func (m *Map) RemoveOverlay(id string) {
	if o, ok := m.overlays.Delete(id); ok {
		o.Remove()
	}
}

// AddPath draws a vector path.
func (m *Map) AddPath(id string, ls geom.LineString) error {
	return m.renderer.AddPath(id, ls)
}

// LogAttrs returns the live view attributes added to every log record.
func (m *Map) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Float64("bearing", m.ctrl.Bearing()),
		slog.Float64("zoom", m.host.Zoom()),
		slog.String("gesture", string(m.guard.Active())),
	}
}

func (m *Map) onPointerDown(e dispatcher.Event) {
	ev, ok := e.Payload.(core.PointerEvent)
	if !ok {
		return
	}
	id, ok := strings.CutPrefix(ev.Target, MarkerTargetPrefix)
	if !ok {
		return
	}
	mk, ok := m.markers.Get(id)
	if !ok {
		return
	}
	d := layer.NewMarkerDrag(mk)
	if !d.Start() {
		return
	}
	m.drag = d
	m.dragOffset = mk.Position().Sub(m.panePoint(ev.Position))
}

func (m *Map) onPointerMove(e dispatcher.Event) {
	ev, ok := e.Payload.(core.PointerEvent)
	if !ok || m.drag == nil {
		return
	}
	m.drag.Drag(m.panePoint(ev.Position).Add(m.dragOffset))
}

func (m *Map) onPointerUp(dispatcher.Event) {
	if m.drag != nil {
		m.drag.End()
		m.drag = nil
	}
}

// panePoint converts container pixels into map pane pixels.
func (m *Map) panePoint(p r2.Point) r2.Point {
	return p.Sub(m.host.MapPanePos())
}
