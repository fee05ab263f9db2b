package gesture

import (
	"context"
	"math"

	"github.com/OCAP2/maprotate/internal/basemap"
	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/internal/geo"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
	"go.opentelemetry.io/otel/metric"
)

// View is the map view a pinch moves.
type View interface {
	Size() r2.Point
	Zoom() float64
	Project(ll core.LatLng, zoom float64) r2.Point
	Unproject(p r2.Point, zoom float64) core.LatLng
	Move(center core.LatLng, zoom float64)
	SetView(center core.LatLng, zoom float64)
	Frames() *basemap.Frames
}

// Converter maps container pixels to positions under the current bearing.
type Converter interface {
	ContainerPointToLatLng(p r2.Point) core.LatLng
}

// TouchGestures turns two-finger touches into a combined rotate and pinch
// zoom. Pinch updates are coalesced to one view move per frame.
type TouchGestures struct {
	handler
	deps Dependencies
	view View
	conv Converter

	rotate bool
	zoom   bool

	active      bool
	moved       bool
	rotating    bool
	startAngle  float64
	startBear   float64
	startDist   float64
	startZoom   float64
	centerPoint r2.Point
	pinchStart  core.LatLng
	center      core.LatLng
	zoomLevel   float64
	frame       basemap.FrameID

	coalesced metric.Int64Counter
}

// NewTouchGestures creates a touch handler with rotation and zoom switched off.
func NewTouchGestures(deps Dependencies, view View, conv Converter) *TouchGestures {
	t := &TouchGestures{deps: deps.withDefaults(), view: view, conv: conv}
	t.bus = deps.Bus
	t.listen(core.InputTouchStart, t.onStart)
	t.listen(core.InputTouchMove, t.onMove)
	t.listen(core.InputTouchEnd, t.onEnd)

	var err error
	t.coalesced, err = meter().Int64Counter(
		"gesture.frames.coalesced",
		metric.WithDescription("Pinch frames replaced before they ran"),
	)
	if err != nil {
		t.deps.Logger.Warn("failed to create coalesce counter", "error", err)
	}
	return t
}

// RotateToggle switches the rotation half of the gesture.
func (t *TouchGestures) RotateToggle() Toggle { return touchPart{t: t, rotate: true} }

// ZoomToggle switches the pinch zoom half of the gesture.
func (t *TouchGestures) ZoomToggle() Toggle { return touchPart{t: t} }

// Active reports whether a two-finger session is in progress.
func (t *TouchGestures) Active() bool { return t.active }

func (t *TouchGestures) sync() {
	if t.rotate || t.zoom {
		t.handler.Enable()
		return
	}
	t.handler.Disable()
	t.reset()
}

type touchPart struct {
	t      *TouchGestures
	rotate bool
}

func (p touchPart) Enable()  { p.set(true) }
func (p touchPart) Disable() { p.set(false) }

func (p touchPart) Enabled() bool {
	if p.rotate {
		return p.t.rotate
	}
	return p.t.zoom
}

func (p touchPart) set(on bool) {
	if p.rotate {
		p.t.rotate = on
	} else {
		p.t.zoom = on
	}
	p.t.sync()
}

// fingerAngle returns the direction of the finger vector in degrees, or false
// when both fingers share one point.
func fingerAngle(v r2.Point) (float64, bool) {
	if v.X == 0 && v.Y == 0 {
		return 0, false
	}
	deg := math.Atan(v.X/v.Y) * 180 / math.Pi
	if v.Y < 0 {
		deg += 180
	}
	return deg, true
}

func (t *TouchGestures) onStart(e dispatcher.Event) {
	ev, ok := e.Payload.(core.TouchEvent)
	if !ok || len(ev.Touches) != 2 || !(t.rotate || t.zoom) {
		return
	}
	if !t.deps.Guard.Acquire(SourceTouch) {
		return
	}

	// a start without a matching end replaces the abandoned session
	t.cancelFrame()

	p1, p2 := ev.Touches[0], ev.Touches[1]
	t.centerPoint = t.view.Size().Mul(0.5)
	t.pinchStart = t.conv.ContainerPointToLatLng(p1.Add(p2).Mul(0.5))
	t.center = t.conv.ContainerPointToLatLng(t.centerPoint)
	t.startDist = p1.Sub(p2).Norm()
	t.startZoom = t.view.Zoom()
	t.zoomLevel = t.startZoom
	t.startBear = t.deps.Rotator.Bearing()
	t.startAngle, t.rotating = fingerAngle(p2.Sub(p1))
	t.active = true
	t.moved = false
}

func (t *TouchGestures) onMove(e dispatcher.Event) {
	ev, ok := e.Payload.(core.TouchEvent)
	if !ok || !t.active || len(ev.Touches) != 2 {
		return
	}
	if !t.deps.Guard.Touch(SourceTouch) {
		t.reset()
		return
	}

	p1, p2 := ev.Touches[0], ev.Touches[1]

	if t.rotate && t.rotating {
		if angle, ok := fingerAngle(p2.Sub(p1)); ok {
			if delta := angle - t.startAngle; delta != 0 {
				t.deps.Rotator.SetBearing(t.startBear - delta)
			}
		}
	}
	t.moved = true

	if !t.zoom {
		return
	}
	dist := p1.Sub(p2).Norm()
	if t.startDist == 0 || dist == 0 {
		return
	}
	scale := dist / t.startDist
	t.zoomLevel = t.startZoom + math.Log2(scale)

	delta := p1.Add(p2).Mul(0.5).Sub(t.centerPoint)
	if scale == 1 && delta == (r2.Point{}) {
		return
	}
	alpha := -geo.Degrees(t.deps.Rotator.Bearing())
	pinch := t.view.Project(t.pinchStart, t.zoomLevel).Sub(geo.Rotate(delta, alpha))
	t.center = t.view.Unproject(pinch, t.zoomLevel)

	if t.cancelFrame() && t.coalesced != nil {
		t.coalesced.Add(context.Background(), 1)
	}
	center, zoom := t.center, t.zoomLevel
	t.frame = t.view.Frames().Request(func() {
		t.frame = 0
		t.view.Move(center, zoom)
	})
}

func (t *TouchGestures) onEnd(dispatcher.Event) {
	if !t.active {
		return
	}
	t.cancelFrame()
	if t.moved && t.zoom {
		t.view.SetView(t.center, t.zoomLevel)
	}
	t.reset()
}

// cancelFrame drops the pending pinch frame and reports whether there was one.
func (t *TouchGestures) cancelFrame() bool {
	if t.frame == 0 {
		return false
	}
	t.view.Frames().Cancel(t.frame)
	t.frame = 0
	return true
}

func (t *TouchGestures) reset() {
	t.cancelFrame()
	if t.active {
		t.deps.Guard.Release(SourceTouch)
	}
	t.active = false
	t.moved = false
	t.rotating = false
}
