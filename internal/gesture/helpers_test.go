package gesture

import (
	"testing"
	"time"

	"github.com/OCAP2/maprotate/internal/basemap"
	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/internal/geo"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/require"
)

type fakeRotator struct {
	bearing float64
	calls   []float64
}

func (r *fakeRotator) SetBearing(deg float64) {
	r.bearing = deg
	r.calls = append(r.calls, deg)
}

func (r *fakeRotator) Bearing() float64 { return r.bearing }

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeToggle struct{ on bool }

func (t *fakeToggle) Enable()       { t.on = true }
func (t *fakeToggle) Disable()      { t.on = false }
func (t *fakeToggle) Enabled() bool { return t.on }

type viewCall struct {
	center core.LatLng
	zoom   float64
}

type fakeView struct {
	size     r2.Point
	zoom     float64
	frames   *basemap.Frames
	moves    []viewCall
	setViews []viewCall
}

func newFakeView() *fakeView {
	return &fakeView{size: r2.Point{X: 800, Y: 600}, zoom: 10, frames: basemap.NewFrames()}
}

func (v *fakeView) Size() r2.Point                                 { return v.size }
func (v *fakeView) Zoom() float64                                  { return v.zoom }
func (v *fakeView) Frames() *basemap.Frames                        { return v.frames }
func (v *fakeView) Project(ll core.LatLng, zoom float64) r2.Point  { return geo.Project(ll, zoom) }
func (v *fakeView) Unproject(p r2.Point, zoom float64) core.LatLng { return geo.Unproject(p, zoom) }

func (v *fakeView) Move(center core.LatLng, zoom float64) {
	v.zoom = zoom
	v.moves = append(v.moves, viewCall{center, zoom})
}

func (v *fakeView) SetView(center core.LatLng, zoom float64) {
	v.zoom = zoom
	v.setViews = append(v.setViews, viewCall{center, zoom})
}

// flatConverter treats the view as unrotated and centered on (0,0).
type flatConverter struct{ v *fakeView }

func (c flatConverter) ContainerPointToLatLng(p r2.Point) core.LatLng {
	origin := geo.Project(core.LatLng{}, c.v.zoom).Sub(c.v.size.Mul(0.5))
	return geo.Unproject(p.Add(origin), c.v.zoom)
}

type testEnv struct {
	bus     *dispatcher.Dispatcher
	rotator *fakeRotator
	clock   *fakeClock
	guard   *Guard
	deps    Dependencies
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	bus, err := dispatcher.New(nil)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	guard := NewGuard(5*time.Second, clock.Now, nil)
	rotator := &fakeRotator{}
	return &testEnv{
		bus:     bus,
		rotator: rotator,
		clock:   clock,
		guard:   guard,
		deps: Dependencies{
			Bus:     bus,
			Rotator: rotator,
			Guard:   guard,
			Now:     clock.Now,
		},
	}
}

func touches(pts ...r2.Point) core.TouchEvent {
	return core.TouchEvent{Touches: pts}
}

func pointer(x, y float64) core.PointerEvent {
	return core.PointerEvent{Position: r2.Point{X: x, Y: y}}
}
