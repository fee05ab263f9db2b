package rotation

import (
	"math"
	"testing"

	"github.com/OCAP2/maprotate/internal/basemap"
	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var london = core.LatLng{Lat: 51.5074, Lng: -0.1278}

type fixture struct {
	bus  *dispatcher.Dispatcher
	host *basemap.Map
	ctrl *Controller
}

func newFixture(t *testing.T, enabled bool, platform core.Platform) *fixture {
	t.Helper()
	bus, err := dispatcher.New(nil)
	require.NoError(t, err)

	host := basemap.New(bus, nil, basemap.Options{
		Size:     r2.Point{X: 800, Y: 600},
		MaxZoom:  18,
		ZoomSnap: 1,
		Platform: platform,
	})
	ctrl := NewController(Dependencies{Host: host, Notifier: bus}, enabled)
	host.SetPixelOriginFunc(ctrl.PixelOrigin)
	host.SetView(london, 10)
	return &fixture{bus: bus, host: host, ctrl: ctrl}
}

func newRotating(t *testing.T) *fixture {
	return newFixture(t, true, core.Platform{Any3D: true})
}

func assertNear(t *testing.T, want, got r2.Point, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x")
	assert.InDelta(t, want.Y, got.Y, delta, "y")
}

func TestSetBearing_PivotMapsToItself(t *testing.T) {
	f := newRotating(t)

	f.ctrl.SetBearing(90)

	pivot := r2.Point{X: 400, Y: 300}
	assert.Equal(t, pivot, f.ctrl.State().Pivot)
	assertNear(t, pivot, f.ctrl.RotatedPointToMapPanePoint(pivot), 1e-9)
	assertNear(t, r2.Point{X: 700, Y: -100}, f.ctrl.State().RotatePanePos, 1e-9)
}

func TestSetBearing_KeepsCenter(t *testing.T) {
	f := newRotating(t)
	f.host.PanBy(r2.Point{X: 120, Y: -45})

	half := f.host.Size().Mul(0.5)
	before := f.ctrl.ContainerPointToLayerPoint(half)

	for _, deg := range []float64{30, 181, -47.5, 0, 359} {
		f.ctrl.SetBearing(deg)
		assertNear(t, before, f.ctrl.ContainerPointToLayerPoint(half), 1e-7)
	}
}

func TestSetBearing_StoresNormalizedDegrees(t *testing.T) {
	f := newRotating(t)

	tests := []struct {
		in   float64
		want float64
	}{
		{45, 45},
		{360, 0},
		{-90, 270},
		{725, 5},
		{-308.66, 51.34},
	}

	for _, tt := range tests {
		f.ctrl.SetBearing(tt.in)
		assert.InDelta(t, tt.want, f.ctrl.Bearing(), 1e-9, "input %v", tt.in)
		assert.GreaterOrEqual(t, f.ctrl.Bearing(), 0.0)
		assert.Less(t, f.ctrl.Bearing(), 360.0)
	}
}

func TestSetBearing_Idempotent(t *testing.T) {
	f := newRotating(t)

	f.ctrl.SetBearing(30)
	first := f.ctrl.State()
	f.ctrl.SetBearing(30)
	second := f.ctrl.State()

	assert.InDelta(t, first.Bearing.Radians(), second.Bearing.Radians(), 1e-12)
	assertNear(t, first.RotatePanePos, second.RotatePanePos, 1e-9)
}

func TestSetBearing_PathIndependent(t *testing.T) {
	direct := newRotating(t)
	direct.ctrl.SetBearing(75)

	stepped := newRotating(t)
	stepped.ctrl.SetBearing(20)
	stepped.ctrl.SetBearing(140)
	stepped.ctrl.SetBearing(75)

	assertNear(t, direct.ctrl.State().RotatePanePos, stepped.ctrl.State().RotatePanePos, 1e-9)
}

func TestSetBearing_FiresRotate(t *testing.T) {
	f := newRotating(t)

	var got []core.RotateEvent
	f.bus.On(core.EventRotate, func(e dispatcher.Event) {
		got = append(got, e.Payload.(core.RotateEvent))
	})

	f.ctrl.SetBearing(10)
	f.ctrl.SetBearing(20)

	require.Len(t, got, 2)
	assert.InDelta(t, 0, got[0].OldBearing, 1e-9)
	assert.InDelta(t, 10, got[0].Bearing, 1e-9)
	assert.InDelta(t, 10, got[1].OldBearing, 1e-9)
	assert.InDelta(t, 20, got[1].Bearing, 1e-9)
}

func TestSetBearing_AppliesPaneTransform(t *testing.T) {
	f := newRotating(t)
	f.ctrl.SetBearing(60)

	pane := f.host.PaneTransform(basemap.RotatePane)
	assert.Equal(t, f.ctrl.State().RotatePanePos, pane.Position)
	assert.Equal(t, f.ctrl.State().RotatePanePos, pane.Origin)
	assert.InDelta(t, 60, pane.Angle.Degrees(), 1e-9)
}

func TestSetBearing_NoOpWhenUnsupported(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		platform core.Platform
	}{
		{"rotation disabled", false, core.Platform{Any3D: true}},
		{"no 3d transforms", true, core.Platform{Any3D: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.enabled, tt.platform)
			fired := false
			f.bus.On(core.EventRotate, func(dispatcher.Event) { fired = true })

			f.ctrl.SetBearing(45)

			assert.Equal(t, 0.0, f.ctrl.Bearing())
			assert.Equal(t, State{}, f.ctrl.State())
			assert.False(t, fired)
		})
	}
}

func TestRefresh_TracksPan(t *testing.T) {
	f := newRotating(t)
	f.host.PanBy(r2.Point{X: 10, Y: 20})
	f.ctrl.Refresh()

	assert.Equal(t, r2.Point{X: 410, Y: 320}, f.ctrl.State().Pivot)
}

func TestEnabled(t *testing.T) {
	assert.True(t, newRotating(t).ctrl.Enabled())
	assert.False(t, newFixture(t, false, core.Platform{Any3D: true}).ctrl.Enabled())
}

func TestNewController_DefaultsLogger(t *testing.T) {
	f := newFixture(t, true, core.Platform{})
	assert.NotNil(t, f.ctrl.logger)
	assert.False(t, math.IsNaN(f.ctrl.Bearing()))
}
