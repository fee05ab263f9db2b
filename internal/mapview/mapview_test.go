package mapview

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/OCAP2/maprotate/internal/basemap"
	"github.com/OCAP2/maprotate/internal/control"
	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/internal/geo"
	"github.com/OCAP2/maprotate/internal/layer"
	"github.com/OCAP2/maprotate/internal/logging"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var london = core.LatLng{Lat: 51.5074, Lng: -0.1278}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testOptions() Options {
	mo := core.DefaultMapOptions()
	mo.Rotate = true
	return Options{
		MapOptions: mo,
		Size:       r2.Point{X: 800, Y: 600},
		Center:     london,
		Zoom:       10,
		Platform:   core.Platform{Any3D: true, Touch: true, DeviceOrientation: true},
	}
}

func newTestMap(t *testing.T, opts Options) (*Map, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m, err := New(opts, Dependencies{Now: clock.Now})
	require.NoError(t, err)
	return m, clock
}

func assertNear(t *testing.T, want, got r2.Point, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x")
	assert.InDelta(t, want.Y, got.Y, delta, "y")
}

func TestNew_InitialView(t *testing.T) {
	opts := testOptions()
	opts.Bearing = 30
	m, _ := newTestMap(t, opts)

	assert.True(t, m.Rotate())
	assert.InDelta(t, 30, m.Bearing(), 1e-9)
	assert.Equal(t, 10.0, m.Zoom())
	assert.InDelta(t, london.Lat, m.Center().Lat, 1e-3)
	assert.InDelta(t, london.Lng, m.Center().Lng, 1e-3)
	assert.True(t, m.Bounds().Contains(london.Point()))

	require.NotNil(t, m.Control())
	assert.Equal(t, control.TouchEnabled, m.Control().State(), "touch platforms start with touch rotation")
	assert.True(t, m.Control().Visible())
	assert.True(t, m.ShiftKeyRotate().Enabled())
	assert.True(t, m.WheelZoom().Enabled())
	assert.False(t, m.Compass().Enabled())
	assert.NotEmpty(t, m.Tiles().Visible())
}

func TestNew_InvalidSize(t *testing.T) {
	opts := testOptions()
	opts.Size = r2.Point{}

	_, err := New(opts, Dependencies{})
	assert.Error(t, err)
}

func TestNew_WithoutRotation(t *testing.T) {
	opts := testOptions()
	opts.Rotate = false
	opts.Bearing = 45
	m, _ := newTestMap(t, opts)

	m.SetBearing(90)

	assert.False(t, m.Rotate())
	assert.Equal(t, 0.0, m.Bearing())
	assert.False(t, m.ShiftKeyRotate().Enabled())
	assert.False(t, m.Touch().RotateToggle().Enabled())
	assert.Nil(t, m.Control().Glyph())

	p := r2.Point{X: 123, Y: 456}
	assert.Equal(t, p, m.ContainerPointToLayerPoint(p))
}

func TestSetBearing_Notifies(t *testing.T) {
	m, _ := newTestMap(t, testOptions())
	var got []core.RotateEvent
	m.On(core.EventRotate, func(e dispatcher.Event) {
		got = append(got, e.Payload.(core.RotateEvent))
	})

	m.SetBearing(90)
	m.SetBearing(450)

	require.Len(t, got, 2)
	assert.InDelta(t, 90, got[0].Bearing, 1e-9)
	assert.InDelta(t, 90, got[1].OldBearing, 1e-9)
	assert.InDelta(t, 90, got[1].Bearing, 1e-9)

	pt := m.PaneTransform(basemap.RotatePane)
	assertNear(t, r2.Point{X: 700, Y: -100}, pt.Position, 1e-9)
}

func TestMarker_RotatesWithView(t *testing.T) {
	m, _ := newTestMap(t, testOptions())
	layerPoint := m.ContainerPointToLayerPoint(r2.Point{X: 500, Y: 200})
	ll := m.ctrl.LayerPointToLatLng(layerPoint)
	mk := m.AddMarker("m1", ll, core.MarkerOptions{RotateWithView: true})
	assert.Equal(t, 0.0, mk.Angle())

	m.SetBearing(45)

	assert.InDelta(t, 45, mk.Angle(), 1e-9)
	assertNear(t, m.RotatedPointToMapPanePoint(m.ctrl.LatLngToLayerPoint(ll)), mk.Position(), 1e-9)

	// the pane position is the layer point turned about the pivot and nothing else
	pivot := r2.Point{X: 400, Y: 300}
	want := geo.Rotate(m.ctrl.LatLngToLayerPoint(ll).Sub(pivot), geo.Degrees(45)).Add(pivot)
	assertNear(t, want, mk.Position(), 1e-6)
}

func TestMarker_Registry(t *testing.T) {
	m, _ := newTestMap(t, testOptions())
	first := m.AddMarker("a", london, core.MarkerOptions{})
	m.AddMarker("b", london, core.MarkerOptions{})
	m.AddMarker("a", london, core.MarkerOptions{Rotation: 10})

	assert.False(t, first.OnMap(), "replaced marker is removed")
	require.Len(t, m.Markers(), 2)
	got, ok := m.Marker("a")
	require.True(t, ok)
	assert.Equal(t, 10.0, got.Options().Rotation)

	m.RemoveMarker("a")
	_, ok = m.Marker("a")
	assert.False(t, ok)
	assert.False(t, got.OnMap())
}

func TestOverlays(t *testing.T) {
	m, _ := newTestMap(t, testOptions())
	o := m.AddOverlay("p", layer.Popup, london, r2.Point{Y: -20})
	require.Contains(t, m.Overlays(), "p")

	m.SetBearing(120)
	assert.Equal(t, 0.0, o.Angle())

	m.RemoveOverlay("p")
	assert.Empty(t, m.Overlays())
}

func TestTouch_RotateAndPinch(t *testing.T) {
	m, _ := newTestMap(t, testOptions())

	require.NoError(t, m.Dispatch(core.InputTouchStart, core.TouchEvent{
		Touches: []r2.Point{{X: 350, Y: 300}, {X: 450, Y: 300}},
	}))
	require.NoError(t, m.Dispatch(core.InputTouchMove, core.TouchEvent{
		Touches: []r2.Point{{X: 360, Y: 250}, {X: 440, Y: 350}},
	}))

	assert.InDelta(t, 51.3401917, m.Bearing(), 1e-6)
	assert.Equal(t, "touch", string(m.Guard().Active()))

	assert.Equal(t, 1, m.FlushFrames())
	assert.InDelta(t, 10+math.Log2(math.Hypot(80, 100)/100), m.Zoom(), 1e-9)

	require.NoError(t, m.Dispatch(core.InputTouchEnd, core.TouchEvent{}))
	assert.Equal(t, 10.0, m.Zoom(), "zoom snaps on release")
	assert.Empty(t, string(m.Guard().Active()))
	assert.InDelta(t, 51.3401917, m.Bearing(), 1e-6)
}

func TestShiftWheel(t *testing.T) {
	m, _ := newTestMap(t, testOptions())
	wheel := func(delta float64, shift bool) {
		t.Helper()
		require.NoError(t, m.Dispatch(core.InputWheel, core.WheelEvent{
			Position: r2.Point{X: 400, Y: 300},
			DeltaY:   delta,
			ShiftKey: shift,
		}))
	}

	wheel(-1, true)
	wheel(-1, true)
	assert.InDelta(t, 350, m.Bearing(), 1e-9)
	assert.Equal(t, 10.0, m.Zoom(), "shift ticks do not zoom")
	assert.False(t, m.WheelZoom().Enabled())

	wheel(-1, false)
	assert.True(t, m.WheelZoom().Enabled())
	wheel(-1, false)
	assert.Equal(t, 11.0, m.Zoom())
	assert.InDelta(t, 350, m.Bearing(), 1e-9)
}

func TestInput_LoggedByDispatcher(t *testing.T) {
	var buf bytes.Buffer
	m, err := New(testOptions(), Dependencies{
		DispatcherLogger: logging.NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)),
	})
	require.NoError(t, err)

	require.NoError(t, m.Dispatch(core.InputWheel, core.WheelEvent{
		Position: r2.Point{X: 400, Y: 300}, DeltaY: -1, ShiftKey: true,
	}))
	require.NoError(t, m.Dispatch(core.InputTouchStart, core.TouchEvent{
		Touches: []r2.Point{{X: 350, Y: 300}, {X: 450, Y: 300}},
	}))
	require.NoError(t, m.Dispatch(core.InputPointerDown, core.PointerEvent{Position: r2.Point{X: 10, Y: 10}}))

	out := buf.String()
	for _, event := range []string{core.InputWheel, core.InputTouchStart, core.InputPointerDown} {
		assert.Contains(t, out, `"event":"`+event+`"`)
	}
	assert.Contains(t, out, `"message":"event complete"`)
	assert.Contains(t, out, `"component":"dispatcher"`)
}

func TestInput_NotLoggedAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	m, err := New(testOptions(), Dependencies{
		DispatcherLogger: logging.NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.InfoLevel)),
	})
	require.NoError(t, err)

	m.SetBearing(45)
	require.NoError(t, m.Dispatch(core.InputWheel, core.WheelEvent{DeltaY: -1, ShiftKey: true}))
	assert.Zero(t, buf.Len())
}

func TestHandles(t *testing.T) {
	m, _ := newTestMap(t, testOptions())
	assert.True(t, m.Handles(core.InputWheel))
	assert.False(t, m.Handles("keydown"))

	fired := 0
	m.On(core.EventRotate, func(dispatcher.Event) { fired++ }, dispatcher.Once())
	m.SetBearing(10)
	m.SetBearing(20)
	assert.Equal(t, 1, fired)
}

func TestCompass_FollowsThroughControl(t *testing.T) {
	m, clock := newTestMap(t, testOptions())
	ctl := m.Control()

	ctl.Click()
	require.Equal(t, control.CompassFollow, ctl.State())
	require.True(t, m.Compass().Enabled())

	orient := func(alpha float64) {
		t.Helper()
		require.NoError(t, m.Dispatch(core.InputDeviceOrientation, core.OrientationEvent{Alpha: alpha, Absolute: true}))
	}
	orient(90)
	clock.Advance(100 * time.Millisecond)
	orient(180)
	assert.InDelta(t, 90, m.Bearing(), 1e-9, "second sample is throttled")

	clock.Advance(time.Second)
	orient(180)
	assert.InDelta(t, 180, m.Bearing(), 1e-9)

	ctl.Click()
	assert.Equal(t, control.Locked, ctl.State())
	assert.Equal(t, 0.0, m.Bearing())
	assert.False(t, ctl.Visible())
}

func TestControl_WithoutCompass(t *testing.T) {
	opts := testOptions()
	opts.Platform.DeviceOrientation = false
	m, _ := newTestMap(t, opts)

	m.Control().Click()
	assert.Equal(t, control.Locked, m.Control().State())
	assert.False(t, m.Touch().RotateToggle().Enabled())
	assert.False(t, m.Compass().Supported())
}

func TestGlyphDrag(t *testing.T) {
	m, _ := newTestMap(t, testOptions())

	require.NoError(t, m.Dispatch(core.InputPointerDown, core.PointerEvent{Position: r2.Point{X: 20, Y: 20}, Target: control.GlyphTarget}))
	require.NoError(t, m.Dispatch(core.InputPointerMove, core.PointerEvent{Position: r2.Point{X: 65, Y: 20}}))
	require.NoError(t, m.Dispatch(core.InputPointerUp, core.PointerEvent{Position: r2.Point{X: 65, Y: 20}}))

	assert.InDelta(t, 45, m.Bearing(), 1e-9)
	assert.InDelta(t, 45, m.Control().ArrowAngle(), 1e-9)
}

func TestMarkerDrag_ThroughPointer(t *testing.T) {
	m, _ := newTestMap(t, testOptions())
	m.SetBearing(90)
	mk := m.AddMarker("m", london, core.MarkerOptions{Draggable: true})
	var moved []core.MarkerEvent
	m.On(core.EventMarkerMove, func(e dispatcher.Event) {
		moved = append(moved, e.Payload.(core.MarkerEvent))
	})

	start := mk.Position().Add(r2.Point{X: 3, Y: 4})
	require.NoError(t, m.Dispatch(core.InputPointerDown, core.PointerEvent{Position: start, Target: MarkerTargetPrefix + "m"}))
	require.NoError(t, m.Dispatch(core.InputPointerMove, core.PointerEvent{Position: start.Add(r2.Point{X: 50})}))
	require.NoError(t, m.Dispatch(core.InputPointerUp, core.PointerEvent{}))

	assert.InDelta(t, 90, m.Bearing(), 1e-9, "a marker drag does not rotate")
	require.Len(t, moved, 1)
	want := m.ContainerPointToLatLng(m.LayerPointToContainerPoint(m.MapPanePointToRotatedPoint(mk.Position())))
	assert.InDelta(t, want.Lat, mk.LatLng().Lat, 1e-9)
	assert.InDelta(t, want.Lng, mk.LatLng().Lng, 1e-9)
	// a quarter turn carries screen east to layer north
	assert.Greater(t, mk.LatLng().Lat, london.Lat)
}

func TestResize_KeepsCenter(t *testing.T) {
	m, _ := newTestMap(t, testOptions())
	m.SetBearing(30)
	before := m.Center()

	m.SetSize(r2.Point{X: 1000, Y: 700})
	m.SetBearing(75)

	after := m.Center()
	assert.InDelta(t, before.Lat, after.Lat, 1e-4)
	assert.InDelta(t, before.Lng, after.Lng, 1e-4)
	assert.Equal(t, r2.Point{X: 500, Y: 350}.Sub(m.host.MapPanePos()), m.State().Pivot)
}

func TestPan_RotatedRoundTrip(t *testing.T) {
	m, _ := newTestMap(t, testOptions())
	m.SetBearing(200)
	m.PanBy(r2.Point{X: -75, Y: 40})

	for _, p := range []r2.Point{{X: 0, Y: 0}, {X: 800, Y: 600}, {X: 123.5, Y: 77.25}} {
		assertNear(t, p, m.LatLngToContainerPoint(m.ContainerPointToLatLng(p)), 1e-4)
	}
}

func TestLogAttrs(t *testing.T) {
	m, _ := newTestMap(t, testOptions())
	m.SetBearing(15)

	attrs := m.LogAttrs()
	require.Len(t, attrs, 3)
	assert.Equal(t, "bearing", attrs[0].Key)
	assert.InDelta(t, 15, attrs[0].Value.Float64(), 1e-9)
	assert.Equal(t, "zoom", attrs[1].Key)
	assert.Equal(t, "gesture", attrs[2].Key)
}

func TestSnapshot(t *testing.T) {
	m, _ := newTestMap(t, testOptions())
	m.AddMarker("m", london, core.MarkerOptions{Rotation: 12.3456789})
	route, err := geo.NewPath([]core.LatLng{london, {Lat: 51.51, Lng: -0.12}})
	require.NoError(t, err)
	require.NoError(t, m.AddPath("route", route))
	m.SetBearing(33.3333333333)

	s := m.Snapshot().Rounded(3)

	assert.Equal(t, 33.333, s.Bearing)
	assert.Equal(t, "touch", s.Control)
	assert.True(t, s.ControlVisible)
	assert.Equal(t, uint32(10), s.TileZoom)
	assert.NotZero(t, s.Tiles)
	assert.Equal(t, []string{"route"}, s.Paths)
	require.Len(t, s.Markers, 1)
	assert.Equal(t, 12.346, s.Markers[0].Angle)
	assert.Equal(t, 51.507, s.Markers[0].Lat)
}
