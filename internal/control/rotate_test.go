package control

import (
	"testing"

	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/internal/gesture"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRotator struct {
	bus     *dispatcher.Dispatcher
	enabled bool
	bearing float64
}

func (r *fakeRotator) Enabled() bool    { return r.enabled }
func (r *fakeRotator) Bearing() float64 { return r.bearing }

func (r *fakeRotator) SetBearing(deg float64) {
	old := r.bearing
	r.bearing = deg
	r.bus.Fire(core.EventRotate, core.RotateEvent{OldBearing: old, Bearing: deg})
}

type fakeToggle struct{ on bool }

func (t *fakeToggle) Enable()       { t.on = true }
func (t *fakeToggle) Disable()      { t.on = false }
func (t *fakeToggle) Enabled() bool { return t.on }

type fakeCompass struct {
	fakeToggle
	supported bool
}

func (c *fakeCompass) Supported() bool { return c.supported }

type staticPlatform core.Platform

func (p staticPlatform) Platform() core.Platform { return core.Platform(p) }

type widgetEnv struct {
	bus     *dispatcher.Dispatcher
	rotator *fakeRotator
	touch   *fakeToggle
	compass *fakeCompass
	deps    Dependencies
}

func newWidgetEnv(t *testing.T, compass bool) *widgetEnv {
	t.Helper()
	bus, err := dispatcher.New(nil)
	require.NoError(t, err)

	env := &widgetEnv{
		bus:     bus,
		rotator: &fakeRotator{bus: bus, enabled: true},
		touch:   &fakeToggle{},
		compass: &fakeCompass{supported: compass},
	}
	env.deps = Dependencies{
		Bus:      bus,
		Rotator:  env.rotator,
		Touch:    env.touch,
		Compass:  env.compass,
		Guard:    gesture.NewGuard(0, nil, nil),
		Platform: staticPlatform{Any3D: true, DeviceOrientation: compass},
	}
	return env
}

func TestRotate_ClickCycle(t *testing.T) {
	env := newWidgetEnv(t, true)
	w := NewRotate(env.deps, Options{CloseOnZeroBearing: true})
	require.Equal(t, Locked, w.State())

	w.Click()
	assert.Equal(t, TouchEnabled, w.State())
	assert.True(t, env.touch.Enabled())
	assert.False(t, env.compass.Enabled())

	w.Click()
	assert.Equal(t, CompassFollow, w.State())
	assert.False(t, env.touch.Enabled())
	assert.True(t, env.compass.Enabled())

	env.rotator.SetBearing(120)
	w.Click()
	assert.Equal(t, Locked, w.State())
	assert.False(t, env.compass.Enabled())
	assert.Equal(t, 0.0, env.rotator.Bearing(), "leaving compass mode resets the bearing")
}

func TestRotate_SkipsCompassWhenUnsupported(t *testing.T) {
	env := newWidgetEnv(t, false)
	w := NewRotate(env.deps, Options{})

	w.Click()
	env.rotator.SetBearing(45)
	w.Click()

	assert.Equal(t, Locked, w.State())
	assert.False(t, env.touch.Enabled())
	assert.Equal(t, 45.0, env.rotator.Bearing(), "bearing untouched when skipping compass mode")
}

func TestRotate_RefusesCompassWhenUnsupported(t *testing.T) {
	env := newWidgetEnv(t, false)
	w := NewRotate(env.deps, Options{})

	w.SetState(CompassFollow)

	assert.Equal(t, Locked, w.State())
	assert.False(t, env.compass.Enabled())
}

func TestRotate_Visibility(t *testing.T) {
	env := newWidgetEnv(t, true)
	w := NewRotate(env.deps, Options{CloseOnZeroBearing: true})
	assert.False(t, w.Visible(), "hidden while locked at north")

	env.rotator.SetBearing(10)
	assert.True(t, w.Visible())
	assert.Equal(t, 10.0, w.ArrowAngle())

	env.rotator.SetBearing(0)
	assert.False(t, w.Visible())

	w.Click()
	assert.True(t, w.Visible(), "shown while touch rotation is on")
}

func TestRotate_AlwaysVisibleWithoutClose(t *testing.T) {
	env := newWidgetEnv(t, true)
	w := NewRotate(env.deps, Options{})
	assert.True(t, w.Visible())
}

func TestRotate_StartsInTouchMode(t *testing.T) {
	env := newWidgetEnv(t, true)
	env.touch.on = true

	w := NewRotate(env.deps, Options{})
	assert.Equal(t, TouchEnabled, w.State())
}

func TestRotate_GlyphDrag(t *testing.T) {
	env := newWidgetEnv(t, true)
	w := NewRotate(env.deps, Options{})
	require.True(t, w.Glyph().Enabled())

	env.bus.Fire(core.InputPointerDown, core.PointerEvent{Position: r2.Point{X: 10}, Target: "map"})
	env.bus.Fire(core.InputPointerMove, core.PointerEvent{Position: r2.Point{X: 40}})
	assert.Equal(t, 0.0, env.rotator.Bearing(), "only the glyph starts a drag")

	env.bus.Fire(core.InputPointerDown, core.PointerEvent{Position: r2.Point{X: 10}, Target: GlyphTarget})
	env.bus.Fire(core.InputPointerMove, core.PointerEvent{Position: r2.Point{X: 40}})
	env.bus.Fire(core.InputPointerUp, core.PointerEvent{Position: r2.Point{X: 40}})

	assert.Equal(t, 30.0, env.rotator.Bearing())
	assert.Equal(t, 30.0, w.ArrowAngle())
	assert.False(t, w.Glyph().Active())
}

func TestRotate_NoGlyphWithout3D(t *testing.T) {
	env := newWidgetEnv(t, true)
	env.deps.Platform = staticPlatform{}

	w := NewRotate(env.deps, Options{})
	assert.False(t, w.Glyph().Enabled())
}

func TestRotate_InertWithoutRotation(t *testing.T) {
	env := newWidgetEnv(t, true)
	env.rotator.enabled = false
	env.touch.on = true

	w := NewRotate(env.deps, Options{})
	w.Click()

	assert.False(t, env.touch.Enabled(), "touch rotation forced off")
	assert.Equal(t, Locked, w.State())
	assert.Nil(t, w.Glyph())
}

func TestRotate_Remove(t *testing.T) {
	env := newWidgetEnv(t, true)
	w := NewRotate(env.deps, Options{})
	glyph := w.Glyph()

	w.Remove()
	env.rotator.SetBearing(50)

	assert.False(t, glyph.Enabled())
	assert.Equal(t, 0.0, w.ArrowAngle())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "locked", Locked.String())
	assert.Equal(t, "touch", TouchEnabled.String())
	assert.Equal(t, "compass", CompassFollow.String())
	assert.Equal(t, "unknown", State(9).String())
}
