// Package control implements the rotation control widget.
package control

import (
	"log/slog"

	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/internal/gesture"
	"github.com/OCAP2/maprotate/pkg/core"
)

// GlyphTarget is the pointer target name of the widget's arrow glyph.
const GlyphTarget = "rotate-control"

// State is the mode the widget is in.
type State int

const (
	Locked State = iota
	TouchEnabled
	CompassFollow
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case TouchEnabled:
		return "touch"
	case CompassFollow:
		return "compass"
	}
	return "unknown"
}

// Rotator is the bearing the widget shows and resets.
type Rotator interface {
	gesture.Rotator
	Enabled() bool
}

// Compass is the compass follower the widget switches.
type Compass interface {
	gesture.Toggle
	Supported() bool
}

// Dependencies holds the collaborators of the widget.
type Dependencies struct {
	Bus      gesture.Bus
	Rotator  Rotator
	Touch    gesture.Toggle
	Compass  Compass
	Guard    *gesture.Guard
	Platform gesture.PlatformSource
	Logger   *slog.Logger
}

// Options configures the widget.
type Options struct {
	CloseOnZeroBearing bool
}

// Rotate cycles between locked, touch and compass modes on click and turns
// the map when its glyph is dragged.
type Rotate struct {
	deps  Dependencies
	opts  Options
	state State
	glyph *gesture.DragRotate

	visible bool
	arrow   float64
	rotate  dispatcher.ListenerID
}

// NewRotate creates the widget. Without rotation the widget forces touch
// rotation off and stays inert.
func NewRotate(deps Dependencies, opts Options) *Rotate {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	r := &Rotate{deps: deps, opts: opts}

	if !deps.Rotator.Enabled() {
		if deps.Touch != nil {
			deps.Touch.Disable()
		}
		deps.Logger.Debug("rotation disabled, rotate control is inert")
		return r
	}

	r.glyph = gesture.NewDragRotate(gesture.Dependencies{
		Bus:     deps.Bus,
		Rotator: deps.Rotator,
		Guard:   deps.Guard,
		Logger:  deps.Logger,
	}, GlyphTarget)
	if deps.Platform.Platform().Any3D {
		r.glyph.Enable()
	}

	if deps.Touch != nil && deps.Touch.Enabled() {
		r.state = TouchEnabled
	}
	r.rotate = deps.Bus.On(core.EventRotate, func(dispatcher.Event) { r.refresh() })
	r.refresh()
	return r
}

// State returns the current mode.
func (r *Rotate) State() State { return r.state }

// Visible reports whether the widget is shown.
func (r *Rotate) Visible() bool { return r.visible }

// ArrowAngle returns the glyph angle in degrees. It mirrors the bearing.
func (r *Rotate) ArrowAngle() float64 { return r.arrow }

// Glyph returns the drag handler of the glyph, nil when the widget is inert.
func (r *Rotate) Glyph() *gesture.DragRotate { return r.glyph }

// Click advances to the next mode, skipping compass mode when the platform
// has no orientation sensor.
func (r *Rotate) Click() {
	switch r.state {
	case Locked:
		r.SetState(TouchEnabled)
	case TouchEnabled:
		if r.compassSupported() {
			r.SetState(CompassFollow)
		} else {
			r.SetState(Locked)
		}
	case CompassFollow:
		r.SetState(Locked)
	}
}

// SetState switches to s. Compass mode is refused when unsupported.
func (r *Rotate) SetState(s State) {
	if r.glyph == nil || s == r.state {
		return
	}
	if s == CompassFollow && !r.compassSupported() {
		r.deps.Logger.Debug("compass mode unavailable", "state", r.state)
		return
	}

	prev := r.state
	r.state = s
	switch s {
	case Locked:
		r.setTouch(false)
		if r.deps.Compass != nil {
			r.deps.Compass.Disable()
		}
		if prev == CompassFollow {
			r.deps.Rotator.SetBearing(0)
		}
	case TouchEnabled:
		r.setTouch(true)
		if r.deps.Compass != nil {
			r.deps.Compass.Disable()
		}
	case CompassFollow:
		r.setTouch(false)
		r.deps.Compass.Enable()
	}
	r.deps.Logger.Debug("rotate control state changed", "from", prev, "to", s)
	r.refresh()
}

// Remove detaches the widget from the map.
func (r *Rotate) Remove() {
	if r.glyph == nil {
		return
	}
	r.glyph.Disable()
	r.deps.Bus.Off(core.EventRotate, r.rotate)
	r.glyph = nil
}

func (r *Rotate) compassSupported() bool {
	return r.deps.Compass != nil && r.deps.Compass.Supported()
}

func (r *Rotate) setTouch(on bool) {
	if r.deps.Touch == nil {
		return
	}
	if on {
		r.deps.Touch.Enable()
	} else {
		r.deps.Touch.Disable()
	}
}

func (r *Rotate) refresh() {
	if r.glyph == nil {
		return
	}
	bearing := r.deps.Rotator.Bearing()
	r.arrow = bearing
	r.visible = !(r.opts.CloseOnZeroBearing && r.state == Locked && bearing == 0)
}
