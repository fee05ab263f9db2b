package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/OCAP2/maprotate/internal/config"
	"github.com/OCAP2/maprotate/internal/geo"
	"github.com/OCAP2/maprotate/internal/mapview"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/bytedance/sonic"
	"github.com/golang/geo/r2"
)

// Step types understood by replay.
const (
	StepPointerDown       = core.InputPointerDown
	StepPointerMove       = core.InputPointerMove
	StepPointerUp         = core.InputPointerUp
	StepTouchStart        = core.InputTouchStart
	StepTouchMove         = core.InputTouchMove
	StepTouchEnd          = core.InputTouchEnd
	StepWheel             = core.InputWheel
	StepDeviceOrientation = core.InputDeviceOrientation
	StepClickControl      = "click-control"
	StepFrame             = "frame"
	StepPan               = "pan"
	StepZoom              = "zoom"
	StepResize            = "resize"
	StepAdvance           = "advance"
	StepBearing           = "bearing"
)

var (
	ErrUnknownStep = errors.New("unknown step type")
	ErrNoControl   = errors.New("map has no rotate control")
)

// Script is a replay input file.
type Script struct {
	Size     [2]float64     `json:"size"`
	Center   *[2]float64    `json:"center"`
	Zoom     *float64       `json:"zoom"`
	Rotate   *bool          `json:"rotate"`
	Bearing  *float64       `json:"bearing"`
	Compass  *bool          `json:"compassBearing"`
	Touch    *bool          `json:"touchRotate"`
	Platform *core.Platform `json:"platform"`
	Markers  []ScriptMarker `json:"markers"`
	Paths    []ScriptPath   `json:"paths"`
	Steps    []Step         `json:"steps"`
}

// ScriptMarker places a marker before the first step.
type ScriptMarker struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	core.MarkerOptions
}

// ScriptPath adds a vector path; Coords is a JSON array of [lng,lat] pairs.
type ScriptPath struct {
	ID     string `json:"id"`
	Coords string `json:"coords"`
}

// Step is one scripted input. Which fields matter depends on Type.
type Step struct {
	Type     string       `json:"type"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Target   string       `json:"target,omitempty"`
	Touches  [][2]float64 `json:"touches,omitempty"`
	DeltaY   float64      `json:"deltaY,omitempty"`
	Shift    bool         `json:"shift,omitempty"`
	Alpha    float64      `json:"alpha,omitempty"`
	Absolute bool         `json:"absolute,omitempty"`
	Heading  *float64     `json:"heading,omitempty"`
	Zoom     float64      `json:"zoom,omitempty"`
	Bearing  float64      `json:"bearing,omitempty"`
	Millis   int64        `json:"ms,omitempty"`
}

// LoadScript reads and decodes a replay script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes a replay script, filling a default size.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := sonic.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script JSON: %w", err)
	}
	if s.Size == [2]float64{} {
		s.Size = [2]float64{800, 600}
	}
	return &s, nil
}

// MapOptions merges the script overrides onto the configured options.
func (s *Script) MapOptions() mapview.Options {
	opts := mapview.Options{
		MapOptions: config.GetMapOptions(),
		Size:       r2.Point{X: s.Size[0], Y: s.Size[1]},
		Platform:   core.Platform{Any3D: true},
	}
	if s.Center != nil {
		opts.Center = core.LatLng{Lat: s.Center[0], Lng: s.Center[1]}
	}
	if s.Zoom != nil {
		opts.Zoom = *s.Zoom
	}
	if s.Rotate != nil {
		opts.Rotate = *s.Rotate
	}
	if s.Bearing != nil {
		opts.Bearing = *s.Bearing
	}
	if s.Compass != nil {
		opts.CompassBearing = *s.Compass
	}
	if s.Touch != nil {
		opts.TouchRotate = s.Touch
	}
	if s.Platform != nil {
		opts.Platform = *s.Platform
	}
	return opts
}

// Populate adds the script's markers and paths to m.
func (s *Script) Populate(m *mapview.Map) error {
	for _, mk := range s.Markers {
		m.AddMarker(mk.ID, core.LatLng{Lat: mk.Lat, Lng: mk.Lng}, mk.MarkerOptions)
	}
	for _, p := range s.Paths {
		ls, err := geo.ParsePolyline(p.Coords)
		if err != nil {
			return fmt.Errorf("path %q: %w", p.ID, err)
		}
		if err := m.AddPath(p.ID, ls); err != nil {
			return fmt.Errorf("path %q: %w", p.ID, err)
		}
	}
	return nil
}

// clock is the replay's notion of now; only advance steps move it.
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

// Apply feeds one step into m.
func (st Step) Apply(m *mapview.Map, c *clock) error {
	pos := r2.Point{X: st.X, Y: st.Y}

	switch st.Type {
	case StepPointerDown, StepPointerMove, StepPointerUp:
		return dispatch(m, st.Type, core.PointerEvent{Position: pos, Target: st.Target, Time: c.now})
	case StepTouchStart, StepTouchMove, StepTouchEnd:
		touches := make([]r2.Point, len(st.Touches))
		for i, t := range st.Touches {
			touches[i] = r2.Point{X: t[0], Y: t[1]}
		}
		return dispatch(m, st.Type, core.TouchEvent{Touches: touches, Time: c.now})
	case StepWheel:
		return dispatch(m, st.Type, core.WheelEvent{Position: pos, DeltaY: st.DeltaY, ShiftKey: st.Shift})
	case StepDeviceOrientation:
		e := core.OrientationEvent{Alpha: st.Alpha, Absolute: st.Absolute, Time: c.now}
		if st.Heading != nil {
			e.CompassHeading, e.HasCompassHeading = *st.Heading, true
		}
		return dispatch(m, st.Type, e)
	case StepClickControl:
		if m.Control() == nil {
			return ErrNoControl
		}
		m.Control().Click()
	case StepFrame:
		m.FlushFrames()
	case StepPan:
		m.PanBy(pos)
	case StepZoom:
		m.SetView(m.Center(), st.Zoom)
	case StepResize:
		m.SetSize(pos)
	case StepAdvance:
		c.now = c.now.Add(time.Duration(st.Millis) * time.Millisecond)
	case StepBearing:
		m.SetBearing(st.Bearing)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStep, st.Type)
	}
	return nil
}

// dispatch delivers an input event; an event nobody listens to is skipped.
func dispatch(m *mapview.Map, event string, payload any) error {
	if !m.Handles(event) {
		return nil
	}
	return m.Dispatch(event, payload)
}
