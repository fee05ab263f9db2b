package layer

import (
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
)

// Marker is an icon in the upright marker pane. Its position follows the
// rotated map; its icon angle is its own rotation, plus the bearing when it
// rotates with the view.
type Marker struct {
	anchor
	id    string
	opts  core.MarkerOptions
	angle float64
}

// NewMarker creates a marker that is not on any map yet.
func NewMarker(id string, ll core.LatLng, opts core.MarkerOptions) *Marker {
	m := &Marker{id: id, opts: opts}
	m.latlng = ll
	return m
}

func (m *Marker) ID() string { return m.id }

func (m *Marker) Options() core.MarkerOptions { return m.opts }

func (m *Marker) LatLng() core.LatLng { return m.latlng }

// Position returns the icon position in map pane pixels.
func (m *Marker) Position() r2.Point { return m.pos }

// Angle returns the icon angle in degrees, clockwise.
func (m *Marker) Angle() float64 { return m.angle }

// OnMap reports whether the marker has been added to a map.
func (m *Marker) OnMap() bool { return m.proj != nil }

// AddTo places the marker on a map and keeps it in place on every rotate,
// zoom and view reset.
func (m *Marker) AddTo(proj Projector, bus Bus) {
	m.Remove()
	m.attach(proj, bus, m.Update)
}

// Remove takes the marker off its map.
func (m *Marker) Remove() {
	m.detach()
}

// SetLatLng moves the marker and fires EventMarkerMove.
func (m *Marker) SetLatLng(ll core.LatLng) {
	old := m.latlng
	m.latlng = ll
	if m.proj == nil {
		return
	}
	m.Update()
	m.bus.Fire(core.EventMarkerMove, core.MarkerEvent{ID: m.id, LatLng: ll, OldLatLng: old})
}

// SetRotation sets the icon's own rotation in degrees.
func (m *Marker) SetRotation(deg float64) {
	m.opts.Rotation = deg
	if m.proj != nil {
		m.Update()
	}
}

// SetRotateWithView makes the icon turn together with the map.
func (m *Marker) SetRotateWithView(on bool) {
	m.opts.RotateWithView = on
	if m.proj != nil {
		m.Update()
	}
}

// Update recomputes position and icon angle from the current view.
func (m *Marker) Update() {
	m.pos = m.panePoint()
	m.angle = m.opts.Rotation
	if m.opts.RotateWithView && m.proj.Enabled() {
		m.angle += m.proj.Bearing()
	}
}

// rotated reports whether the icon carries a rotation of its own.
func (m *Marker) rotated() bool {
	return m.opts.Rotation != 0 || m.opts.RotateWithView
}
