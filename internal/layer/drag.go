package layer

import (
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
)

// MarkerDrag moves a marker with its dragged icon. The icon lives in an
// upright pane, so its raw position is carried back into the rotated pane
// before it is turned into a position.
type MarkerDrag struct {
	marker *Marker
	active bool
}

// NewMarkerDrag creates an idle drag handler for m.
func NewMarkerDrag(m *Marker) *MarkerDrag {
	return &MarkerDrag{marker: m}
}

// Active reports whether a drag is in progress.
func (d *MarkerDrag) Active() bool { return d.active }

// Start begins a drag. It fails when the marker is not draggable or not on a map.
func (d *MarkerDrag) Start() bool {
	if !d.marker.opts.Draggable || !d.marker.OnMap() {
		return false
	}
	d.active = true
	return true
}

// Drag moves the marker to the icon's map pane position.
func (d *MarkerDrag) Drag(panePos r2.Point) {
	m := d.marker
	if !d.active || !m.OnMap() {
		return
	}

	layerPoint := panePos
	if m.proj.Enabled() {
		layerPoint = m.proj.MapPanePointToRotatedPoint(panePos)
	}
	ll := m.proj.LayerPointToLatLng(layerPoint)
	old := m.latlng

	if m.rotated() {
		m.SetLatLng(ll)
	} else {
		// the icon is already where it was dropped; only the position changes
		m.latlng = ll
		m.pos = panePos
		m.bus.Fire(core.EventMarkerMove, core.MarkerEvent{ID: m.id, LatLng: ll, OldLatLng: old})
	}
	m.bus.Fire(core.EventMarkerDrag, core.MarkerEvent{ID: m.id, LatLng: ll, OldLatLng: old})
}

// End finishes the drag.
func (d *MarkerDrag) End() {
	d.active = false
}
