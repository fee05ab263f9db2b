package layer

import (
	"github.com/OCAP2/maprotate/internal/basemap"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
)

// OverlayKind tells popups and tooltips apart.
type OverlayKind string

const (
	Popup   OverlayKind = "popup"
	Tooltip OverlayKind = "tooltip"
)

// Overlay is a popup or tooltip. It is anchored like a marker, shifted by a
// screen space offset, and its content never rotates.
type Overlay struct {
	anchor
	kind   OverlayKind
	offset r2.Point
}

// NewOverlay creates an overlay at ll. Call AddTo to place it on a map.
func NewOverlay(kind OverlayKind, ll core.LatLng, offset r2.Point) *Overlay {
	o := &Overlay{kind: kind, offset: offset}
	o.latlng = ll
	return o
}

// Kind returns whether this is a popup or a tooltip.
func (o *Overlay) Kind() OverlayKind { return o.kind }

// Pane returns the upright pane the overlay lives in.
func (o *Overlay) Pane() string {
	if o.kind == Tooltip {
		return basemap.TooltipPane
	}
	return basemap.PopupPane
}

// LatLng returns the geographic anchor.
func (o *Overlay) LatLng() core.LatLng { return o.latlng }

// Position returns the content position in map pane pixels.
func (o *Overlay) Position() r2.Point { return o.pos }

// Angle is always 0: overlay content stays upright.
func (o *Overlay) Angle() float64 { return 0 }

// AddTo places the overlay on a map and keeps it positioned as the view
// changes. Adding it again moves it to the new map.
func (o *Overlay) AddTo(proj Projector, bus Bus) {
	o.Remove()
	o.attach(proj, bus, o.Update)
}

// Remove takes the overlay off its map. It is a no-op when not on a map.
func (o *Overlay) Remove() {
	o.detach()
}

// SetLatLng moves the anchor, repositioning at once when on a map.
func (o *Overlay) SetLatLng(ll core.LatLng) {
	o.latlng = ll
	if o.proj != nil {
		o.Update()
	}
}

// Update recomputes the position from the current view.
func (o *Overlay) Update() {
	o.pos = o.panePoint().Add(o.offset)
}
