// pkg/core/events.go
package core

import (
	"time"

	"github.com/golang/geo/r2"
)

// Map notifications fired on the map bus.
const (
	EventRotate     = "rotate"
	EventMove       = "move"
	EventMoveEnd    = "moveend"
	EventZoom       = "zoom"
	EventZoomEnd    = "zoomend"
	EventViewReset  = "viewreset"
	EventResize     = "resize"
	EventUpdate     = "update"
	EventMarkerMove = "markermove"
	EventMarkerDrag = "markerdrag"
)

// Input events routed from the platform to gesture handlers.
const (
	InputPointerDown       = "pointerdown"
	InputPointerMove       = "pointermove"
	InputPointerUp         = "pointerup"
	InputTouchStart        = "touchstart"
	InputTouchMove         = "touchmove"
	InputTouchEnd          = "touchend"
	InputWheel             = "wheel"
	InputDeviceOrientation = "deviceorientation"
)

// PointerEvent is a single pointer (mouse or pen) sample in container pixels.
// Target names the element that received the pointer-down, if any.
type PointerEvent struct {
	Position r2.Point
	Target   string
	Time     time.Time
}

// TouchEvent carries every active touch point in container pixels.
type TouchEvent struct {
	Touches []r2.Point
	Time    time.Time
}

// WheelEvent is a scroll wheel tick.
type WheelEvent struct {
	Position r2.Point
	DeltaY   float64
	ShiftKey bool
}

// OrientationEvent is a device orientation sample.
// CompassHeading is only meaningful when HasCompassHeading is set.
type OrientationEvent struct {
	Alpha             float64
	Absolute          bool
	CompassHeading    float64
	HasCompassHeading bool
	Time              time.Time
}

// RotateEvent is the payload of EventRotate.
type RotateEvent struct {
	OldBearing float64
	Bearing    float64
}

// ViewEvent is the payload of move, zoom and viewreset notifications.
type ViewEvent struct {
	Center LatLng
	Zoom   float64
}

// ResizeEvent is the payload of EventResize.
type ResizeEvent struct {
	OldSize r2.Point
	NewSize r2.Point
}

// MarkerEvent is the payload of EventMarkerMove and EventMarkerDrag.
type MarkerEvent struct {
	ID        string
	LatLng    LatLng
	OldLatLng LatLng
}
