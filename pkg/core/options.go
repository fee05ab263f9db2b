// pkg/core/options.go
package core

import (
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
)

// MapOptions configures a rotating map view.
type MapOptions struct {
	Rotate             bool    `json:"rotate" mapstructure:"rotate"`
	Bearing            float64 `json:"bearing" mapstructure:"bearing"`
	TouchRotate        *bool   `json:"touchRotate,omitempty" mapstructure:"touchRotate"`
	TouchZoom          bool    `json:"touchZoom" mapstructure:"touchZoom"`
	ShiftKeyRotate     bool    `json:"shiftKeyRotate" mapstructure:"shiftKeyRotate"`
	ScrollWheelZoom    bool    `json:"scrollWheelZoom" mapstructure:"scrollWheelZoom"`
	CompassBearing     bool    `json:"compassBearing" mapstructure:"compassBearing"`
	RotateControl      bool    `json:"rotateControl" mapstructure:"rotateControl"`
	CloseOnZeroBearing bool    `json:"closeOnZeroBearing" mapstructure:"closeOnZeroBearing"`

	ZoomSnap float64 `json:"zoomSnap" mapstructure:"zoomSnap"`
	MinZoom  float64 `json:"minZoom" mapstructure:"minZoom"`
	MaxZoom  float64 `json:"maxZoom" mapstructure:"maxZoom"`

	CompassThrottle     time.Duration `json:"compassThrottle" mapstructure:"compassThrottle"`
	StaleGestureTimeout time.Duration `json:"staleGestureTimeout" mapstructure:"staleGestureTimeout"`

	RendererPadding float64 `json:"rendererPadding" mapstructure:"rendererPadding"`
	KeepBuffer      int     `json:"keepBuffer" mapstructure:"keepBuffer"`
}

// DefaultMapOptions returns the options a map starts from before overrides.
func DefaultMapOptions() MapOptions {
	return MapOptions{
		TouchZoom:           true,
		ShiftKeyRotate:      true,
		ScrollWheelZoom:     true,
		RotateControl:       true,
		CloseOnZeroBearing:  true,
		ZoomSnap:            1,
		MinZoom:             0,
		MaxZoom:             18,
		CompassThrottle:     time.Second,
		StaleGestureTimeout: 5 * time.Second,
		RendererPadding:     0.1,
		KeepBuffer:          64,
	}
}

// MarkerOptions configures the icon orientation of a single marker.
// Rotation is in degrees, clockwise.
type MarkerOptions struct {
	Rotation       float64 `json:"rotation"`
	RotateWithView bool    `json:"rotateWithView"`
	Draggable      bool    `json:"draggable"`
}

// Platform describes what the host environment can do.
type Platform struct {
	Any3D             bool    `json:"any3d"`
	Touch             bool    `json:"touch"`
	DeviceOrientation bool    `json:"deviceOrientation"`
	ScreenOrientation float64 `json:"screenOrientation"`
}

// PaneTransform positions a pane and rotates it about Origin.
type PaneTransform struct {
	Position r2.Point
	Angle    s1.Angle
	Origin   r2.Point
}
