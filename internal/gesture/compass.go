package gesture

import (
	"context"
	"time"

	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/pkg/core"
	"go.opentelemetry.io/otel/metric"
)

// PlatformSource reports the current environment capabilities.
type PlatformSource interface {
	Platform() core.Platform
}

// CompassBearing follows the device heading. Samples arriving less than the
// throttle interval after the last accepted one are dropped.
type CompassBearing struct {
	handler
	deps      Dependencies
	platform  PlatformSource
	throttle  time.Duration
	supported bool

	last     time.Time
	accepted bool

	dropped metric.Int64Counter
}

// NewCompassBearing creates a disabled compass follower. Without device
// orientation support it stays disabled for good.
func NewCompassBearing(deps Dependencies, platform PlatformSource, throttle time.Duration) *CompassBearing {
	c := &CompassBearing{
		deps:      deps.withDefaults(),
		platform:  platform,
		throttle:  throttle,
		supported: platform.Platform().DeviceOrientation,
	}
	c.bus = deps.Bus
	c.listen(core.InputDeviceOrientation, c.onOrientation)

	var err error
	c.dropped, err = meter().Int64Counter(
		"gesture.compass.dropped",
		metric.WithDescription("Orientation samples dropped by the throttle"),
	)
	if err != nil {
		c.deps.Logger.Warn("failed to create compass counter", "error", err)
	}
	if !c.supported {
		c.deps.Logger.Debug("device orientation unavailable, compass disabled")
	}
	return c
}

// Supported reports whether the platform delivers orientation events.
func (c *CompassBearing) Supported() bool {
	return c.supported
}

// Enable starts following the compass if the platform supports it.
func (c *CompassBearing) Enable() {
	if !c.supported {
		return
	}
	c.accepted = false
	c.handler.Enable()
}

// Heading returns the bearing an orientation sample asks for, in degrees.
// A compass heading of exactly 0 is treated as missing and alpha is used.
func Heading(ev core.OrientationEvent, screenOrientation float64) float64 {
	angle := ev.Alpha
	if ev.HasCompassHeading && ev.CompassHeading != 0 {
		angle = ev.CompassHeading
		if !ev.Absolute {
			angle = 360 - angle
		}
	}
	return angle - screenOrientation
}

func (c *CompassBearing) onOrientation(e dispatcher.Event) {
	ev, ok := e.Payload.(core.OrientationEvent)
	if !ok || !c.enabled {
		return
	}

	now := c.deps.Now()
	if c.accepted && now.Sub(c.last) < c.throttle {
		if c.dropped != nil {
			c.dropped.Add(context.Background(), 1)
		}
		return
	}

	// a sample the guard turns away does not start a new interval
	if !c.deps.Guard.Acquire(SourceCompass) {
		return
	}
	defer c.deps.Guard.Release(SourceCompass)
	c.last = now
	c.accepted = true
	c.deps.Rotator.SetBearing(Heading(ev, c.platform.Platform().ScreenOrientation))
}
