package rotation

import (
	"context"
	"log/slog"

	"github.com/OCAP2/maprotate/internal/basemap"
	"github.com/OCAP2/maprotate/internal/geo"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/maprotate/internal/rotation"

// Host is the map engine the controller rotates.
type Host interface {
	Size() r2.Point
	Zoom() float64
	MapPanePos() r2.Point
	Platform() core.Platform
	Project(ll core.LatLng, zoom float64) r2.Point
	Unproject(p r2.Point, zoom float64) core.LatLng
	LatLngToLayerPoint(ll core.LatLng) r2.Point
	LayerPointToLatLng(p r2.Point) core.LatLng
	ContainerPointToLayerPoint(p r2.Point) r2.Point
	LayerPointToContainerPoint(p r2.Point) r2.Point
	SetPaneTransform(name string, t core.PaneTransform)
}

// Notifier receives the rotate notification.
type Notifier interface {
	Fire(event string, payload any)
}

// State is the rotation state of one map. Bearing is always in [0, 2π).
type State struct {
	Bearing       s1.Angle
	Pivot         r2.Point
	RotatePanePos r2.Point
}

// Dependencies holds the collaborators of a Controller.
type Dependencies struct {
	Host     Host
	Notifier Notifier
	Logger   *slog.Logger
}

// Controller owns the bearing of one map and is its only writer.
type Controller struct {
	host    Host
	bus     Notifier
	logger  *slog.Logger
	enabled bool
	state   State
	changes metric.Int64Counter
}

// NewController creates a controller. When enabled is false every setter is
// a no-op and all conversions fall through to the host.
func NewController(deps Dependencies, enabled bool) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	changes, err := otel.Meter(instrumentationName).Int64Counter(
		"rotation.bearing.changes",
		metric.WithDescription("Total committed bearing changes"),
	)
	if err != nil {
		logger.Warn("failed to create bearing counter", "error", err)
	}

	c := &Controller{
		host:    deps.Host,
		bus:     deps.Notifier,
		logger:  logger,
		enabled: enabled,
		changes: changes,
	}
	if enabled && !deps.Host.Platform().Any3D {
		logger.Debug("rotation requested but 3D transforms are unavailable")
	}
	return c
}

// Enabled reports whether rotation is active for this map.
func (c *Controller) Enabled() bool {
	return c.enabled
}

// State returns a copy of the current rotation state.
func (c *Controller) State() State {
	return c.state
}

// Angle returns the current bearing.
func (c *Controller) Angle() s1.Angle {
	return c.state.Bearing
}

// Bearing returns the current bearing in degrees, in [0, 360).
func (c *Controller) Bearing() float64 {
	return c.state.Bearing.Degrees()
}

// SetBearing rotates the map to deg degrees about the container center,
// keeping the layer point under the center fixed.
func (c *Controller) SetBearing(deg float64) {
	if !c.enabled || !c.host.Platform().Any3D {
		return
	}

	old := c.state.Bearing
	pivot := c.pivot()

	// rebase the pane position to bearing zero, then turn it to the new bearing
	base := geo.RotateFrom(c.state.RotatePanePos, -old, pivot)
	bearing := geo.NormalizeBearing(geo.Degrees(deg))
	pos := geo.RotateFrom(base, bearing, pivot)

	c.state = State{Bearing: bearing, Pivot: pivot, RotatePanePos: pos}
	c.host.SetPaneTransform(basemap.RotatePane, core.PaneTransform{
		Position: pos,
		Angle:    bearing,
		Origin:   pos,
	})

	if c.changes != nil {
		c.changes.Add(context.Background(), 1)
	}
	c.bus.Fire(core.EventRotate, core.RotateEvent{OldBearing: old.Degrees(), Bearing: bearing.Degrees()})
}

// Refresh recomputes the pivot after a pan, zoom, reset or resize.
func (c *Controller) Refresh() {
	c.state.Pivot = c.pivot()
}

func (c *Controller) pivot() r2.Point {
	return c.host.Size().Mul(0.5).Sub(c.host.MapPanePos())
}
