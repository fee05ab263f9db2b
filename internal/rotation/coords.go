package rotation

import (
	"github.com/OCAP2/maprotate/internal/geo"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
)

// ContainerPointToLayerPoint converts container pixels into the unrotated
// layer space.
func (c *Controller) ContainerPointToLayerPoint(p r2.Point) r2.Point {
	if !c.enabled {
		return c.host.ContainerPointToLayerPoint(p)
	}
	r := c.state.RotatePanePos
	return geo.RotateFrom(p.Sub(c.host.MapPanePos()), -c.state.Bearing, r).Sub(r)
}

// LayerPointToContainerPoint is the inverse of ContainerPointToLayerPoint.
func (c *Controller) LayerPointToContainerPoint(p r2.Point) r2.Point {
	if !c.enabled {
		return c.host.LayerPointToContainerPoint(p)
	}
	r := c.state.RotatePanePos
	return geo.RotateFrom(p.Add(r), c.state.Bearing, r).Add(c.host.MapPanePos())
}

// RotatedPointToMapPanePoint converts a point in rotate pane space into map
// pane space.
func (c *Controller) RotatedPointToMapPanePoint(p r2.Point) r2.Point {
	return geo.Rotate(p, c.state.Bearing).Add(c.state.RotatePanePos)
}

// MapPanePointToRotatedPoint is the inverse of RotatedPointToMapPanePoint.
func (c *Controller) MapPanePointToRotatedPoint(p r2.Point) r2.Point {
	return geo.Rotate(p.Sub(c.state.RotatePanePos), -c.state.Bearing)
}

// LatLngToLayerPoint converts a position into unrotated layer space.
func (c *Controller) LatLngToLayerPoint(ll core.LatLng) r2.Point {
	return c.host.LatLngToLayerPoint(ll)
}

// LayerPointToLatLng converts a layer point into a position.
func (c *Controller) LayerPointToLatLng(p r2.Point) core.LatLng {
	return c.host.LayerPointToLatLng(p)
}

// ContainerPointToLatLng converts container pixels into a position.
func (c *Controller) ContainerPointToLatLng(p r2.Point) core.LatLng {
	return c.host.LayerPointToLatLng(c.ContainerPointToLayerPoint(p))
}

// LatLngToContainerPoint converts a position into container pixels.
func (c *Controller) LatLngToContainerPoint(ll core.LatLng) r2.Point {
	return c.LayerPointToContainerPoint(c.host.LatLngToLayerPoint(ll))
}

// Center returns the position under the container center.
func (c *Controller) Center() core.LatLng {
	return c.ContainerPointToLatLng(c.host.Size().Mul(0.5))
}

// Corners returns the four container corners in layer space, clockwise from
// the top left, after growing the container by pad times its size on each side.
func (c *Controller) Corners(pad float64) [4]r2.Point {
	size := c.host.Size()
	lo := size.Mul(-pad)
	hi := size.Mul(1 + pad)
	return [4]r2.Point{
		c.ContainerPointToLayerPoint(lo),
		c.ContainerPointToLayerPoint(r2.Point{X: hi.X, Y: lo.Y}),
		c.ContainerPointToLayerPoint(hi),
		c.ContainerPointToLayerPoint(r2.Point{X: lo.X, Y: hi.Y}),
	}
}

// Bounds returns the smallest geographic box containing the whole visible
// container. Under rotation this is larger than the box spanned by two
// opposite corners.
func (c *Controller) Bounds() orb.Bound {
	corners := c.Corners(0)
	lls := make([]core.LatLng, 0, len(corners))
	for _, p := range corners {
		lls = append(lls, c.host.LayerPointToLatLng(p))
	}
	return core.BoundsOf(lls...)
}

// LayerBounds returns the layer space rectangle covering the padded container.
func (c *Controller) LayerBounds(pad float64) r2.Rect {
	corners := c.Corners(pad)
	return r2.RectFromPoints(corners[:]...)
}

// PixelOrigin computes the pixel origin that puts center at the container
// center under the current bearing. It replaces the host's computation.
func (c *Controller) PixelOrigin(center core.LatLng, zoom float64) r2.Point {
	half := c.host.Size().Mul(0.5)
	projected := c.host.Project(center, zoom)
	if !c.enabled {
		return geo.Round(projected.Sub(half).Add(c.host.MapPanePos()))
	}
	b := c.state.Bearing
	p := geo.Rotate(projected, b).Sub(half).Add(c.host.MapPanePos()).Add(c.state.RotatePanePos)
	return geo.Round(geo.Rotate(p, -b))
}
