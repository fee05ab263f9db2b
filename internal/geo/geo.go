package geo

import (
	"errors"
	"math"

	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
	"github.com/wroge/wgs84"
)

// Pixel space follows the spherical web mercator tile scheme: the whole world
// is TileSize pixels wide at zoom 0 and doubles with every zoom level.
// Projection itself goes through EPSG:3857.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

const (
	// TileSize is the edge length of a tile in pixels.
	TileSize = 256

	// MaxLatitude is the latitude limit of the mercator projection.
	MaxLatitude = 85.0511287798

	earthRadius = 6378137.0
)

var (
	epsg         = wgs84.EPSG()
	toMercator   = epsg.Transform(4326, 3857)
	fromMercator = epsg.Transform(3857, 4326)
)

// Scale returns the world size in pixels at the given zoom.
func Scale(zoom float64) float64 {
	return TileSize * math.Exp2(zoom)
}

// ZoomForScale is the inverse of Scale.
func ZoomForScale(scale float64) float64 {
	return math.Log2(scale / TileSize)
}

// ZoomScale returns the scale factor between two zoom levels.
func ZoomScale(toZoom, fromZoom float64) float64 {
	return Scale(toZoom) / Scale(fromZoom)
}

// Project converts a geographic position into absolute pixel coordinates at zoom.
func Project(ll core.LatLng, zoom float64) r2.Point {
	lat := math.Max(math.Min(ll.Lat, MaxLatitude), -MaxLatitude)
	x, y, _ := toMercator(ll.Lng, lat, 0)

	scale := Scale(zoom)
	circumference := 2 * math.Pi * earthRadius
	return r2.Point{
		X: scale * (0.5 + x/circumference),
		Y: scale * (0.5 - y/circumference),
	}
}

// Unproject converts absolute pixel coordinates at zoom back into a position.
func Unproject(p r2.Point, zoom float64) core.LatLng {
	scale := Scale(zoom)
	circumference := 2 * math.Pi * earthRadius
	x := (p.X/scale - 0.5) * circumference
	y := (0.5 - p.Y/scale) * circumference

	lng, lat, _ := fromMercator(x, y, 0)
	return core.LatLng{Lat: lat, Lng: lng}
}
