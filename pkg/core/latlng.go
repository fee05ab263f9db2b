// pkg/core/latlng.go
package core

import (
	"math"

	"github.com/paulmach/orb"
)

// LatLng is a geographic position in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point returns the position as an orb point (lng, lat order).
func (ll LatLng) Point() orb.Point {
	return orb.Point{ll.Lng, ll.Lat}
}

// LatLngFromPoint converts an orb point back into a LatLng.
func LatLngFromPoint(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

// Equals reports whether both coordinates are within margin degrees of o.
func (ll LatLng) Equals(o LatLng, margin float64) bool {
	return math.Abs(ll.Lat-o.Lat) <= margin && math.Abs(ll.Lng-o.Lng) <= margin
}

// BoundsOf returns the smallest bound containing every given position.
// An empty input yields the zero bound.
func BoundsOf(lls ...LatLng) orb.Bound {
	if len(lls) == 0 {
		return orb.Bound{}
	}
	b := lls[0].Point().Bound()
	for _, ll := range lls[1:] {
		b = b.Extend(ll.Point())
	}
	return b
}
