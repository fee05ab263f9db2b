package geo

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
)

// Rotate turns p about the origin by theta. Screen space has y pointing
// down, so a positive theta rotates clockwise on screen.
func Rotate(p r2.Point, theta s1.Angle) r2.Point {
	if theta == 0 {
		return p
	}
	sin, cos := math.Sincos(theta.Radians())
	return r2.Point{
		X: p.X*cos - p.Y*sin,
		Y: p.Y*cos + p.X*sin,
	}
}

// RotateFrom turns p by theta about pivot.
func RotateFrom(p r2.Point, theta s1.Angle, pivot r2.Point) r2.Point {
	if theta == 0 {
		return p
	}
	return Rotate(p.Sub(pivot), theta).Add(pivot)
}

// Degrees converts a degree value into an angle.
func Degrees(deg float64) s1.Angle {
	return s1.Angle(deg) * s1.Degree
}

// bearingEpsilon absorbs the rounding of degree to radian conversion at
// whole turns.
const bearingEpsilon = 1e-12

// NormalizeBearing folds a into [0, 2π). A value landing on (or within
// rounding distance of) 2π after folding is stored as 0.
func NormalizeBearing(a s1.Angle) s1.Angle {
	r := math.Mod(a.Radians(), 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	if r < bearingEpsilon || 2*math.Pi-r < bearingEpsilon {
		return 0
	}
	return s1.Angle(r)
}

// Round rounds both coordinates to the nearest integer.
func Round(p r2.Point) r2.Point {
	return r2.Point{X: math.Round(p.X), Y: math.Round(p.Y)}
}

// Floor floors both coordinates.
func Floor(p r2.Point) r2.Point {
	return r2.Point{X: math.Floor(p.X), Y: math.Floor(p.Y)}
}
