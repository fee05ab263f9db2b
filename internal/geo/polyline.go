package geo

import (
	"fmt"

	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/bytedance/sonic"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ParsePolyline parses a JSON array of [lng,lat] pairs into a geom.LineString.
// Input format: "[[lng1,lat1],[lng2,lat2],...]"
func ParsePolyline(input string) (geom.LineString, error) {
	var coords [][]float64
	if err := sonic.UnmarshalString(input, &coords); err != nil {
		return geom.LineString{}, fmt.Errorf("failed to parse polyline JSON: %w", err)
	}

	if len(coords) < 2 {
		return geom.LineString{}, fmt.Errorf("polyline must have at least 2 points, got %d", len(coords))
	}

	flat := make([]float64, 0, len(coords)*2)
	for i, coord := range coords {
		if len(coord) < 2 {
			return geom.LineString{}, fmt.Errorf("coordinate %d: %w", i, ErrInvalidCoordinates)
		}
		flat = append(flat, coord[0], coord[1])
	}

	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("invalid polyline: %w", err)
	}
	return ls, nil
}

// NewPath builds a line string from positions, x holding longitude. No
// positions give the empty line string; otherwise at least two must differ.
func NewPath(lls []core.LatLng) (geom.LineString, error) {
	flat := make([]float64, 0, len(lls)*2)
	for _, ll := range lls {
		flat = append(flat, ll.Lng, ll.Lat)
	}
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("invalid path: %w", err)
	}
	return ls, nil
}

// PathLatLngs returns the vertices of a line string as positions.
func PathLatLngs(ls geom.LineString) []core.LatLng {
	seq := ls.Coordinates()
	out := make([]core.LatLng, seq.Length())
	for i := 0; i < seq.Length(); i++ {
		xy := seq.GetXY(i)
		out[i] = core.LatLng{Lat: xy.Y, Lng: xy.X}
	}
	return out
}
