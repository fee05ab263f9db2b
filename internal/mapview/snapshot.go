package mapview

import (
	"gonum.org/v1/gonum/floats/scalar"
)

// MarkerSnapshot is the placement of one marker.
type MarkerSnapshot struct {
	ID    string  `json:"id"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

// Snapshot is the observable state of a map after an input step.
type Snapshot struct {
	Step           string           `json:"step,omitempty"`
	Bearing        float64          `json:"bearing"`
	Zoom           float64          `json:"zoom"`
	Center         [2]float64       `json:"center"`
	Bounds         [4]float64       `json:"bounds"`
	Control        string           `json:"control,omitempty"`
	ControlVisible bool             `json:"controlVisible"`
	Gesture        string           `json:"gesture,omitempty"`
	Markers        []MarkerSnapshot `json:"markers,omitempty"`
	TileZoom       uint32           `json:"tileZoom"`
	Tiles          int              `json:"tiles"`
	Paths          []string         `json:"paths,omitempty"`
}

// Snapshot captures the current state. Center is [lat, lng]; bounds are
// [minLng, minLat, maxLng, maxLat].
func (m *Map) Snapshot() Snapshot {
	center := m.Center()
	b := m.Bounds()
	s := Snapshot{
		Bearing:  m.Bearing(),
		Zoom:     m.Zoom(),
		Center:   [2]float64{center.Lat, center.Lng},
		Bounds:   [4]float64{b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()},
		Gesture:  string(m.guard.Active()),
		TileZoom: uint32(m.tiles.TileZoom()),
		Tiles:    len(m.tiles.Visible()),
		Paths:    m.renderer.VisiblePaths(),
	}
	if m.control != nil {
		s.Control = m.control.State().String()
		s.ControlVisible = m.control.Visible()
	}
	for _, mk := range m.Markers() {
		ll, pos := mk.LatLng(), mk.Position()
		s.Markers = append(s.Markers, MarkerSnapshot{
			ID:    mk.ID(),
			Lat:   ll.Lat,
			Lng:   ll.Lng,
			X:     pos.X,
			Y:     pos.Y,
			Angle: mk.Angle(),
		})
	}
	return s
}

// Rounded returns a copy with every coordinate rounded to places decimals.
func (s Snapshot) Rounded(places int) Snapshot {
	r := func(v float64) float64 { return scalar.Round(v, places) }

	s.Bearing = r(s.Bearing)
	s.Zoom = r(s.Zoom)
	for i := range s.Center {
		s.Center[i] = r(s.Center[i])
	}
	for i := range s.Bounds {
		s.Bounds[i] = r(s.Bounds[i])
	}
	markers := make([]MarkerSnapshot, len(s.Markers))
	for i, mk := range s.Markers {
		mk.Lat, mk.Lng = r(mk.Lat), r(mk.Lng)
		mk.X, mk.Y = r(mk.X), r(mk.Y)
		mk.Angle = r(mk.Angle)
		markers[i] = mk
	}
	if s.Markers != nil {
		s.Markers = markers
	}
	return s
}
