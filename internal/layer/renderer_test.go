package layer

import (
	"errors"
	"testing"

	"github.com/OCAP2/maprotate/internal/geo"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_PaddedBounds(t *testing.T) {
	f := newFixture(t, true)
	r := NewRenderer(-1, nil)
	r.AddTo(f.ctrl, f.bus)

	assert.Equal(t, DefaultPadding, r.Padding())
	b := r.Bounds()
	assert.Equal(t, r2.Point{X: -80, Y: -60}, b.Lo())
	assert.Equal(t, r2.Point{X: 880, Y: 660}, b.Hi())
}

func TestRenderer_BoundsCoverRotatedContainer(t *testing.T) {
	f := newFixture(t, true)
	r := NewRenderer(0.1, nil)
	r.AddTo(f.ctrl, f.bus)

	f.ctrl.SetBearing(90)

	b := r.Bounds()
	assert.InDelta(t, 40, b.X.Lo, 1)
	assert.InDelta(t, 760, b.X.Hi, 1)
	assert.InDelta(t, -180, b.Y.Lo, 1)
	assert.InDelta(t, 780, b.Y.Hi, 1)

	f.ctrl.SetBearing(45)
	size := r.Bounds().Size()
	assert.Greater(t, size.X, 960.0, "diagonal view is wider than the padded container")
	assert.Greater(t, size.Y, 720.0)
}

func TestRenderer_UpdatesOnMoveEnd(t *testing.T) {
	f := newFixture(t, true)
	r := NewRenderer(0, nil)
	r.AddTo(f.ctrl, f.bus)

	f.host.PanBy(r2.Point{X: 100, Y: 0})

	assert.Equal(t, r2.Point{X: 100, Y: 0}, r.Bounds().Lo())
}

func TestRenderer_VisiblePaths(t *testing.T) {
	f := newFixture(t, true)
	r := NewRenderer(0.1, nil)
	r.AddTo(f.ctrl, f.bus)

	near := []core.LatLng{f.at(r2.Point{X: 350, Y: 300}), f.at(r2.Point{X: 450, Y: 300})}
	// below the padded container until the map is turned a quarter
	below := []core.LatLng{f.at(r2.Point{X: 390, Y: 720}), f.at(r2.Point{X: 410, Y: 720})}
	far := []core.LatLng{{Lat: 35.68, Lng: 139.69}, {Lat: 35.69, Lng: 139.70}}

	for id, lls := range map[string][]core.LatLng{"near": near, "below": below, "far": far} {
		ls, err := geo.NewPath(lls)
		require.NoError(t, err)
		require.NoError(t, r.AddPath(id, ls))
	}

	assert.Equal(t, []string{"near"}, r.VisiblePaths())

	f.ctrl.SetBearing(90)
	assert.Equal(t, []string{"below", "near"}, r.VisiblePaths())

	r.RemovePath("below")
	assert.Equal(t, []string{"near"}, r.VisiblePaths())
}

func TestRenderer_LayerPath(t *testing.T) {
	f := newFixture(t, true)
	r := NewRenderer(0, nil)
	r.AddTo(f.ctrl, f.bus)

	ls, err := geo.ParsePolyline(`[[-0.1278,51.5074],[-0.1,51.5]]`)
	require.NoError(t, err)
	require.NoError(t, r.AddPath("p", ls))

	got, err := r.LayerPath("p")
	require.NoError(t, err)
	first := got.Coordinates().GetXY(0)
	want := f.ctrl.LatLngToLayerPoint(london)
	assert.InDelta(t, want.X, first.X, 1e-9)
	assert.InDelta(t, want.Y, first.Y, 1e-9)

	_, err = r.LayerPath("missing")
	assert.ErrorIs(t, err, ErrUnknownPath)
}

func TestRenderer_LayerPathBeforeAdd(t *testing.T) {
	r := NewRenderer(0, nil)
	ls, err := geo.ParsePolyline(`[[0,0],[1,1]]`)
	require.NoError(t, err)
	require.NoError(t, r.AddPath("p", ls))

	_, err = r.LayerPath("p")
	assert.ErrorIs(t, err, ErrUnknownPath)
}

func TestRenderer_RejectsEmptyPath(t *testing.T) {
	r := NewRenderer(0, nil)
	empty, err := geo.NewPath(nil)
	require.NoError(t, err)
	err = r.AddPath("empty", empty)
	assert.True(t, errors.Is(err, geo.ErrInvalidCoordinates))
}

func TestRenderer_Remove(t *testing.T) {
	f := newFixture(t, true)
	r := NewRenderer(0, nil)
	r.AddTo(f.ctrl, f.bus)
	before := r.Bounds()

	r.Remove()
	f.ctrl.SetBearing(90)

	assert.Equal(t, before, r.Bounds())
	assert.Nil(t, r.VisiblePaths())
}
