package layer

import (
	"testing"

	"github.com/OCAP2/maprotate/internal/basemap"
	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/internal/rotation"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var london = core.LatLng{Lat: 51.5074, Lng: -0.1278}

type fixture struct {
	bus  *dispatcher.Dispatcher
	host *basemap.Map
	ctrl *rotation.Controller
}

func newFixture(t *testing.T, rotate bool) *fixture {
	t.Helper()
	bus, err := dispatcher.New(nil)
	require.NoError(t, err)

	host := basemap.New(bus, nil, basemap.Options{
		Size:     r2.Point{X: 800, Y: 600},
		MaxZoom:  18,
		ZoomSnap: 1,
		Platform: core.Platform{Any3D: true},
	})
	ctrl := rotation.NewController(rotation.Dependencies{Host: host, Notifier: bus}, rotate)
	host.SetPixelOriginFunc(ctrl.PixelOrigin)
	host.SetView(london, 10)
	return &fixture{bus: bus, host: host, ctrl: ctrl}
}

// at returns the position under a layer point.
func (f *fixture) at(p r2.Point) core.LatLng {
	return f.ctrl.LayerPointToLatLng(p)
}

func (f *fixture) record(event string) *[]core.MarkerEvent {
	var got []core.MarkerEvent
	f.bus.On(event, func(e dispatcher.Event) {
		got = append(got, e.Payload.(core.MarkerEvent))
	})
	return &got
}

func assertNear(t *testing.T, want, got r2.Point, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x")
	assert.InDelta(t, want.Y, got.Y, delta, "y")
}
