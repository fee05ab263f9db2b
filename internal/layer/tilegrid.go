package layer

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/OCAP2/maprotate/internal/geo"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
	"github.com/golang/groupcache/lru"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/maprotate/internal/layer"

// DefaultKeepBuffer is how many tiles that left the view are kept around.
const DefaultKeepBuffer = 64

// TileView is the unrotated view state a tile grid reads.
type TileView interface {
	Size() r2.Point
	Zoom() float64
	PixelOrigin() r2.Point
	Project(ll core.LatLng, zoom float64) r2.Point
	Unproject(p r2.Point, zoom float64) core.LatLng
}

// TileGridOptions configures a TileGrid.
type TileGridOptions struct {
	MinZoom    float64
	MaxZoom    float64
	KeepBuffer int
}

// Placement is a tile and its top left corner in rotated pane layer space.
type Placement struct {
	Tile     maptile.Tile
	Position r2.Point
}

// TileGrid works out which tiles cover the rotated view and where they go.
// Tiles leaving the view stay retained until the keep buffer pushes them out.
type TileGrid struct {
	subscriptions
	proj   Projector
	view   TileView
	opts   TileGridOptions
	logger *slog.Logger

	tileZoom maptile.Zoom
	visible  map[maptile.Tile]Placement
	retained *lru.Cache
	quiet    bool

	evictions metric.Int64Counter
}

// NewTileGrid creates a tile grid with no tiles.
func NewTileGrid(opts TileGridOptions, logger *slog.Logger) *TileGrid {
	if opts.KeepBuffer <= 0 {
		opts.KeepBuffer = DefaultKeepBuffer
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = 18
	}
	if logger == nil {
		logger = slog.Default()
	}
	g := &TileGrid{
		opts:     opts,
		logger:   logger,
		visible:  make(map[maptile.Tile]Placement),
		retained: lru.New(opts.KeepBuffer),
	}
	g.retained.OnEvicted = func(key lru.Key, _ interface{}) {
		if g.quiet {
			return
		}
		t := key.(maptile.Tile)
		g.logger.Debug("tile evicted", "x", t.X, "y", t.Y, "z", t.Z)
		if g.evictions != nil {
			g.evictions.Add(context.Background(), 1)
		}
	}

	var err error
	g.evictions, err = otel.Meter(instrumentationName).Int64Counter(
		"layer.tiles.evicted",
		metric.WithDescription("Tiles dropped from the keep buffer"),
	)
	if err != nil {
		logger.Warn("failed to create tile eviction counter", "error", err)
	}
	return g
}

// AddTo attaches the grid to a map.
func (g *TileGrid) AddTo(proj Projector, view TileView, bus Bus) {
	g.Remove()
	g.proj = proj
	g.view = view
	g.on(bus, func() {
		if g.proj != nil {
			g.Update()
		}
	}, core.EventRotate, core.EventMoveEnd, core.EventZoomEnd, core.EventViewReset)
	g.Update()
}

// Remove detaches the grid. Visible and retained tiles are dropped.
func (g *TileGrid) Remove() {
	if g.proj == nil {
		return
	}
	g.off()
	g.proj = nil
	g.view = nil
	clear(g.visible)
	g.quiet = true
	g.retained.Clear()
	g.quiet = false
}

// TileZoom returns the zoom level tiles are taken from.
func (g *TileGrid) TileZoom() maptile.Zoom { return g.tileZoom }

// Retained returns how many off-view tiles are kept.
func (g *TileGrid) Retained() int { return g.retained.Len() }

// IsRetained reports whether an off-view tile is still kept. The lookup
// counts as a use of the tile.
func (g *TileGrid) IsRetained(t maptile.Tile) bool {
	_, ok := g.retained.Get(t)
	return ok
}

// Visible returns the placements of all visible tiles, row by row.
func (g *TileGrid) Visible() []Placement {
	out := make([]Placement, 0, len(g.visible))
	for _, p := range g.visible {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Placement) int {
		if a.Tile.Y != b.Tile.Y {
			return int(a.Tile.Y) - int(b.Tile.Y)
		}
		return int(a.Tile.X) - int(b.Tile.X)
	})
	return out
}

// Set returns the visible tiles.
func (g *TileGrid) Set() maptile.Set {
	set := make(maptile.Set, len(g.visible))
	for t := range g.visible {
		set[t] = true
	}
	return set
}

// Bounds returns the geographic area the visible tiles cover.
func (g *TileGrid) Bounds() orb.Bound {
	var (
		b     orb.Bound
		first = true
	)
	for t := range g.visible {
		if first {
			b, first = t.Bound(), false
			continue
		}
		b = b.Union(t.Bound())
	}
	return b
}

// PixelBounds returns the tile zoom pixel rectangle that must be covered.
// Its size is that of the rotated container's bounding box in layer space,
// centered on the projected map center.
func (g *TileGrid) PixelBounds() r2.Rect {
	zoom := g.view.Zoom()
	scale := geo.ZoomScale(zoom, float64(g.tileZoom))
	center := geo.Floor(g.view.Project(g.proj.Center(), float64(g.tileZoom)))

	corners := g.proj.Corners(0)
	for i := range corners {
		corners[i] = geo.Floor(corners[i])
	}
	half := r2.RectFromPoints(corners[:]...).Size().Mul(1 / (scale * 2))
	return r2.RectFromPoints(center.Sub(half), center.Add(half))
}

// Update recomputes the covering tiles and their placements.
func (g *TileGrid) Update() {
	g.tileZoom = g.clampZoom(g.view.Zoom())
	bounds := g.PixelBounds()

	lo := geo.Floor(bounds.Lo().Mul(1.0 / geo.TileSize))
	hi := r2.Point{
		X: math.Ceil(bounds.X.Hi/geo.TileSize) - 1,
		Y: math.Ceil(bounds.Y.Hi/geo.TileSize) - 1,
	}
	limit := math.Exp2(float64(g.tileZoom)) - 1
	origin := g.levelOrigin()

	next := make(map[maptile.Tile]Placement)
	for y := math.Max(lo.Y, 0); y <= math.Min(hi.Y, limit); y++ {
		for x := math.Max(lo.X, 0); x <= math.Min(hi.X, limit); x++ {
			t := maptile.New(uint32(x), uint32(y), g.tileZoom)
			next[t] = Placement{
				Tile:     t,
				Position: r2.Point{X: x * geo.TileSize, Y: y * geo.TileSize}.Sub(origin),
			}
			g.revive(t)
		}
	}

	for t := range g.visible {
		if _, ok := next[t]; !ok {
			g.retained.Add(t, g.visible[t])
		}
	}
	g.visible = next
}

// revive takes a tile back out of the keep buffer without counting an eviction.
func (g *TileGrid) revive(t maptile.Tile) {
	g.quiet = true
	g.retained.Remove(t)
	g.quiet = false
}

// levelOrigin is the pixel origin carried over to the tile zoom.
func (g *TileGrid) levelOrigin() r2.Point {
	zoom := g.view.Zoom()
	origin := g.view.Unproject(g.view.PixelOrigin(), zoom)
	return geo.Round(g.view.Project(origin, float64(g.tileZoom)))
}

func (g *TileGrid) clampZoom(zoom float64) maptile.Zoom {
	z := math.Round(zoom)
	z = math.Max(g.opts.MinZoom, math.Min(g.opts.MaxZoom, z))
	return maptile.Zoom(math.Max(z, 0))
}
