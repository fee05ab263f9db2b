package layer

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/OCAP2/maprotate/internal/geo"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/golang/geo/r2"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrUnknownPath is returned for a path id the renderer does not hold.
var ErrUnknownPath = errors.New("unknown path")

// DefaultPadding is how far the renderer draws beyond the container, as a
// fraction of its size on each side.
const DefaultPadding = 0.1

// Renderer tracks the vector paths of the overlay pane and the layer space
// rectangle that must be drawn. Under rotation the rectangle is the bounding
// box of all four padded container corners, not just two of them.
type Renderer struct {
	subscriptions
	proj    Projector
	logger  *slog.Logger
	padding float64

	bounds r2.Rect
	paths  map[string]geom.LineString
}

// NewRenderer creates a renderer. A negative padding selects DefaultPadding.
func NewRenderer(padding float64, logger *slog.Logger) *Renderer {
	if padding < 0 {
		padding = DefaultPadding
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		padding: padding,
		logger:  logger,
		bounds:  r2.EmptyRect(),
		paths:   make(map[string]geom.LineString),
	}
}

// AddTo attaches the renderer to a map.
func (r *Renderer) AddTo(proj Projector, bus Bus) {
	r.Remove()
	r.proj = proj
	r.on(bus, func() {
		if r.proj != nil {
			r.Update()
		}
	}, core.EventRotate, core.EventUpdate, core.EventMoveEnd, core.EventZoomEnd)
	r.Update()
}

// Remove detaches the renderer.
func (r *Renderer) Remove() {
	if r.proj == nil {
		return
	}
	r.off()
	r.proj = nil
}

// Padding returns the configured padding.
func (r *Renderer) Padding() float64 { return r.padding }

// Bounds returns the layer space rectangle to draw.
func (r *Renderer) Bounds() r2.Rect { return r.bounds }

// Update recomputes the drawing rectangle from the current view.
func (r *Renderer) Update() {
	corners := r.proj.Corners(r.padding)
	for i := range corners {
		corners[i] = geo.Floor(corners[i])
	}
	r.bounds = r2.RectFromPoints(corners[:]...)
	r.logger.Debug("renderer bounds updated",
		"minX", r.bounds.X.Lo, "minY", r.bounds.Y.Lo,
		"maxX", r.bounds.X.Hi, "maxY", r.bounds.Y.Hi)
}

// AddPath registers a geographic path, x holding longitude.
func (r *Renderer) AddPath(id string, ls geom.LineString) error {
	if ls.IsEmpty() {
		return fmt.Errorf("path %q: %w", id, geo.ErrInvalidCoordinates)
	}
	r.paths[id] = ls
	return nil
}

// RemovePath drops a path.
func (r *Renderer) RemovePath(id string) {
	delete(r.paths, id)
}

// LayerPath returns a path projected into layer space. It fails with
// ErrUnknownPath when id is not drawn by a renderer on a map, and when the
// path collapses to a single layer point.
func (r *Renderer) LayerPath(id string) (geom.LineString, error) {
	ls, ok := r.paths[id]
	if !ok || r.proj == nil {
		return geom.LineString{}, fmt.Errorf("%w: %q", ErrUnknownPath, id)
	}
	lls := geo.PathLatLngs(ls)
	flat := make([]float64, 0, len(lls)*2)
	for _, ll := range lls {
		p := r.proj.LatLngToLayerPoint(ll)
		flat = append(flat, p.X, p.Y)
	}
	projected, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("path %q in layer space: %w", id, err)
	}
	return projected, nil
}

// VisiblePaths returns the ids of paths crossing the drawing rectangle, sorted.
func (r *Renderer) VisiblePaths() []string {
	if r.proj == nil || r.bounds.IsEmpty() {
		return nil
	}
	env, err := geom.NewEnvelope([]geom.XY{
		{X: r.bounds.X.Lo, Y: r.bounds.Y.Lo},
		{X: r.bounds.X.Hi, Y: r.bounds.Y.Hi},
	})
	if err != nil {
		r.logger.Debug("invalid drawing rectangle", "bounds", r.bounds, "error", err)
		return nil
	}
	clip := env.AsGeometry()

	var ids []string
	for id, ls := range r.paths {
		projected, err := r.LayerPath(id)
		if err != nil {
			// collapsed to one layer point: test that point
			p := r.proj.LatLngToLayerPoint(geo.PathLatLngs(ls)[0])
			if r.bounds.ContainsPoint(p) {
				ids = append(ids, id)
			}
			continue
		}
		if geom.Intersects(projected.AsGeometry(), clip) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}
