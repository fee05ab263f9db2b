package main

import (
	"fmt"

	"github.com/OCAP2/maprotate/internal/config"
	"github.com/OCAP2/maprotate/internal/mapview"
	"github.com/OCAP2/maprotate/pkg/core"
	"github.com/bytedance/sonic"
	"github.com/golang/geo/r2"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats/scalar"
)

type boundsFlags struct {
	lat, lng      float64
	zoom, bearing float64
	width, height float64
}

// BoundsResult is the output of the bounds command. Bounds are
// [minLng, minLat, maxLng, maxLat].
type BoundsResult struct {
	Bearing float64    `json:"bearing"`
	Zoom    float64    `json:"zoom"`
	Center  [2]float64 `json:"center"`
	Bounds  [4]float64 `json:"bounds"`
}

func newBoundsCmd(flags *rootFlags) *cobra.Command {
	bf := &boundsFlags{}

	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "Print the geographic bounds of a rotated view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()

			res, err := computeBounds(bf, s)
			if err != nil {
				return err
			}
			data, err := sonic.Marshal(res)
			if err != nil {
				return fmt.Errorf("failed to encode bounds: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().Float64Var(&bf.lat, "lat", 0, "center latitude")
	cmd.Flags().Float64Var(&bf.lng, "lng", 0, "center longitude")
	cmd.Flags().Float64Var(&bf.zoom, "zoom", 0, "zoom level")
	cmd.Flags().Float64Var(&bf.bearing, "bearing", 0, "bearing in degrees")
	cmd.Flags().Float64Var(&bf.width, "width", 800, "viewport width in pixels")
	cmd.Flags().Float64Var(&bf.height, "height", 600, "viewport height in pixels")
	return cmd
}

func computeBounds(bf *boundsFlags, s *session) (BoundsResult, error) {
	opts := mapview.Options{
		MapOptions: config.GetMapOptions(),
		Size:       r2.Point{X: bf.width, Y: bf.height},
		Center:     core.LatLng{Lat: bf.lat, Lng: bf.lng},
		Zoom:       bf.zoom,
		Platform:   core.Platform{Any3D: true},
	}
	opts.Rotate = true
	opts.Bearing = bf.bearing

	m, err := mapview.New(opts, mapview.Dependencies{Logger: s.logger})
	if err != nil {
		return BoundsResult{}, fmt.Errorf("failed to create map: %w", err)
	}

	r := func(v float64) float64 { return scalar.Round(v, snapshotPlaces) }
	center, b := m.Center(), m.Bounds()
	return BoundsResult{
		Bearing: r(m.Bearing()),
		Zoom:    r(m.Zoom()),
		Center:  [2]float64{r(center.Lat), r(center.Lng)},
		Bounds:  [4]float64{r(b.Min.X()), r(b.Min.Y()), r(b.Max.X()), r(b.Max.Y())},
	}, nil
}
