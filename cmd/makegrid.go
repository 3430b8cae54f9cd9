// Copyright (C) 2025 VisitGrid Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/visitgrid/visitgrid/internal/errkind"
	"github.com/visitgrid/visitgrid/internal/gridgen"
)

func init() {
	cmd := &cobra.Command{
		Use:   "make-grid",
		Short: "Build a clipped square metric grid covering an area of interest",
		RunE: func(c *cobra.Command, _ []string) error {
			aoiPath, _ := c.Flags().GetString("aoi")
			outPrefix, _ := c.Flags().GetString("out-prefix")
			cellSize, _ := c.Flags().GetFloat64("cell-size")
			return runMakeGrid(aoiPath, outPrefix, cellSize)
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("aoi", "", "Area of interest GeoJSON (WGS84)")
	cmd.Flags().String("out-prefix", "", "Output path prefix; writes <prefix>_metric.geojson and <prefix>_wgs84.geojson")
	cmd.Flags().Float64("cell-size", 100, "Cell edge length in meters")
	for _, name := range []string{"aoi", "out-prefix"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Errorf("failed to mark %s flag as required: %w", name, err))
		}
	}
}

func runMakeGrid(aoiPath, outPrefix string, cellSize float64) error {
	slog.Info("loading AOI", slog.String("file", aoiPath))
	aoi, err := loadAOI(aoiPath)
	if err != nil {
		return err
	}

	grid, err := gridgen.Build(aoi, cellSize)
	if err != nil {
		return err
	}
	slog.Info("grid built", slog.Int("cells", grid.Cells), slog.Int("epsg", grid.EPSG))

	for suffix, fc := range map[string]*geojson.FeatureCollection{
		"_metric.geojson": grid.Metric,
		"_wgs84.geojson":  grid.WGS84,
	} {
		data, err := json.Marshal(fc)
		if err != nil {
			return err
		}
		path := outPrefix + suffix
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, path, err)
		}
		slog.Info("wrote grid file", slog.String("file", path))
	}
	return nil
}

// loadAOI accepts a FeatureCollection, a single Feature, or a bare
// geometry. Multiple features are combined; overlap between them is
// not dissolved.
func loadAOI(path string) (orb.Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: AOI %s: %w", errkind.ErrInputNotFound, path, err)
	}

	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		geoms := make([]orb.Geometry, 0, len(fc.Features))
		for _, f := range fc.Features {
			if f.Geometry != nil {
				geoms = append(geoms, f.Geometry)
			}
		}
		switch len(geoms) {
		case 0:
			return nil, fmt.Errorf("%w: AOI %s has no geometries", errkind.ErrSchema, path)
		case 1:
			return geoms[0], nil
		default:
			return orb.Collection(geoms), nil
		}
	}

	if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		return f.Geometry, nil
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("%w: AOI %s: %w", errkind.ErrSchema, path, err)
	}
	return g.Geometry(), nil
}
