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
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/spf13/cobra"

	"github.com/visitgrid/visitgrid/config"
	"github.com/visitgrid/visitgrid/internal/errkind"
	"github.com/visitgrid/visitgrid/internal/utmproj"
)

func init() {
	cmd := &cobra.Command{
		Use:   "grid-csv",
		Short: "Export grid cell centroids and metadata to CSV",
		RunE: func(c *cobra.Command, _ []string) error {
			gridPath, _ := c.Flags().GetString("grid")
			outPath, _ := c.Flags().GetString("out")
			idField, _ := c.Flags().GetString("grid-id-field")
			return runGridCSV(gridPath, outPath, idField)
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("grid", "", "Grid GeoJSON file (metric with utm_crs, or WGS84)")
	cmd.Flags().String("out", "", "Output CSV path")
	cmd.Flags().String("grid-id-field", config.Default().Fields.GridID, "Grid cell id property name")
	for _, name := range []string{"grid", "out"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Errorf("failed to mark %s flag as required: %w", name, err))
		}
	}
}

func runGridCSV(gridPath, outPath, idField string) error {
	data, err := os.ReadFile(gridPath)
	if err != nil {
		return fmt.Errorf("%w: grid %s: %w", errkind.ErrInputNotFound, gridPath, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("%w: grid %s: %w", errkind.ErrSchema, gridPath, err)
	}
	if len(fc.Features) == 0 {
		return fmt.Errorf("%w: grid %s has no features", errkind.ErrSchema, gridPath)
	}

	// All features share one CRS, so the first parseable utm_crs wins.
	// Without one the centroids are already lon/lat and the lon/lat
	// columns repeat them.
	var toWGS utmproj.Transform
	for _, f := range fc.Features {
		if crs, ok := f.Properties["utm_crs"].(string); ok {
			if code, ok := utmproj.ParseEPSG(crs); ok {
				toWGS, err = utmproj.ToWGS84(code)
				if err != nil {
					return fmt.Errorf("%w: grid %s: %w", errkind.ErrSchema, gridPath, err)
				}
				break
			}
		}
	}
	if toWGS == nil {
		slog.Warn("no utm_crs property found, treating grid as WGS84")
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, outPath, err)
	}
	w := csv.NewWriter(out)
	if err := w.Write([]string{"cell_id", "row", "col", "area_m2", "centroid_x_m", "centroid_y_m", "lon", "lat"}); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, outPath, err)
	}

	for i, f := range fc.Features {
		centroid, computedArea := planar.CentroidArea(f.Geometry)

		// A geographic grid has no metric area to fall back to; the
		// computed value would be square degrees, so the column stays
		// empty when the property is absent.
		areaStr := ""
		if area, ok := propNumber(f.Properties, "area_m2"); ok {
			areaStr = strconv.FormatFloat(area, 'g', -1, 64)
		} else if toWGS != nil {
			areaStr = strconv.FormatFloat(computedArea, 'g', -1, 64)
		}

		lon, lat := centroid.X(), centroid.Y()
		if toWGS != nil {
			lon, lat = toWGS(centroid.X(), centroid.Y())
		}

		rec := []string{
			propLabel(f.Properties, idField, i),
			propIntLabel(f.Properties, "row"),
			propIntLabel(f.Properties, "col"),
			areaStr,
			strconv.FormatFloat(centroid.X(), 'g', -1, 64),
			strconv.FormatFloat(centroid.Y(), 'g', -1, 64),
			strconv.FormatFloat(lon, 'g', -1, 64),
			strconv.FormatFloat(lat, 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			_ = out.Close()
			return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, outPath, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, outPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, outPath, err)
	}

	slog.Info("grid CSV written", slog.String("file", outPath), slog.Int("rows", len(fc.Features)))
	return nil
}

func propNumber(props geojson.Properties, key string) (float64, bool) {
	switch v := props[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// propLabel formats the id property, falling back to the feature index.
func propLabel(props geojson.Properties, key string, index int) string {
	if v, ok := propNumber(props, key); ok {
		return strconv.FormatInt(int64(v), 10)
	}
	if s, ok := props[key].(string); ok {
		return s
	}
	return strconv.Itoa(index)
}

// propIntLabel formats an optional integer property, empty when absent.
func propIntLabel(props geojson.Properties, key string) string {
	if v, ok := propNumber(props, key); ok {
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}
