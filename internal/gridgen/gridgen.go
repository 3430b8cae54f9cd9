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

// Package gridgen builds a square metric grid over an area of
// interest. Cells are laid out in the UTM zone of the AOI centroid and
// edge cells are clipped to the AOI boundary so the grid covers it
// exactly. Both a metric and a WGS84 rendition of the grid are
// produced.
package gridgen

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"

	"github.com/visitgrid/visitgrid/internal/utmproj"
)

// Grid holds the two renditions of a generated grid. Feature
// properties follow the grid file contract: cell_id, row, col, area_m2
// on both, utm_crs on the metric one only.
type Grid struct {
	Metric *geojson.FeatureCollection
	WGS84  *geojson.FeatureCollection
	EPSG   int
	Cells  int
}

// Build lays a cellSize-meter grid over the AOI. The AOI geometry is
// expected in WGS84 lon/lat.
func Build(aoi orb.Geometry, cellSize float64) (*Grid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("cell size must be positive, got %v", cellSize)
	}

	centroid, _ := planar.CentroidArea(aoi)
	epsg := utmproj.BestZoneEPSG(centroid.Lon(), centroid.Lat())

	toUTM, err := utmproj.ToUTM(epsg)
	if err != nil {
		return nil, err
	}
	toWGS, err := utmproj.ToWGS84(epsg)
	if err != nil {
		return nil, err
	}

	aoiMetric := project.Geometry(orb.Clone(aoi), pointTransform(toUTM))
	bound := aoiMetric.Bound()

	startX := math.Floor(bound.Min.X()/cellSize) * cellSize
	startY := math.Floor(bound.Min.Y()/cellSize) * cellSize
	cols := int(math.Ceil((bound.Max.X() - startX) / cellSize))
	rows := int(math.Ceil((bound.Max.Y() - startY) / cellSize))
	slog.Info("laying grid over AOI",
		slog.Int("epsg", epsg), slog.Int("rows", rows), slog.Int("cols", cols))

	crs := fmt.Sprintf("EPSG:%d", epsg)
	g := &Grid{
		Metric: geojson.NewFeatureCollection(),
		WGS84:  geojson.NewFeatureCollection(),
		EPSG:   epsg,
	}

	cellID := 0
	for r := 0; r < rows; r++ {
		slog.Debug("grid row", slog.Int("row", r), slog.Int("rows", rows))
		y0 := startY + float64(r)*cellSize
		for c := 0; c < cols; c++ {
			x0 := startX + float64(c)*cellSize
			cellBound := orb.Bound{
				Min: orb.Point{x0, y0},
				Max: orb.Point{x0 + cellSize, y0 + cellSize},
			}

			inter := clip.Geometry(cellBound, orb.Clone(aoiMetric))
			if inter == nil {
				continue
			}
			area := planar.Area(inter)
			if area <= 0 {
				continue
			}

			mf := geojson.NewFeature(inter)
			mf.Properties = geojson.Properties{
				"cell_id": cellID,
				"row":     r,
				"col":     c,
				"utm_crs": crs,
				"area_m2": area,
			}
			g.Metric.Append(mf)

			wf := geojson.NewFeature(project.Geometry(orb.Clone(inter), pointTransform(toWGS)))
			wf.Properties = geojson.Properties{
				"cell_id": cellID,
				"row":     r,
				"col":     c,
				"area_m2": area,
			}
			g.WGS84.Append(wf)

			cellID++
		}
	}

	g.Cells = cellID
	return g, nil
}

func pointTransform(t utmproj.Transform) orb.Projection {
	return func(p orb.Point) orb.Point {
		x, y := t(p.X(), p.Y())
		return orb.Point{x, y}
	}
}
