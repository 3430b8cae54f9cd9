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

// Package gridfile loads grid cell polygons from a GeoJSON feature
// collection. A grid is either geographic (WGS84) or metric; metric
// grids declare their UTM CRS in a per-feature "utm_crs" property such
// as "EPSG:32654".
package gridfile

import (
	"fmt"
	"os"

	"github.com/tidwall/geojson"
	"github.com/tidwall/gjson"

	"github.com/visitgrid/visitgrid/internal/errkind"
	"github.com/visitgrid/visitgrid/internal/utmproj"
)

// Cell is one grid feature. HasID is false when the id property was
// absent; strict callers reject that via Validate, lenient callers
// (folder initialization, CSV export) substitute the feature index.
type Cell struct {
	ID      int64
	HasID   bool
	Index   int
	Feature *geojson.Feature
}

// Grid is the loaded reference data for one run.
type Grid struct {
	Cells []Cell

	// EPSG is the coordinate reference system the cell geometries are
	// expressed in: utmproj.EPSGWGS84 unless a utm_crs property says
	// otherwise.
	EPSG int
}

// Load reads and parses the grid file. Features with a missing id
// property are kept with HasID=false; call Validate before joining.
func Load(path, idField string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: grid %s: %w", errkind.ErrInputNotFound, path, err)
	}

	obj, err := geojson.Parse(string(data), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: grid %s: %w", errkind.ErrSchema, path, err)
	}
	fc, ok := obj.(*geojson.FeatureCollection)
	if !ok {
		return nil, fmt.Errorf("%w: grid %s: expected a FeatureCollection, got %T", errkind.ErrSchema, path, obj)
	}

	g := &Grid{EPSG: utmproj.EPSGWGS84}
	idx := 0
	fc.ForEach(func(o geojson.Object) bool {
		feat, ok := o.(*geojson.Feature)
		if !ok {
			// Bare geometries get wrapped so downstream code only deals
			// with features.
			feat = geojson.NewFeature(o, "")
		}
		members := feat.Members()
		cell := Cell{Index: idx, Feature: feat}
		if id := gjson.Get(members, "properties."+idField); id.Exists() {
			cell.ID = id.Int()
			cell.HasID = true
		}
		if g.EPSG == utmproj.EPSGWGS84 {
			if crs := gjson.Get(members, "properties.utm_crs"); crs.Exists() {
				if code, ok := utmproj.ParseEPSG(crs.String()); ok {
					g.EPSG = code
				}
			}
		}
		g.Cells = append(g.Cells, cell)
		idx++
		return true
	})

	if len(g.Cells) == 0 {
		return nil, fmt.Errorf("%w: grid %s has no features", errkind.ErrSchema, path)
	}

	return g, nil
}

// Validate enforces the strict contract the spatial join needs: every
// cell carries the id property and no id repeats.
func (g *Grid) Validate(idField string) error {
	seen := make(map[int64]int, len(g.Cells))
	for _, c := range g.Cells {
		if !c.HasID {
			return fmt.Errorf("%w: feature %d is missing property %q", errkind.ErrSchema, c.Index, idField)
		}
		if prev, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate %s %d (features %d and %d)", errkind.ErrSchema, idField, c.ID, prev, c.Index)
		}
		seen[c.ID] = c.Index
	}
	return nil
}

// Metric reports whether cell geometries are in a projected UTM CRS.
func (g *Grid) Metric() bool {
	return g.EPSG != utmproj.EPSGWGS84
}
