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

// Package spatialjoin assigns points to the grid cell polygon that
// contains them. Candidate cells come from an R-tree over polygon
// bounding rectangles; exact containment is then tested per candidate.
package spatialjoin

import (
	"github.com/tidwall/geojson"
	"github.com/tidwall/geojson/geometry"
	"github.com/tidwall/rtree"

	"github.com/visitgrid/visitgrid/internal/gridfile"
)

type indexedCell struct {
	id   int64
	feat *geojson.Feature
}

// Index is an immutable spatial index over grid cells. Build once per
// run, then call Assign per point.
type Index struct {
	tr rtree.RTree
}

// NewIndex inserts every cell's bounding rectangle into the R-tree.
// The grid must already be validated; ids are trusted here.
func NewIndex(g *gridfile.Grid) *Index {
	ix := &Index{}
	for _, c := range g.Cells {
		r := c.Feature.Rect()
		ix.tr.Insert(
			[2]float64{r.Min.X, r.Min.Y},
			[2]float64{r.Max.X, r.Max.Y},
			&indexedCell{id: c.ID, feat: c.Feature},
		)
	}
	return ix
}

// Assign returns the id of the cell containing (x, y), in the grid's
// own CRS. When a point sits on a boundary shared by several cells, the
// lowest cell id wins so assignment does not depend on index iteration
// order. ok is false when no cell contains the point.
func (ix *Index) Assign(x, y float64) (id int64, ok bool) {
	pt := geometry.Point{X: x, Y: y}
	ix.tr.Search(
		[2]float64{x, y},
		[2]float64{x, y},
		func(_, _ [2]float64, value any) bool {
			c := value.(*indexedCell)
			if !c.feat.IntersectsPoint(pt) {
				return true
			}
			if !ok || c.id < id {
				id = c.id
			}
			ok = true
			return true
		},
	)
	return id, ok
}
