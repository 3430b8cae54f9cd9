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
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunGridCSVGeographicGrid(t *testing.T) {
	grid := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"cell_id":3},"geometry":{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,2],[0,2],[0,0]]]}}]}`
	gridPath := filepath.Join(t.TempDir(), "grid.geojson")
	require.NoError(t, os.WriteFile(gridPath, []byte(grid), 0o644))
	outPath := filepath.Join(t.TempDir(), "grid.csv")

	require.NoError(t, runGridCSV(gridPath, outPath, "cell_id"))

	recs := readVisits(t, outPath)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"cell_id", "row", "col", "area_m2", "centroid_x_m", "centroid_y_m", "lon", "lat"}, recs[0])

	rec := recs[1]
	assert.Equal(t, "3", rec[0])
	assert.Equal(t, "", rec[1]) // no row property
	assert.Equal(t, "", rec[2]) // no col property
	// No utm_crs and no area_m2 property: a computed area would be in
	// square degrees, so the column is left empty.
	assert.Equal(t, "", rec[3])
	// Centroid is already lon/lat and the lon/lat columns repeat it.
	assert.Equal(t, "1", rec[6])
	assert.Equal(t, "1", rec[7])
}

func TestRunGridCSVMetricGrid(t *testing.T) {
	gridPath := writeMetricCellGrid(t, 139.7005, 35.6505, 100)
	outPath := filepath.Join(t.TempDir(), "grid.csv")

	require.NoError(t, runGridCSV(gridPath, outPath, "cell_id"))

	recs := readVisits(t, outPath)
	require.Len(t, recs, 2)
	rec := recs[1]
	assert.Equal(t, "0", rec[0])

	// area_m2 property is absent but the CRS is metric, so the computed
	// planar area of the 200m square stands in.
	area, err := strconv.ParseFloat(rec[3], 64)
	require.NoError(t, err)
	assert.InDelta(t, 200*200, area, 1)

	// Centroids reproject back to the WGS84 point the cell was built on.
	lon, err := strconv.ParseFloat(rec[6], 64)
	require.NoError(t, err)
	lat, err := strconv.ParseFloat(rec[7], 64)
	require.NoError(t, err)
	assert.InDelta(t, 139.7005, lon, 1e-4)
	assert.InDelta(t, 35.6505, lat, 1e-4)
}
