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
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitgrid/visitgrid/internal/utmproj"
)

type trajRow struct {
	Agent     string  `parquet:"agent"`
	Timestamp int64   `parquet:"timestamp"`
	Latitude  float64 `parquet:"latitude"`
	Longitude float64 `parquet:"longitude"`
}

func writeTrajectories(t *testing.T, rows []trajRow) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "traj.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := parquet.NewGenericWriter[trajRow](f)
	_, err = w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

// writeFourCellGrid covers lon/lat (0,0)-(2,2) with four 1x1 degree cells
// numbered 0..3 bottom-left to top-right.
func writeFourCellGrid(t *testing.T) string {
	t.Helper()

	features := ""
	id := 0
	for _, y := range []int{0, 1} {
		for _, x := range []int{0, 1} {
			if features != "" {
				features += ","
			}
			features += fmt.Sprintf(
				`{"type":"Feature","properties":{"cell_id":%d},"geometry":{"type":"Polygon","coordinates":[[[%d,%d],[%d,%d],[%d,%d],[%d,%d],[%d,%d]]]}}`,
				id, x, y, x+1, y, x+1, y+1, x, y+1, x, y)
			id++
		}
	}

	path := filepath.Join(t.TempDir(), "grid.geojson")
	content := `{"type":"FeatureCollection","features":[` + features + `]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readVisits(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestRunPartition(t *testing.T) {
	traj := writeTrajectories(t, []trajRow{
		{Agent: "a1", Timestamp: 100, Latitude: 0.5, Longitude: 0.5}, // cell 0
		{Agent: "a2", Timestamp: 200, Latitude: 1.5, Longitude: 1.5}, // cell 3
		{Agent: "a3", Timestamp: 300, Latitude: 5, Longitude: 5},     // outside
		{Agent: "a1", Timestamp: 50, Latitude: 0.6, Longitude: 0.4},  // cell 0, earlier
	})
	grid := writeFourCellGrid(t)
	outRoot := filepath.Join(t.TempDir(), "out")

	opts := partitionOptions{
		Trajectories: traj,
		Grid:         grid,
		OutRoot:      outRoot,
		Bucket:       0,
		AgentField:   "agent",
		LatField:     "latitude",
		LonField:     "longitude",
		GridIDField:  "cell_id",
		BatchSize:    1000,
	}
	require.NoError(t, runPartition(opts))

	recs := readVisits(t, filepath.Join(outRoot, "cell_0", "visits_bucket0.csv"))
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"agent", "latitude", "longitude", "timestamp", "cell_id", "bucket_id"}, recs[0])
	// Sorted by timestamp within the cell.
	assert.Equal(t, []string{"a1", "0.6", "0.4", "50", "0", "0"}, recs[1])
	assert.Equal(t, []string{"a1", "0.5", "0.5", "100", "0", "0"}, recs[2])

	recs = readVisits(t, filepath.Join(outRoot, "cell_3", "visits_bucket0.csv"))
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"a2", "1.5", "1.5", "200", "3", "0"}, recs[1])

	// The outside point is dropped, and empty cells get no folder.
	assert.NoDirExists(t, filepath.Join(outRoot, "cell_unassigned"))
	assert.NoDirExists(t, filepath.Join(outRoot, "cell_1"))
	assert.NoDirExists(t, filepath.Join(outRoot, "cell_2"))
}

func TestRunPartitionUnassigned(t *testing.T) {
	traj := writeTrajectories(t, []trajRow{
		{Agent: "a1", Timestamp: 100, Latitude: 0.5, Longitude: 0.5},
		{Agent: "a3", Timestamp: 300, Latitude: 5, Longitude: 5},
	})
	outRoot := filepath.Join(t.TempDir(), "out")

	opts := partitionOptions{
		Trajectories: traj,
		Grid:         writeFourCellGrid(t),
		OutRoot:      outRoot,
		AgentField:   "agent",
		LatField:     "latitude",
		LonField:     "longitude",
		GridIDField:  "cell_id",
		Unassigned:   true,
		BatchSize:    1000,
	}
	require.NoError(t, runPartition(opts))

	recs := readVisits(t, filepath.Join(outRoot, "cell_unassigned", "visits_bucket0.csv"))
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"a3", "5", "5", "300", "unassigned", "0"}, recs[1])
}

func TestRunPartitionIdempotent(t *testing.T) {
	traj := writeTrajectories(t, []trajRow{
		{Agent: "a1", Timestamp: 100, Latitude: 0.5, Longitude: 0.5},
	})
	outRoot := filepath.Join(t.TempDir(), "out")

	opts := partitionOptions{
		Trajectories: traj,
		Grid:         writeFourCellGrid(t),
		OutRoot:      outRoot,
		AgentField:   "agent",
		LatField:     "latitude",
		LonField:     "longitude",
		GridIDField:  "cell_id",
		BatchSize:    1000,
	}

	require.NoError(t, runPartition(opts))
	first, err := os.ReadFile(filepath.Join(outRoot, "cell_0", "visits_bucket0.csv"))
	require.NoError(t, err)

	require.NoError(t, runPartition(opts))
	second, err := os.ReadFile(filepath.Join(outRoot, "cell_0", "visits_bucket0.csv"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// writeMetricCellGrid writes a one-cell grid in EPSG:32654 (UTM 54N):
// a square of the given half-width in meters centered on the projected
// WGS84 point.
func writeMetricCellGrid(t *testing.T, lon, lat, half float64) string {
	t.Helper()

	toUTM, err := utmproj.ToUTM(32654)
	require.NoError(t, err)
	x, y := toUTM(lon, lat)

	content := fmt.Sprintf(
		`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"cell_id":0,"utm_crs":"EPSG:32654"},"geometry":{"type":"Polygon","coordinates":[[[%f,%f],[%f,%f],[%f,%f],[%f,%f],[%f,%f]]]}}]}`,
		x-half, y-half, x+half, y-half, x+half, y+half, x-half, y+half, x-half, y-half)

	path := filepath.Join(t.TempDir(), "grid_metric.geojson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunPartitionMetricGrid(t *testing.T) {
	traj := writeTrajectories(t, []trajRow{
		{Agent: "a1", Timestamp: 100, Latitude: 35.6505, Longitude: 139.7005}, // inside the cell
		{Agent: "a2", Timestamp: 200, Latitude: 36.6505, Longitude: 139.7005}, // ~111km north, outside
	})
	outRoot := filepath.Join(t.TempDir(), "out")

	opts := partitionOptions{
		Trajectories: traj,
		Grid:         writeMetricCellGrid(t, 139.7005, 35.6505, 250),
		OutRoot:      outRoot,
		AgentField:   "agent",
		LatField:     "latitude",
		LonField:     "longitude",
		GridIDField:  "cell_id",
		BatchSize:    1000,
	}
	require.NoError(t, runPartition(opts))

	// The inside point is joined in the grid's CRS but written back with
	// its original WGS84 coordinates.
	recs := readVisits(t, filepath.Join(outRoot, "cell_0", "visits_bucket0.csv"))
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"a1", "35.6505", "139.7005", "100", "0", "0"}, recs[1])

	assert.NoDirExists(t, filepath.Join(outRoot, "cell_unassigned"))
}

func TestRunPartitionBuckets(t *testing.T) {
	traj := writeTrajectories(t, []trajRow{
		{Agent: "a1", Timestamp: 100, Latitude: 0.5, Longitude: 0.5},
	})
	outRoot := filepath.Join(t.TempDir(), "out")
	grid := writeFourCellGrid(t)

	for _, bucket := range []int{0, 3} {
		opts := partitionOptions{
			Trajectories: traj,
			Grid:         grid,
			OutRoot:      outRoot,
			Bucket:       bucket,
			AgentField:   "agent",
			LatField:     "latitude",
			LonField:     "longitude",
			GridIDField:  "cell_id",
			BatchSize:    1000,
		}
		require.NoError(t, runPartition(opts))
	}

	assert.FileExists(t, filepath.Join(outRoot, "cell_0", "visits_bucket0.csv"))
	assert.FileExists(t, filepath.Join(outRoot, "cell_0", "visits_bucket3.csv"))
}

func TestRunPartitionMissingGrid(t *testing.T) {
	traj := writeTrajectories(t, []trajRow{
		{Agent: "a1", Timestamp: 100, Latitude: 0.5, Longitude: 0.5},
	})

	opts := partitionOptions{
		Trajectories: traj,
		Grid:         filepath.Join(t.TempDir(), "nope.geojson"),
		OutRoot:      t.TempDir(),
		AgentField:   "agent",
		LatField:     "latitude",
		LonField:     "longitude",
		GridIDField:  "cell_id",
		BatchSize:    1000,
	}
	assert.Error(t, runPartition(opts))
}
