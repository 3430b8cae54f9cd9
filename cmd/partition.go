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
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/visitgrid/visitgrid/config"
	"github.com/visitgrid/visitgrid/internal/cellwriter"
	"github.com/visitgrid/visitgrid/internal/gridfile"
	"github.com/visitgrid/visitgrid/internal/spatialjoin"
	"github.com/visitgrid/visitgrid/internal/trajfile"
	"github.com/visitgrid/visitgrid/internal/utmproj"
)

// partitionOptions carries everything runPartition needs, with
// configuration and flag overrides already merged.
type partitionOptions struct {
	Trajectories   string
	Grid           string
	OutRoot        string
	Bucket         int
	AgentField     string
	LatField       string
	LonField       string
	GridIDField    string
	OutputFilename string
	Unassigned     bool
	BatchSize      int
}

func init() {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "partition",
		Short: "Spatially join trajectory points to grid cells and write one visits file per cell",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			opts := partitionOptions{
				AgentField:     cfg.Fields.Agent,
				LatField:       cfg.Fields.Latitude,
				LonField:       cfg.Fields.Longitude,
				GridIDField:    cfg.Fields.GridID,
				OutputFilename: cfg.Output.Filename,
				Unassigned:     cfg.Output.Unassigned,
				BatchSize:      cfg.Reader.BatchSize,
			}

			fl := c.Flags()
			opts.Trajectories, _ = fl.GetString("trajectories")
			opts.Grid, _ = fl.GetString("grid")
			opts.OutRoot, _ = fl.GetString("out-root")
			opts.Bucket, _ = fl.GetInt("bucket-id")
			if fl.Changed("agent-field") {
				opts.AgentField, _ = fl.GetString("agent-field")
			}
			if fl.Changed("lat-field") {
				opts.LatField, _ = fl.GetString("lat-field")
			}
			if fl.Changed("lon-field") {
				opts.LonField, _ = fl.GetString("lon-field")
			}
			if fl.Changed("grid-id-field") {
				opts.GridIDField, _ = fl.GetString("grid-id-field")
			}
			if fl.Changed("output-filename") {
				opts.OutputFilename, _ = fl.GetString("output-filename")
			}
			if fl.Changed("unassigned") {
				opts.Unassigned, _ = fl.GetBool("unassigned")
			}

			return runPartition(opts)
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("trajectories", "", "Trajectory file (.parquet or .csv) with agent, time, latitude, longitude columns")
	cmd.Flags().String("grid", "", "Grid GeoJSON (WGS84, or metric with a utm_crs property)")
	cmd.Flags().String("out-root", "", "Root directory for per-cell output folders")
	cmd.Flags().Int("bucket-id", 0, "Bucket id namespacing this run's output files")
	cmd.Flags().String("agent-field", defaults.Fields.Agent, "Agent id column name")
	cmd.Flags().String("lat-field", defaults.Fields.Latitude, "Latitude column name")
	cmd.Flags().String("lon-field", defaults.Fields.Longitude, "Longitude column name")
	cmd.Flags().String("grid-id-field", defaults.Fields.GridID, "Grid cell id property name")
	cmd.Flags().String("output-filename", "", "Per-cell filename (default visits_bucket<bucket-id>.csv)")
	cmd.Flags().Bool("unassigned", false, "Keep points outside every cell in a cell_unassigned folder instead of dropping them")
	for _, name := range []string{"trajectories", "grid", "out-root"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Errorf("failed to mark %s flag as required: %w", name, err))
		}
	}
}

func runPartition(opts partitionOptions) error {
	slog.Info("reading grid", slog.String("file", opts.Grid))
	grid, err := gridfile.Load(opts.Grid, opts.GridIDField)
	if err != nil {
		return err
	}
	if err := grid.Validate(opts.GridIDField); err != nil {
		return err
	}
	slog.Info("grid loaded",
		slog.Int("cells", len(grid.Cells)),
		slog.Int("epsg", grid.EPSG))

	slog.Info("reading trajectories", slog.String("file", opts.Trajectories))
	reader, err := trajfile.Open(opts.Trajectories, opts.BatchSize)
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()

	cols, err := trajfile.ResolveColumns(reader.Columns(), opts.AgentField, opts.LatField, opts.LonField)
	if err != nil {
		return err
	}

	observations, err := trajfile.ReadAll(reader, cols)
	if err != nil {
		return err
	}
	slog.Info("trajectories loaded",
		slog.Int("rows", len(observations)),
		slog.String("timeColumn", cols.Time))

	// Points arrive in WGS84. A metric grid means the join runs in the
	// grid's CRS, so project the points rather than the polygons.
	var toGrid utmproj.Transform
	if grid.Metric() {
		slog.Info("reprojecting points to grid CRS", slog.Int("epsg", grid.EPSG))
		toGrid, err = utmproj.ToUTM(grid.EPSG)
		if err != nil {
			return err
		}
	}

	index := spatialjoin.NewIndex(grid)

	visits := make([]cellwriter.Visit, 0, len(observations))
	dropped := 0
	for _, obs := range observations {
		x, y := obs.Longitude, obs.Latitude
		if toGrid != nil {
			x, y = toGrid(x, y)
		}

		cell := ""
		if id, ok := index.Assign(x, y); ok {
			cell = strconv.FormatInt(id, 10)
		} else if opts.Unassigned {
			cell = cellwriter.UnassignedCell
		} else {
			dropped++
			continue
		}

		visits = append(visits, cellwriter.Visit{
			Agent:     obs.Agent,
			Latitude:  obs.Latitude,
			Longitude: obs.Longitude,
			Time:      obs.Time,
			Cell:      cell,
			Bucket:    opts.Bucket,
		})
	}
	if dropped > 0 {
		slog.Warn("dropped points outside every grid cell", slog.Int("count", dropped))
	}
	if len(visits) == 0 {
		slog.Warn("no points fell inside any grid cell, nothing to write")
		return nil
	}

	writer := cellwriter.NewWriter(opts.OutRoot, opts.Bucket, opts.OutputFilename)
	stats, err := writer.Write(visits)
	if err != nil {
		return err
	}
	slog.Info("partition complete",
		slog.Int("cells", stats.Cells),
		slog.Int("rows", stats.Rows),
		slog.Int("dropped", dropped))
	return nil
}
