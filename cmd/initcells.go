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
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/visitgrid/visitgrid/config"
	"github.com/visitgrid/visitgrid/internal/errkind"
	"github.com/visitgrid/visitgrid/internal/gridfile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "init-cells",
		Short: "Create one folder per grid cell, each holding its cell's GeoJSON",
		RunE: func(c *cobra.Command, _ []string) error {
			gridPath, _ := c.Flags().GetString("grid")
			outRoot, _ := c.Flags().GetString("out-root")
			idField, _ := c.Flags().GetString("grid-id-field")
			return runInitCells(gridPath, outRoot, idField)
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("grid", "", "Grid GeoJSON file")
	cmd.Flags().String("out-root", "", "Parent directory for the cell folders")
	cmd.Flags().String("grid-id-field", config.Default().Fields.GridID, "Grid cell id property name")
	for _, name := range []string{"grid", "out-root"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Errorf("failed to mark %s flag as required: %w", name, err))
		}
	}
}

func runInitCells(gridPath, outRoot, idField string) error {
	slog.Info("reading grid", slog.String("file", gridPath))
	grid, err := gridfile.Load(gridPath, idField)
	if err != nil {
		return err
	}
	slog.Info("grid loaded", slog.Int("features", len(grid.Cells)))

	if err := os.MkdirAll(outRoot, 0o755); err != nil {
		return fmt.Errorf("%w: output root %s: %w", errkind.ErrOutputWrite, outRoot, err)
	}

	created := 0
	missingID := 0
	for _, cell := range grid.Cells {
		label := strconv.FormatInt(cell.ID, 10)
		if !cell.HasID {
			// Fall back to the feature index so every feature still gets
			// a folder.
			missingID++
			label = strconv.Itoa(cell.Index)
		}

		name := "cell_" + label
		dir := filepath.Join(outRoot, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, dir, err)
		}

		single := `{"type":"FeatureCollection","features":[` + cell.Feature.JSON() + `]}`
		path := filepath.Join(dir, name+".geojson")
		if err := os.WriteFile(path, []byte(single), 0o644); err != nil {
			return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, path, err)
		}

		created++
		if created%1000 == 0 {
			slog.Debug("creating cell folders", slog.Int("created", created))
		}
	}

	slog.Info("cell folders created", slog.Int("count", created), slog.String("root", outRoot))
	if missingID > 0 {
		slog.Warn("features without id property used their index instead",
			slog.Int("count", missingID), slog.String("idField", idField))
	}
	return nil
}
