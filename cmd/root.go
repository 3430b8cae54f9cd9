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
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/visitgrid/visitgrid/internal/idgen"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "visitgrid",
	Short: "Partition agent trajectories into grid cells",
	Long: `Batch tools for grid-based trajectory processing: build a metric grid
over an area of interest, spatially join trajectory points to grid
cells, and write per-cell visit files.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setupLogging(cmd.Name())
	},
}

func setupLogging(service string) {
	var opts *slog.HandlerOptions
	if os.Getenv("DEBUG") != "" || os.Getenv("VISITGRID_DEBUG") != "" {
		opts = &slog.HandlerOptions{Level: slog.LevelDebug}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)).With(
		slog.String("service", service),
		slog.Int64("runID", idgen.NextRunID()),
	))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
