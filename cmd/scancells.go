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

	"github.com/spf13/cobra"

	"github.com/visitgrid/visitgrid/internal/cellscan"
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan-cells",
		Short: "List which cell folders contain a bucket's visits file",
		RunE: func(c *cobra.Command, _ []string) error {
			root, _ := c.Flags().GetString("root")
			bucket, _ := c.Flags().GetInt("bucket-id")
			outPath, _ := c.Flags().GetString("out")
			return runScanCells(root, bucket, outPath)
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("root", "", "Root directory containing cell_<id> folders")
	cmd.Flags().Int("bucket-id", 0, "Bucket id to look for")
	cmd.Flags().String("out", "", "Optional path for a summary CSV of occupied cell ids")
	if err := cmd.MarkFlagRequired("root"); err != nil {
		panic(fmt.Errorf("failed to mark root flag as required: %w", err))
	}
}

func runScanCells(root string, bucket int, outPath string) error {
	filename := fmt.Sprintf("visits_bucket%d.csv", bucket)
	slog.Info("scanning output root", slog.String("root", root), slog.String("filename", filename))

	summary, err := cellscan.Scan(root, filename)
	if err != nil {
		return err
	}

	examples := summary.Found
	if len(examples) > 10 {
		examples = examples[:10]
	}
	slog.Info("scan complete",
		slog.Int("found", len(summary.Found)),
		slog.Int("missing", len(summary.Missing)),
		slog.Any("examples", examples))

	if outPath != "" {
		if err := cellscan.WriteSummary(outPath, summary.Found); err != nil {
			return err
		}
		slog.Info("summary written", slog.String("file", outPath))
	}
	return nil
}
