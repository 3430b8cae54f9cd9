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

// Package cellwriter writes joined trajectory rows to one CSV per grid
// cell under <root>/cell_<id>/visits_bucket<bucket>.csv. The bucket id
// namespaces runs: two runs with different buckets into the same root
// cannot collide, and re-running the same bucket truncates its own
// files so results stay idempotent.
package cellwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/visitgrid/visitgrid/internal/errkind"
)

// UnassignedCell is the folder label used for points outside every grid
// cell when the caller opts to keep them.
const UnassignedCell = "unassigned"

var header = []string{"agent", "latitude", "longitude", "timestamp", "cell_id", "bucket_id"}

// Visit is one output row, already tagged with its owning cell.
type Visit struct {
	Agent     string
	Latitude  float64
	Longitude float64
	Time      any
	Cell      string
	Bucket    int
}

// Writer partitions visits into per-cell files.
type Writer struct {
	root     string
	bucket   int
	filename string
}

// NewWriter prepares a writer rooted at dir. filename overrides the
// default visits_bucket<bucket>.csv when non-empty.
func NewWriter(root string, bucket int, filename string) *Writer {
	if filename == "" {
		filename = fmt.Sprintf("visits_bucket%d.csv", bucket)
	}
	return &Writer{root: root, bucket: bucket, filename: filename}
}

// Stats summarizes one Write call.
type Stats struct {
	Cells int
	Rows  int
}

// Write groups visits by cell and writes each group, sorted by
// timestamp, to its own file. Cells are processed in ascending order so
// failures are reproducible. Partial outputs from a failed run are left
// on disk.
func (w *Writer) Write(visits []Visit) (Stats, error) {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return Stats{}, fmt.Errorf("%w: output root %s: %w", errkind.ErrOutputWrite, w.root, err)
	}

	groups := make(map[string][]Visit)
	for _, v := range visits {
		groups[v.Cell] = append(groups[v.Cell], v)
	}

	cells := make([]string, 0, len(groups))
	for cell := range groups {
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool { return cellLess(cells[i], cells[j]) })

	var stats Stats
	for _, cell := range cells {
		group := groups[cell]
		sort.SliceStable(group, func(i, j int) bool { return timeLess(group[i].Time, group[j].Time) })
		if err := w.writeCell(cell, group); err != nil {
			return stats, err
		}
		stats.Cells++
		stats.Rows += len(group)
	}
	return stats, nil
}

func (w *Writer) writeCell(cell string, group []Visit) error {
	dir := filepath.Join(w.root, "cell_"+cell)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, dir, err)
	}

	path := filepath.Join(dir, w.filename)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, path, err)
	}
	for _, v := range group {
		rec := []string{
			v.Agent,
			strconv.FormatFloat(v.Latitude, 'g', -1, 64),
			strconv.FormatFloat(v.Longitude, 'g', -1, 64),
			formatValue(v.Time),
			v.Cell,
			strconv.Itoa(v.Bucket),
		}
		if err := cw.Write(rec); err != nil {
			_ = f.Close()
			return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, path, err)
	}
	return nil
}

// cellLess orders numeric cell labels numerically and keeps the
// unassigned label (or anything non-numeric) after them.
func cellLess(a, b string) bool {
	na, erra := strconv.ParseInt(a, 10, 64)
	nb, errb := strconv.ParseInt(b, 10, 64)
	switch {
	case erra == nil && errb == nil:
		return na < nb
	case erra == nil:
		return true
	case errb == nil:
		return false
	default:
		return a < b
	}
}

// timeLess compares raw timestamp values: numerically when both sides
// are numeric, lexically otherwise. A time column is assumed to be
// uniformly typed; mixing numeric and string values within one cell
// falls back to lexical order on the formatted values.
func timeLess(a, b any) bool {
	fa, oka := asNumber(a)
	fb, okb := asNumber(b)
	if oka && okb {
		return fa < fb
	}
	return formatValue(a) < formatValue(b)
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func formatValue(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case []byte:
		return string(n)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32)
	case int64:
		return strconv.FormatInt(n, 10)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int:
		return strconv.Itoa(n)
	case nil:
		return ""
	default:
		return fmt.Sprint(n)
	}
}
