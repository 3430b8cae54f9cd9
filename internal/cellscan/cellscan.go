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

// Package cellscan audits a partition output root: which cell_<id>
// folders contain a given bucket's visits file and which do not.
package cellscan

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/visitgrid/visitgrid/internal/errkind"
)

// Summary lists cell labels with and without the bucket file, each
// sorted numerically where the labels are numeric.
type Summary struct {
	Found   []string
	Missing []string
}

// Scan walks the cell_* folders under root looking for filename.
func Scan(root, filename string) (*Summary, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: output root %s: %w", errkind.ErrInputNotFound, root, err)
	}

	s := &Summary{}
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "cell_") {
			continue
		}
		label := strings.TrimPrefix(e.Name(), "cell_")
		if _, err := os.Stat(filepath.Join(root, e.Name(), filename)); err == nil {
			s.Found = append(s.Found, label)
		} else {
			s.Missing = append(s.Missing, label)
		}
	}

	sort.Slice(s.Found, func(i, j int) bool { return labelLess(s.Found[i], s.Found[j]) })
	sort.Slice(s.Missing, func(i, j int) bool { return labelLess(s.Missing[i], s.Missing[j]) })
	return s, nil
}

// WriteSummary writes the occupied cell ids as a one-column CSV.
func WriteSummary(path string, found []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"cell_id"}); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, path, err)
	}
	for _, label := range found {
		if err := w.Write([]string{label}); err != nil {
			_ = f.Close()
			return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %s: %w", errkind.ErrOutputWrite, path, err)
	}
	return f.Close()
}

func labelLess(a, b string) bool {
	na, erra := strconv.ParseInt(a, 10, 64)
	nb, errb := strconv.ParseInt(b, 10, 64)
	if erra == nil && errb == nil {
		return na < nb
	}
	if (erra == nil) != (errb == nil) {
		return erra == nil
	}
	return a < b
}
