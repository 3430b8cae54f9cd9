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

// Package trajfile reads agent trajectory observations from columnar
// files. Callers open a reader for a path, resolve the column schema
// once, then pull typed observations.
package trajfile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/visitgrid/visitgrid/internal/errkind"
)

// Row is a single record as a map of column names to values. Rows
// returned by GetRow are only valid until the next GetRow call; the
// underlying buffers are reused.
type Row map[string]any

// Reader is the core interface for reading trajectory rows from any
// supported file format.
type Reader interface {
	// GetRow returns the next row of data.
	// Returns io.EOF when there are no more rows.
	GetRow() (Row, error)

	// Columns returns the column names present in the file.
	Columns() []string

	// Close releases any resources held by the reader.
	Close() error
}

// Open picks a reader implementation from the file extension.
// ".parquet" and ".csv" are supported.
func Open(path string, batchSize int) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return NewParquetReader(path, batchSize)
	case ".csv":
		return NewCSVReader(path)
	default:
		return nil, fmt.Errorf("%w: unsupported trajectory format %q (want .parquet or .csv)",
			errkind.ErrSchema, filepath.Ext(path))
	}
}
