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

package trajfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/visitgrid/visitgrid/internal/errkind"
)

// CSVReader reads rows from a headed CSV file, parsing each value as
// int64, then float64, then falling back to string.
type CSVReader struct {
	reader  *csv.Reader
	closer  io.Closer
	headers []string
	row     Row // reused between GetRow calls
	closed  bool
}

var _ Reader = (*CSVReader)(nil)

// NewCSVReader opens the file and consumes the header row.
func NewCSVReader(path string) (*CSVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: trajectories %s: %w", errkind.ErrInputNotFound, path, err)
	}

	cr := csv.NewReader(f)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	headers, err := cr.Read()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: failed to read CSV headers from %s: %w", errkind.ErrSchema, path, err)
	}
	if len(headers) == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s has no CSV headers", errkind.ErrSchema, path)
	}

	return &CSVReader{
		reader:  cr,
		closer:  f,
		headers: headers,
		row:     make(Row, len(headers)),
	}, nil
}

// Columns returns the header names.
func (r *CSVReader) Columns() []string {
	return r.headers
}

// GetRow returns the next record. Short records leave trailing columns
// absent from the row rather than inventing empty values.
func (r *CSVReader) GetRow() (Row, error) {
	if r.closed {
		return nil, errors.New("reader is closed")
	}

	rec, err := r.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("CSV read error: %w", err)
	}

	for k := range r.row {
		delete(r.row, k)
	}
	for i, header := range r.headers {
		if i >= len(rec) {
			break
		}
		r.row[header] = parseCSVValue(rec[i])
	}
	return r.row, nil
}

// Close releases the underlying file.
func (r *CSVReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.closer.Close()
}

func parseCSVValue(s string) any {
	if s == "" {
		return ""
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}
