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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/visitgrid/visitgrid/internal/errkind"
)

// ParquetReader reads rows from a Parquet file without any
// transformation beyond map conversion.
type ParquetReader struct {
	file      *os.File
	pf        *parquet.File
	pfr       *parquet.GenericReader[map[string]any]
	cols      []string
	closed    bool
	exhausted bool

	readBuf []map[string]any // reusable buffer for parquet row batches
	bufPos  int
	bufLen  int
}

var _ Reader = (*ParquetReader)(nil)

// NewParquetReader opens the file and prepares batched reads.
func NewParquetReader(path string, batchSize int) (*ParquetReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: trajectories %s: %w", errkind.ErrInputNotFound, path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: trajectories %s: %w", errkind.ErrInputNotFound, path, err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is not a readable parquet file: %w", errkind.ErrSchema, path, err)
	}

	if batchSize <= 0 {
		batchSize = 1000
	}
	readBuf := make([]map[string]any, batchSize)
	for i := range readBuf {
		readBuf[i] = make(map[string]any)
	}

	cols := make([]string, 0, len(pf.Schema().Fields()))
	for _, field := range pf.Schema().Fields() {
		cols = append(cols, field.Name())
	}

	return &ParquetReader{
		file:    f,
		pf:      pf,
		pfr:     parquet.NewGenericReader[map[string]any](pf, pf.Schema()),
		cols:    cols,
		readBuf: readBuf,
	}, nil
}

// Columns returns the leaf column names from the parquet schema.
func (r *ParquetReader) Columns() []string {
	return r.cols
}

// GetRow returns the next row, refilling the batch buffer as needed.
func (r *ParquetReader) GetRow() (Row, error) {
	if r.closed {
		return nil, errors.New("reader is closed")
	}

	if r.bufPos >= r.bufLen {
		if r.exhausted {
			return nil, io.EOF
		}
		for i := range r.readBuf {
			for k := range r.readBuf[i] {
				delete(r.readBuf[i], k)
			}
		}
		n, err := r.pfr.Read(r.readBuf)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("parquet reader error: %w", err)
		}
		if err == io.EOF {
			r.exhausted = true
		}
		if n == 0 {
			return nil, io.EOF
		}
		r.bufPos = 0
		r.bufLen = n
	}

	row := Row(r.readBuf[r.bufPos])
	r.bufPos++
	return row, nil
}

// Close releases the underlying file.
func (r *ParquetReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.pfr != nil {
		_ = r.pfr.Close()
	}
	return r.file.Close()
}
