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
	"fmt"
	"io"
	"strconv"

	"github.com/visitgrid/visitgrid/internal/errkind"
)

// Observation is one trajectory point with the columns the pipeline
// cares about, typed at load time. Time keeps the raw column value so
// output preserves whatever the source used (epoch int, float, or
// formatted string).
type Observation struct {
	Agent     string
	Time      any
	Latitude  float64
	Longitude float64
}

// ReadAll drains the reader into memory. A row whose coordinate values
// cannot be interpreted as numbers fails the whole load; the point of
// validating here is to not defer type surprises into the join.
func ReadAll(r Reader, cols Columns) ([]Observation, error) {
	var out []Observation
	rowNum := 0
	for {
		row, err := r.GetRow()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		rowNum++

		lat, ok := asFloat(row[cols.Latitude])
		if !ok {
			return nil, fmt.Errorf("%w: row %d: column %q value %v is not numeric",
				errkind.ErrSchema, rowNum, cols.Latitude, row[cols.Latitude])
		}
		lon, ok := asFloat(row[cols.Longitude])
		if !ok {
			return nil, fmt.Errorf("%w: row %d: column %q value %v is not numeric",
				errkind.ErrSchema, rowNum, cols.Longitude, row[cols.Longitude])
		}

		out = append(out, Observation{
			Agent:     asString(row[cols.Agent]),
			Time:      row[cols.Time],
			Latitude:  lat,
			Longitude: lon,
		})
	}
}

func asFloat(v any) (float64, bool) {
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
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
