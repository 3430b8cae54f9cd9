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
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/visitgrid/visitgrid/internal/errkind"
)

// timeCandidates are the column names accepted as the observation
// timestamp, in preference order.
var timeCandidates = []string{"timestamp", "time", "datetime", "date_time", "ts"}

// Columns names the four columns every trajectory file must provide.
// The time column is auto-detected; the others come from configuration.
type Columns struct {
	Agent     string
	Time      string
	Latitude  string
	Longitude string
}

// ResolveColumns validates the configured column names against the
// columns actually present in the file and locates the time column.
// All problems are reported at once rather than one per run.
func ResolveColumns(available []string, agentField, latField, lonField string) (Columns, error) {
	var merr *multierror.Error

	for _, want := range []string{agentField, latField, lonField} {
		if !slices.Contains(available, want) {
			merr = multierror.Append(merr, fmt.Errorf("expected column %q, found %v", want, available))
		}
	}

	cols := Columns{Agent: agentField, Latitude: latField, Longitude: lonField}
	for _, cand := range timeCandidates {
		if slices.Contains(available, cand) {
			cols.Time = cand
			break
		}
	}
	if cols.Time == "" {
		merr = multierror.Append(merr, fmt.Errorf("no time-like column found, expected one of %v", timeCandidates))
	}

	if err := merr.ErrorOrNil(); err != nil {
		return Columns{}, fmt.Errorf("%w: %w", errkind.ErrSchema, err)
	}
	return cols, nil
}
