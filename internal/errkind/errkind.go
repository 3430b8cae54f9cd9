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

// Package errkind defines the three failure classes the pipeline can
// abort with. Errors returned from loaders, the joiner, and the writer
// wrap one of these sentinels so callers can classify failures with
// errors.Is without depending on message text.
package errkind

import "errors"

var (
	// ErrInputNotFound indicates a missing or unreadable input file.
	// Raised before any processing starts.
	ErrInputNotFound = errors.New("input not found or unreadable")

	// ErrSchema indicates required columns, geometry, or identifiers are
	// absent from an otherwise readable input. Raised before the join.
	ErrSchema = errors.New("schema error")

	// ErrOutputWrite indicates the output root is not writable or a write
	// failed mid-run. Partial outputs are not rolled back.
	ErrOutputWrite = errors.New("output write error")
)
