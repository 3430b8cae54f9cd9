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

// Package idgen hands out run identifiers so every log line from a
// single invocation can be correlated.
package idgen

import (
	"math/rand"
	"sync"
	"time"

	"github.com/sony/sonyflake"
)

var (
	once sync.Once
	sf   *sonyflake.Sonyflake
)

// NextRunID returns a positive int64 that increases roughly in time
// order across invocations. Falls back to a random value if the flake
// generator cannot be used on this host.
func NextRunID() int64 {
	once.Do(func() {
		sf, _ = sonyflake.New(sonyflake.Settings{
			StartTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	})
	if sf == nil {
		return rand.Int63()
	}
	v, err := sf.NextID()
	if err != nil {
		return rand.Int63()
	}
	return int64(v)
}
