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

package utmproj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEPSG(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		ok       bool
	}{
		{name: "plain", input: "EPSG:32654", expected: 32654, ok: true},
		{name: "lowercase", input: "epsg:32733", expected: 32733, ok: true},
		{name: "spaces around colon", input: "EPSG : 32611", expected: 32611, ok: true},
		{name: "embedded", input: "utm zone EPSG:32610 north", expected: 32610, ok: true},
		{name: "no code", input: "EPSG:", ok: false},
		{name: "not epsg", input: "WGS 84 / UTM zone 11N", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := ParseEPSG(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, code)
			}
		})
	}
}

func TestZoneFromEPSG(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		zone     int
		northern bool
		wantErr  bool
	}{
		{name: "tokyo north", code: 32654, zone: 54, northern: true},
		{name: "south zone", code: 32733, zone: 33, northern: false},
		{name: "first north", code: 32601, zone: 1, northern: true},
		{name: "last south", code: 32760, zone: 60, northern: false},
		{name: "wgs84 geographic", code: 4326, wantErr: true},
		{name: "out of range", code: 32661, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zone, northern, err := ZoneFromEPSG(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.zone, zone)
			assert.Equal(t, tt.northern, northern)
		})
	}
}

func TestBestZoneEPSG(t *testing.T) {
	assert.Equal(t, 32654, BestZoneEPSG(139.7, 35.6))  // Tokyo
	assert.Equal(t, 32733, BestZoneEPSG(13.4, -8.8))   // Luanda
	assert.Equal(t, 32610, BestZoneEPSG(-122.4, 37.7)) // San Francisco
	assert.Equal(t, 32601, BestZoneEPSG(-180, 10))
	assert.Equal(t, 32760, BestZoneEPSG(180, -10))
}

func TestRoundTrip(t *testing.T) {
	const code = 32654
	toUTM, err := ToUTM(code)
	require.NoError(t, err)
	toWGS, err := ToWGS84(code)
	require.NoError(t, err)

	lon, lat := 139.7, 35.65
	east, north := toUTM(lon, lat)
	assert.Greater(t, east, 100000.0)
	assert.Less(t, east, 900000.0)
	assert.Greater(t, north, 0.0)

	lon2, lat2 := toWGS(east, north)
	assert.InDelta(t, lon, lon2, 1e-6)
	assert.InDelta(t, lat, lat2, 1e-6)
}

func TestToUTMRejectsGeographic(t *testing.T) {
	_, err := ToUTM(4326)
	assert.Error(t, err)
	_, err = ToWGS84(4326)
	assert.Error(t, err)
}
