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

// Package utmproj converts coordinates between WGS84 lon/lat and the
// UTM zones the grid files declare. Only the WGS84 UTM EPSG ranges
// (326xx north, 327xx south) are supported; anything else is rejected
// rather than silently misprojected.
package utmproj

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wroge/wgs84"
)

// EPSGWGS84 is the geographic CRS trajectory points arrive in.
const EPSGWGS84 = 4326

// ParseEPSG extracts the numeric code from strings like "EPSG:32654".
// Whitespace around the colon and lowercase prefixes are tolerated.
func ParseEPSG(s string) (int, bool) {
	s = strings.TrimSpace(s)
	i := strings.Index(strings.ToUpper(s), "EPSG")
	if i < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(s[i+4:])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	code, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return code, true
}

// ZoneFromEPSG splits a UTM EPSG code into zone number and hemisphere.
func ZoneFromEPSG(code int) (zone int, northern bool, err error) {
	switch {
	case code >= 32601 && code <= 32660:
		return code - 32600, true, nil
	case code >= 32701 && code <= 32760:
		return code - 32700, false, nil
	default:
		return 0, false, fmt.Errorf("EPSG:%d is not a WGS84 UTM code", code)
	}
}

// BestZoneEPSG picks the UTM EPSG code whose zone contains the given
// lon/lat, using the hemisphere of the latitude.
func BestZoneEPSG(lon, lat float64) int {
	zone := int((lon+180)/6) + 1
	if zone < 1 {
		zone = 1
	}
	if zone > 60 {
		zone = 60
	}
	if lat >= 0 {
		return 32600 + zone
	}
	return 32700 + zone
}

// Transform maps (lon, lat) or (easting, northing) pairs between CRSs.
type Transform func(a, b float64) (x, y float64)

// ToUTM returns a transform from WGS84 lon/lat into the given UTM EPSG.
func ToUTM(code int) (Transform, error) {
	zone, northern, err := ZoneFromEPSG(code)
	if err != nil {
		return nil, err
	}
	f := wgs84.LonLat().To(wgs84.UTM(float64(zone), northern))
	return func(lon, lat float64) (float64, float64) {
		east, north, _ := f(lon, lat, 0)
		return east, north
	}, nil
}

// ToWGS84 returns a transform from the given UTM EPSG into WGS84 lon/lat.
func ToWGS84(code int) (Transform, error) {
	zone, northern, err := ZoneFromEPSG(code)
	if err != nil {
		return nil, err
	}
	f := wgs84.UTM(float64(zone), northern).To(wgs84.LonLat())
	return func(east, north float64) (float64, float64) {
		lon, lat, _ := f(east, north, 0)
		return lon, lat
	}, nil
}
