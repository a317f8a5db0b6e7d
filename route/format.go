/*
Copyright © 2024 the GGS authors.
This file is part of GGS.

GGS is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GGS is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GGS.  If not, see <http://www.gnu.org/licenses/>.
*/

package route

import (
	"fmt"
	"math"
)

// Axis says whether a coordinate is a latitude or a longitude.
type Axis int

// Coordinate axes.
const (
	Latitude Axis = iota
	Longitude
)

// hemisphere returns the compass letter for whole degrees deg.
func hemisphere(deg int, axis Axis) string {
	switch {
	case deg > 0 && axis == Latitude:
		return "N"
	case deg > 0:
		return "E"
	case deg < 0 && axis == Latitude:
		return "S"
	case deg < 0:
		return "W"
	}
	return ""
}

// FormatDM formats decimal degrees dd as whole degrees and minutes,
// for example 45°30'N. Minutes are truncated.
func FormatDM(dd float64, axis Axis) string {
	deg := int(dd)
	minutes := int(math.Abs((dd - float64(deg)) * 60))
	return fmt.Sprintf("%d°%d'%s", abs(deg), minutes, hemisphere(deg, axis))
}

// FormatDMS formats decimal degrees dd as degrees, minutes and
// seconds, for example 45°30'15.00"N.
func FormatDMS(dd float64, axis Axis) string {
	deg := int(dd)
	minutes := int((dd - float64(deg)) * 60)
	seconds := (dd - float64(deg) - float64(minutes)/60) * 3600
	return fmt.Sprintf("%d°%d'%.2f\"%s", abs(deg), abs(minutes), math.Abs(seconds), hemisphere(deg, axis))
}

// FormatDDM formats decimal degrees dd as signed degrees followed by
// decimal minutes, as used in glider goto files: -80.5 is -8030.00.
func FormatDDM(dd float64) string {
	deg := int(dd)
	minutes := math.Abs(dd-float64(deg)) * 60
	return fmt.Sprintf("%02d%05.2f", deg, minutes)
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
