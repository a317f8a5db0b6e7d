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

package ggs

// RTOFS describes output of the NOAA Real-Time Ocean Forecast
// System (HYCOM based), which is on a curvilinear grid with
// two-dimensional Latitude and Longitude fields. Its time
// variable MT is in days since 1900-12-31.
var RTOFS = ModelSpec{
	Name:        "RTOFS",
	U:           "u",
	V:           "v",
	Depth:       "Depth",
	Lat:         "Latitude",
	Lon:         "Longitude",
	Time:        "MT",
	Curvilinear: true,
}

// NewRTOFS reads the currents in the RTOFS output file at path.
// If msgChan is not nil, status messages will be sent to it.
func NewRTOFS(path string, msgChan chan string) (*ModelData, error) {
	return ReadModel(path, RTOFS, msgChan)
}
