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

// GOFS describes the HYCOM Global Ocean Forecast System 3.1,
// on a regular grid with longitudes in [0, 360).
var GOFS = ModelSpec{
	Name:  "GOFS",
	U:     "water_u",
	V:     "water_v",
	Depth: "depth",
	Lat:   "lat",
	Lon:   "lon",
	Time:  "time",
}

// NewGOFS reads the currents in the GOFS output file at path.
// If msgChan is not nil, status messages will be sent to it.
func NewGOFS(path string, msgChan chan string) (*ModelData, error) {
	return ReadModel(path, GOFS, msgChan)
}
