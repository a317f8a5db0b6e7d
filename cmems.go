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

// CMEMS describes the Copernicus Marine Service global
// physics analysis and forecast product, on a regular
// latitude-longitude grid.
var CMEMS = ModelSpec{
	Name:  "CMEMS",
	U:     "uo",
	V:     "vo",
	Depth: "depth",
	Lat:   "latitude",
	Lon:   "longitude",
	Time:  "time",
}

// NewCMEMS reads the currents in the CMEMS output file at path.
// If msgChan is not nil, status messages will be sent to it.
func NewCMEMS(path string, msgChan chan string) (*ModelData, error) {
	return ReadModel(path, CMEMS, msgChan)
}
