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

// Package ggs turns ocean model current forecasts into the depth-averaged
// and per-meter current fields used to plan underwater glider missions.
//
// Model output is read into ModelData (see ReadModel, NewRTOFS, NewCMEMS
// and NewGOFS), every water column is reduced by Reduce, and Broadcast
// assembles the results into Datasets that can be written as netcdf files.
package ggs

// Version gives the version number.
const Version = "0.1.0"
