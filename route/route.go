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

// Package route computes the geometry of a glider mission route:
// leg distances and headings, travel time and battery use, and
// exports the route for mapping tools.
package route

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// EarthRadius is the mean radius of the Earth [m].
const EarthRadius = 6371000.0

// Waypoint is a position in decimal degrees.
type Waypoint struct {
	Lat, Lon float64
}

func (w Waypoint) String() string { return fmt.Sprintf("(%.4f, %.4f)", w.Lat, w.Lon) }

// Check returns an error if w is not a valid position.
func (w Waypoint) Check() error {
	if math.IsNaN(w.Lat) || w.Lat < -90 || w.Lat > 90 {
		return fmt.Errorf("route: latitude %g is outside [-90, 90]", w.Lat)
	}
	if math.IsNaN(w.Lon) || w.Lon < -180 || w.Lon > 180 {
		return fmt.Errorf("route: longitude %g is outside [-180, 180]", w.Lon)
	}
	return nil
}

// Point returns w with longitude as X and latitude as Y.
func (w Waypoint) Point() geom.Point { return geom.Point{X: w.Lon, Y: w.Lat} }

func radians(d float64) float64 { return d * math.Pi / 180 }

func degrees(r float64) float64 { return r * 180 / math.Pi }

// Distance returns the great-circle (haversine) distance
// from a to b [m].
func Distance(a, b Waypoint) float64 {
	lat1, lon1 := radians(a.Lat), radians(a.Lon)
	lat2, lon2 := radians(b.Lat), radians(b.Lon)
	dLat, dLon := lat2-lat1, lon2-lon1
	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	return EarthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Heading returns the initial compass bearing from a to b, in
// degrees clockwise from north in [0, 360).
func Heading(a, b Waypoint) float64 {
	lat1, lon1 := radians(a.Lat), radians(a.Lon)
	lat2, lon2 := radians(b.Lat), radians(b.Lon)
	dLon := lon2 - lon1
	x := math.Sin(dLon) * math.Cos(lat2)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	h := math.Mod(degrees(math.Atan2(x, y))+360, 360)
	if h >= 360 {
		h -= 360
	}
	return h
}

// LineString returns the route through waypoints.
func LineString(waypoints []Waypoint) geom.LineString {
	l := make(geom.LineString, len(waypoints))
	for i, w := range waypoints {
		l[i] = w.Point()
	}
	return l
}

// Bounds returns the extent of waypoints expanded by pad degrees
// on every side, with longitude as X and latitude as Y.
func Bounds(waypoints []Waypoint, pad float64) *geom.Bounds {
	b := geom.NewBounds()
	for _, w := range waypoints {
		b.Extend(geom.NewBoundsPoint(w.Point()))
	}
	b.Min.X -= pad
	b.Min.Y -= pad
	b.Max.X += pad
	b.Max.Y += pad
	return b
}
