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
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"
)

// Leg is one segment of a route.
type Leg struct {
	From, To Waypoint

	// Distance is in meters and Heading is in degrees from north.
	Distance, Heading float64

	// Duration is zero when the glider speed is unknown.
	Duration time.Duration

	// Battery is the charge used over the leg [Ah].
	Battery float64
}

// Analysis holds the legs of a route and their totals.
type Analysis struct {
	Waypoints []Waypoint
	Legs      []Leg

	Distance float64
	Duration time.Duration
	Battery  float64
}

// Analyze computes the legs between consecutive waypoints for a glider
// traveling at avgVelocity [m/s] and draining batteryDrain [Ah/day].
func Analyze(waypoints []Waypoint, avgVelocity, batteryDrain float64) *Analysis {
	a := &Analysis{Waypoints: waypoints}
	for i := 1; i < len(waypoints); i++ {
		l := Leg{
			From:     waypoints[i-1],
			To:       waypoints[i],
			Distance: Distance(waypoints[i-1], waypoints[i]),
			Heading:  Heading(waypoints[i-1], waypoints[i]),
		}
		if avgVelocity > 0 {
			l.Duration = time.Duration(l.Distance / avgVelocity * float64(time.Second))
			l.Battery = batteryDrain * l.Duration.Hours() / 24
		}
		a.Legs = append(a.Legs, l)
		a.Distance += l.Distance
		a.Duration += l.Duration
		a.Battery += l.Battery
	}
	return a
}

// Remaining returns the battery charge left at the end of the route
// for a glider starting with capacity [Ah].
func (a *Analysis) Remaining(capacity float64) float64 { return capacity - a.Battery }

// Headings returns the heading of each leg.
func (a *Analysis) Headings() []float64 {
	h := make([]float64, len(a.Legs))
	for i, l := range a.Legs {
		h[i] = l.Heading
	}
	return h
}

// String returns a table of the legs and totals.
func (a *Analysis) String() string {
	var b bytes.Buffer
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Leg\tFrom\tTo\tDistance (km)\tHeading (°)\tTime (h)\tBattery (Ah)")
	for i, l := range a.Legs {
		fmt.Fprintf(w, "%d\t%s %s\t%s %s\t%.2f\t%.1f\t%.2f\t%.2f\n", i+1,
			FormatDM(l.From.Lat, Latitude), FormatDM(l.From.Lon, Longitude),
			FormatDM(l.To.Lat, Latitude), FormatDM(l.To.Lon, Longitude),
			l.Distance/1000, l.Heading, l.Duration.Hours(), l.Battery)
	}
	fmt.Fprintf(w, "Total\t\t\t%.2f\t\t%.2f\t%.2f\n", a.Distance/1000, a.Duration.Hours(), a.Battery)
	w.Flush()
	return b.String()
}
