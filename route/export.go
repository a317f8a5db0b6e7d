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
	"encoding/json"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/tealeg/xlsx"
)

type feature struct {
	Type       string                 `json:"type"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type featureCollection struct {
	Type     string     `json:"type"`
	Features []*feature `json:"features"`
}

func newFeature(g geom.Geom, props map[string]interface{}) (*feature, error) {
	gj, err := geojson.ToGeoJSON(g)
	if err != nil {
		return nil, err
	}
	return &feature{Type: "Feature", Geometry: gj, Properties: props}, nil
}

// GeoJSON returns the route as a GeoJSON feature collection
// holding the route line and one point per waypoint.
func (a *Analysis) GeoJSON() ([]byte, error) {
	fc := featureCollection{Type: "FeatureCollection"}
	if len(a.Waypoints) > 1 {
		f, err := newFeature(LineString(a.Waypoints), map[string]interface{}{
			"distance_km": a.Distance / 1000,
			"duration_h":  a.Duration.Hours(),
			"battery_ah":  a.Battery,
		})
		if err != nil {
			return nil, fmt.Errorf("route: %v", err)
		}
		fc.Features = append(fc.Features, f)
	}
	for i, w := range a.Waypoints {
		f, err := newFeature(w.Point(), map[string]interface{}{
			"waypoint": i + 1,
			"lat_dm":   FormatDM(w.Lat, Latitude),
			"lon_dm":   FormatDM(w.Lon, Longitude),
			"lat_ddm":  FormatDDM(w.Lat),
			"lon_ddm":  FormatDDM(w.Lon),
		})
		if err != nil {
			return nil, fmt.Errorf("route: %v", err)
		}
		fc.Features = append(fc.Features, f)
	}
	return json.Marshal(fc)
}

// WriteXLSX writes the legs and waypoints of a to a spreadsheet
// at path.
func (a *Analysis) WriteXLSX(path string) error {
	f := xlsx.NewFile()
	legs, err := f.AddSheet("Legs")
	if err != nil {
		return fmt.Errorf("route: %v", err)
	}
	header := legs.AddRow()
	for _, h := range []string{"Leg", "From", "To", "Distance (km)", "Heading (deg)", "Time (h)", "Battery (Ah)"} {
		header.AddCell().SetString(h)
	}
	for i, l := range a.Legs {
		row := legs.AddRow()
		row.AddCell().SetInt(i + 1)
		row.AddCell().SetString(FormatDM(l.From.Lat, Latitude) + " " + FormatDM(l.From.Lon, Longitude))
		row.AddCell().SetString(FormatDM(l.To.Lat, Latitude) + " " + FormatDM(l.To.Lon, Longitude))
		row.AddCell().SetFloat(l.Distance / 1000)
		row.AddCell().SetFloat(l.Heading)
		row.AddCell().SetFloat(l.Duration.Hours())
		row.AddCell().SetFloat(l.Battery)
	}
	total := legs.AddRow()
	total.AddCell().SetString("Total")
	total.AddCell()
	total.AddCell()
	total.AddCell().SetFloat(a.Distance / 1000)
	total.AddCell()
	total.AddCell().SetFloat(a.Duration.Hours())
	total.AddCell().SetFloat(a.Battery)

	wps, err := f.AddSheet("Waypoints")
	if err != nil {
		return fmt.Errorf("route: %v", err)
	}
	header = wps.AddRow()
	for _, h := range []string{"Waypoint", "Latitude", "Longitude", "Latitude (DDM)", "Longitude (DDM)"} {
		header.AddCell().SetString(h)
	}
	for i, w := range a.Waypoints {
		row := wps.AddRow()
		row.AddCell().SetInt(i + 1)
		row.AddCell().SetFloat(w.Lat)
		row.AddCell().SetFloat(w.Lon)
		row.AddCell().SetString(FormatDDM(w.Lat))
		row.AddCell().SetString(FormatDDM(w.Lon))
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("route: %v", err)
	}
	return nil
}
