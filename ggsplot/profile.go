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

package ggsplot

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/gliderguidance/ggs"
	"github.com/gliderguidance/ggs/route"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultProfileThreshold is the current speed [m/s] marked on
// profile plots.
const DefaultProfileThreshold = 0.5

// ErrNoData is returned when there is no valid data to plot.
var ErrNoData = errors.New("ggsplot: no valid data at the requested location")

// Profiles plots the bin-averaged speed and velocity components
// against depth at the grid cell of res nearest to lat, lon, with
// a vertical line at threshold [m/s].
func Profiles(res *ggs.Result, lat, lon, threshold float64) (*plot.Plot, error) {
	g, err := res.BinAverage.Grid()
	if err != nil {
		return nil, fmt.Errorf("ggsplot: profiles: %v", err)
	}
	j, i := g.Nearest(lat, lon)
	glat, glon := g.LatLon(j, i)
	b := res.BinProfile(j, i)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s current profile at %s %s, %s", res.Provenance.ModelName,
		route.FormatDM(glat, route.Latitude), route.FormatDM(glon, route.Longitude),
		res.Provenance.ValidTime.UTC().Format("2006-01-02 15:04Z"))
	p.X.Label.Text = "Current (m/s)"
	p.Y.Label.Text = "Depth (m)"

	deepest := 0.0
	n := 0
	for _, s := range []struct {
		name   string
		values []ggs.Value
		color  color.Color
	}{
		{"Speed", b.Speed, color.Black},
		{"u (eastward)", b.U, color.RGBA{R: 200, A: 255}},
		{"v (northward)", b.V, color.RGBA{B: 200, A: 255}},
	} {
		var pts plotter.XYs
		for z, v := range s.values {
			if v.Valid {
				pts = append(pts, plotter.XY{X: v.V, Y: -float64(z)})
				if float64(z) > deepest {
					deepest = float64(z)
				}
			}
		}
		if len(pts) == 0 {
			continue
		}
		n += len(pts)
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("ggsplot: profiles: %v", err)
		}
		l.Color = s.color
		l.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(s.name, l)
	}
	if n == 0 {
		return nil, ErrNoData
	}

	t, err := plotter.NewLine(plotter.XYs{{X: threshold, Y: 0}, {X: threshold, Y: -deepest}})
	if err != nil {
		return nil, fmt.Errorf("ggsplot: profiles: %v", err)
	}
	t.Color = color.RGBA{R: 255, G: 140, A: 255}
	t.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(t)
	p.Legend.Add(fmt.Sprintf("%.2f m/s threshold", threshold), t)
	p.Legend.Top = false
	return p, nil
}
