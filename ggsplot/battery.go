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
	"fmt"
	"image/color"

	"github.com/gliderguidance/ggs/route"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Battery plots a gauge of the battery charge left at the end of the
// route in a for a glider starting with capacity [Ah].
func Battery(a *route.Analysis, capacity float64) (*plot.Plot, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ggsplot: battery capacity is %g but should be positive", capacity)
	}
	remaining := a.Remaining(capacity)
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Battery remaining: %.1f of %.1f Ah", remaining, capacity)
	p.X.Label.Text = "Charge (Ah)"
	p.NominalY("")
	p.X.Min = 0
	p.X.Max = capacity

	full, err := plotter.NewBarChart(plotter.Values{capacity}, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("ggsplot: battery: %v", err)
	}
	full.Horizontal = true
	full.Color = color.Gray{Y: 220}
	full.LineStyle.Width = 0

	left := remaining
	if left < 0 {
		left = 0
	}
	bar, err := plotter.NewBarChart(plotter.Values{left}, vg.Points(24))
	if err != nil {
		return nil, fmt.Errorf("ggsplot: battery: %v", err)
	}
	bar.Horizontal = true
	switch frac := remaining / capacity; {
	case frac > 0.5:
		bar.Color = color.RGBA{G: 160, A: 255}
	case frac > 0.25:
		bar.Color = color.RGBA{R: 230, G: 200, A: 255}
	default:
		bar.Color = color.RGBA{R: 200, A: 255}
	}
	p.Add(full, bar)

	half, err := plotter.NewLine(plotter.XYs{{X: capacity / 2, Y: -0.5}, {X: capacity / 2, Y: 0.5}})
	if err != nil {
		return nil, fmt.Errorf("ggsplot: battery: %v", err)
	}
	half.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	p.Add(half)
	return p, nil
}
