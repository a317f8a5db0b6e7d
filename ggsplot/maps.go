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
	"math"

	"github.com/gliderguidance/ggs"
	"github.com/gliderguidance/ggs/route"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Magnitude plots the depth-averaged current speed in ds with
// vectors showing the current direction.
func Magnitude(ds *ggs.Dataset, opts Options) (*plot.Plot, error) {
	g, err := newGridXYZ(ds, ggs.MagDepthAvg, nil)
	if err != nil {
		return nil, fmt.Errorf("ggsplot: magnitude: %v", err)
	}
	cm := moreland.ExtendedBlackBody()
	cm.SetMin(0)
	cm.SetMax(1)
	h := plotter.NewHeatMap(g, cm.Palette(255))
	h.Min, h.Max = g.limits()

	p := newMap(ds, opts, "depth-averaged current speed (m/s)")
	p.Add(h)
	p.Title.Text += fmt.Sprintf(", max %.2f m/s", h.Max)
	if err := addVectors(p, ds, g, opts.Density); err != nil {
		return nil, fmt.Errorf("ggsplot: magnitude: %v", err)
	}
	if err := addRoute(p, opts.Route); err != nil {
		return nil, err
	}
	return p, nil
}

// Zone returns the index of the highest level that speed reaches,
// or -1 if it is below every level.
func Zone(speed float64, levels []float64) int {
	z := -1
	for k, l := range levels {
		if speed >= l {
			z = k
		}
	}
	return z
}

// zonePalette returns one color per level, lightest first.
func zonePalette(n int) (palette.Palette, error) {
	k := n
	if k < 3 {
		k = 3
	}
	if k > 9 {
		return nil, fmt.Errorf("ggsplot: %d threshold levels; at most 9 are supported", n)
	}
	return brewer.GetPalette(brewer.TypeSequential, "YlOrRd", k)
}

// addZones draws the depth-averaged speed in ds classified by levels.
func addZones(p *plot.Plot, ds *ggs.Dataset, levels []float64) (*gridXYZ, error) {
	if len(levels) == 0 {
		levels = DefaultLevels
	}
	pal, err := zonePalette(len(levels))
	if err != nil {
		return nil, err
	}
	g, err := newGridXYZ(ds, ggs.MagDepthAvg, func(v ggs.Value) float64 {
		if !v.Valid {
			return math.NaN()
		}
		if z := Zone(v.V, levels); z >= 0 {
			return float64(z)
		}
		return math.NaN()
	})
	if err != nil {
		return nil, err
	}
	colors := pal.Colors()[:len(levels)]
	h := plotter.NewHeatMap(g, zoneColors(colors))
	h.Min, h.Max = 0, float64(len(levels)-1)
	if len(levels) == 1 {
		h.Max = 1
	}
	p.Add(h)
	for k, l := range levels {
		label := fmt.Sprintf("≥ %.2f m/s", l)
		if k+1 < len(levels) {
			label = fmt.Sprintf("%.2f to %.2f m/s", l, levels[k+1])
		}
		p.Legend.Add(label, swatch{colors[k]})
	}
	return g, nil
}

type zoneColors []color.Color

func (z zoneColors) Colors() []color.Color { return z }

// Threshold plots the depth-averaged current speed in ds divided
// into zones by levels [m/s]. DefaultLevels are used if levels is empty.
func Threshold(ds *ggs.Dataset, levels []float64, opts Options) (*plot.Plot, error) {
	p := newMap(ds, opts, "depth-averaged current thresholds")
	g, err := addZones(p, ds, levels)
	if err != nil {
		return nil, fmt.Errorf("ggsplot: threshold: %v", err)
	}
	if err := addVectors(p, ds, g, opts.Density); err != nil {
		return nil, fmt.Errorf("ggsplot: threshold: %v", err)
	}
	if err := addRoute(p, opts.Route); err != nil {
		return nil, err
	}
	return p, nil
}

// CompassHeading converts a current direction in degrees
// counterclockwise from east to degrees clockwise from north.
func CompassHeading(dir float64) float64 {
	h := math.Mod(90-dir, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// angleBetween returns the absolute difference between two
// headings, in [0, 180].
func angleBetween(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Advantageous reports whether a current flowing toward compass
// heading h is within tolerance degrees of any of the headings.
func Advantageous(h float64, headings []float64, tolerance float64) bool {
	for _, rh := range headings {
		if angleBetween(h, rh) <= tolerance {
			return true
		}
	}
	return false
}

// Advantage plots the cells of ds where the depth-averaged current
// flows within tolerance degrees of the heading of any leg of the
// route in opts, over the threshold zones.
func Advantage(ds *ggs.Dataset, tolerance float64, levels []float64, opts Options) (*plot.Plot, error) {
	if len(opts.Route) < 2 {
		return nil, ErrNoRoute
	}
	headings := route.Analyze(opts.Route, 0, 0).Headings()
	dir, err := ds.Var(ggs.DirDepthAvg)
	if err != nil {
		return nil, fmt.Errorf("ggsplot: advantage: %v", err)
	}

	p := newMap(ds, opts, fmt.Sprintf("currents within %g° of route headings", tolerance))
	g, err := addZones(p, ds, levels)
	if err != nil {
		return nil, fmt.Errorf("ggsplot: advantage: %v", err)
	}
	var pts plotter.XYs
	nc, nr := g.Dims()
	for c := 0; c < nc; c++ {
		for r := 0; r < nr; r++ {
			d := dir.At(0, g.rows[r], g.cols[c])
			if d.Valid && Advantageous(CompassHeading(d.V), headings, tolerance) {
				pts = append(pts, plotter.XY{X: g.X(c), Y: g.Y(r)})
			}
		}
	}
	if len(pts) > 0 {
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("ggsplot: advantage: %v", err)
		}
		s.GlyphStyle.Shape = draw.PlusGlyph{}
		s.GlyphStyle.Color = color.RGBA{G: 128, A: 255}
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
		p.Legend.Add("Advantageous current", s)
	}
	if err := addRoute(p, opts.Route); err != nil {
		return nil, err
	}
	return p, nil
}
