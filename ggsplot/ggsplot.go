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

// Package ggsplot renders depth-averaged and bin-averaged
// currents as images.
package ggsplot

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/gliderguidance/ggs"
	"github.com/gliderguidance/ggs/route"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoRoute is returned when a plot needs a route with at least
// one leg.
var ErrNoRoute = errors.New("ggsplot: the route needs at least two waypoints")

// DefaultLevels are the current speed thresholds [m/s] that divide
// threshold plots into zones.
var DefaultLevels = []float64{0, 0.2, 0.3, 0.4, 0.5}

// Options control the appearance of map plots.
type Options struct {
	// Route is drawn on top of the map if it is not empty.
	Route []route.Waypoint

	// Density draws one current vector for every Density cells in
	// each direction. Zero or less disables vectors.
	Density int

	// Title is the plot title. A title is made up from the
	// dataset provenance if it is empty.
	Title string
}

// Size of saved images.
var (
	Width  = 10 * vg.Inch
	Height = 8 * vg.Inch
)

// Save writes p to path. The image format is chosen from the
// file extension.
func Save(p *plot.Plot, path string) error {
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("ggsplot: saving %s: %v", path, err)
	}
	return nil
}

func title(ds *ggs.Dataset, opts Options, what string) string {
	if opts.Title != "" {
		return opts.Title
	}
	return fmt.Sprintf("%s %s %s", ds.Provenance.ModelName, what,
		ds.Provenance.ValidTime.UTC().Format("2006-01-02 15:04Z"))
}

func newMap(ds *ggs.Dataset, opts Options, what string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title(ds, opts, what)
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	return p
}

// gridXYZ presents one variable of a depth-averaged dataset to
// gonum/plot. Rows and columns are sorted by coordinate. Curvilinear
// grids are drawn with the mean latitude of each row and the mean
// longitude of each column.
type gridXYZ struct {
	v          *ggs.Variable
	x, y       []float64
	cols, rows []int
	z          func(ggs.Value) float64
}

func newGridXYZ(ds *ggs.Dataset, name string, z func(ggs.Value) float64) (*gridXYZ, error) {
	v, err := ds.Var(name)
	if err != nil {
		return nil, err
	}
	g, err := ds.Grid()
	if err != nil {
		return nil, err
	}
	ny, nx := g.Shape()
	if ny < 2 || nx < 2 {
		return nil, fmt.Errorf("ggsplot: grid is %dx%d but needs at least 2x2 cells", ny, nx)
	}
	lat, lon := make([]float64, ny), make([]float64, nx)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			la, lo := g.LatLon(j, i)
			lat[j] += la / float64(nx)
			lon[i] += lo / float64(ny)
		}
	}
	if z == nil {
		z = ggs.Value.Float
	}
	o := &gridXYZ{v: v, z: z}
	o.rows, o.y = sortedAxis(lat)
	o.cols, o.x = sortedAxis(lon)
	return o, nil
}

func sortedAxis(a []float64) (idx []int, sorted []float64) {
	idx = make([]int, len(a))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return a[idx[i]] < a[idx[j]] })
	sorted = make([]float64, len(a))
	for i, k := range idx {
		sorted[i] = a[k]
	}
	return idx, sorted
}

func (g *gridXYZ) Dims() (c, r int)   { return len(g.x), len(g.y) }
func (g *gridXYZ) X(c int) float64    { return g.x[c] }
func (g *gridXYZ) Y(r int) float64    { return g.y[r] }
func (g *gridXYZ) Z(c, r int) float64 { return g.z(g.v.At(0, g.rows[r], g.cols[c])) }

// Min and Max skip missing values.
func (g *gridXYZ) Min() float64 {
	lo, _ := g.limits()
	return lo
}

func (g *gridXYZ) Max() float64 {
	_, hi := g.limits()
	return hi
}

// limits returns a non-empty range holding every value.
func (g *gridXYZ) limits() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	nc, nr := g.Dims()
	for c := 0; c < nc; c++ {
		for r := 0; r < nr; r++ {
			z := g.Z(c, r)
			if math.IsNaN(z) {
				continue
			}
			lo, hi = math.Min(lo, z), math.Max(hi, z)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// fieldXY presents the depth-averaged velocity of every
// density-th cell as a vector field.
type fieldXY struct {
	g       *gridXYZ
	u, v    *ggs.Variable
	density int
}

func (f *fieldXY) Dims() (c, r int) {
	nc, nr := f.g.Dims()
	return (nc + f.density - 1) / f.density, (nr + f.density - 1) / f.density
}
func (f *fieldXY) X(c int) float64 { return f.g.X(c * f.density) }
func (f *fieldXY) Y(r int) float64 { return f.g.Y(r * f.density) }

func (f *fieldXY) Vector(c, r int) plotter.XY {
	j, i := f.g.rows[r*f.density], f.g.cols[c*f.density]
	u, v := f.u.At(0, j, i), f.v.At(0, j, i)
	if !u.Valid || !v.Valid {
		return plotter.XY{}
	}
	return plotter.XY{X: u.V, Y: v.V}
}

// addVectors draws the depth-averaged velocity on p.
func addVectors(p *plot.Plot, ds *ggs.Dataset, g *gridXYZ, density int) error {
	if density <= 0 {
		return nil
	}
	u, err := ds.Var(ggs.UDepthAvg)
	if err != nil {
		return err
	}
	v, err := ds.Var(ggs.VDepthAvg)
	if err != nil {
		return err
	}
	fxy := &fieldXY{g: g, u: u, v: v, density: density}
	nc, nr := fxy.Dims()
	still := true
	for c := 0; c < nc && still; c++ {
		for r := 0; r < nr; r++ {
			if vec := fxy.Vector(c, r); vec.X != 0 || vec.Y != 0 {
				still = false
				break
			}
		}
	}
	if still {
		return nil
	}
	f := plotter.NewField(fxy)
	f.LineStyle.Width = vg.Points(0.5)
	p.Add(f)
	return nil
}

// addRoute draws the waypoints and the legs between them on p.
func addRoute(p *plot.Plot, waypoints []route.Waypoint) error {
	if len(waypoints) == 0 {
		return nil
	}
	pts := make(plotter.XYs, len(waypoints))
	for i, w := range waypoints {
		pts[i] = plotter.XY{X: w.Lon, Y: w.Lat}
	}
	if len(pts) > 1 {
		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("ggsplot: route: %v", err)
		}
		l.Color = color.RGBA{R: 255, G: 20, B: 147, A: 255}
		l.Width = vg.Points(2)
		p.Add(l)
		p.Legend.Add("Route", l)
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("ggsplot: route: %v", err)
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Color = color.Black
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(s)
	return nil
}

// swatch is a legend entry filled with one color.
type swatch struct{ color.Color }

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		c.Min,
		{X: c.Max.X, Y: c.Min.Y},
		c.Max,
		{X: c.Min.X, Y: c.Max.Y},
	}
	c.FillPolygon(s.Color, pts)
}
