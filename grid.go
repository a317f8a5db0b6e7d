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

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// CoordVar is a coordinate variable emitted alongside gridded results.
type CoordVar struct {
	Name        string
	Dims        []string
	Units       string
	Description string
	Values      []float64
}

// GridAdapter holds the coordinate conventions of one kind of
// horizontal model grid.
type GridAdapter interface {
	// Dims returns the names of the row and column dimensions.
	Dims() (row, col string)

	// Shape returns the number of rows and columns.
	Shape() (ny, nx int)

	// LatLon returns the coordinates of the cell at row j, column i.
	LatLon(j, i int) (lat, lon float64)

	// Coordinates returns the coordinate variables of the grid.
	Coordinates() []CoordVar

	// Nearest returns the indices of the cell closest to lat, lon.
	Nearest(lat, lon float64) (j, i int)

	// Subset returns the grid made of rows [j0, j1) and columns [i0, i1).
	Subset(j0, j1, i0, i1 int) GridAdapter
}

// Curvilinear is a grid with separate y and x index dimensions and
// two-dimensional latitude and longitude fields, as used by RTOFS.
type Curvilinear struct {
	// Lat and Lon have shape (ny, nx).
	Lat, Lon *sparse.DenseArray
}

// Dims implements GridAdapter.
func (c *Curvilinear) Dims() (row, col string) { return "y", "x" }

// Shape implements GridAdapter.
func (c *Curvilinear) Shape() (ny, nx int) { return c.Lat.Shape[0], c.Lat.Shape[1] }

// LatLon implements GridAdapter.
func (c *Curvilinear) LatLon(j, i int) (lat, lon float64) {
	return c.Lat.Get(j, i), c.Lon.Get(j, i)
}

// Coordinates implements GridAdapter.
func (c *Curvilinear) Coordinates() []CoordVar {
	return []CoordVar{
		{Name: "lat", Dims: []string{"y", "x"}, Units: "degrees_north", Description: "Latitude",
			Values: append([]float64{}, c.Lat.Elements...)},
		{Name: "lon", Dims: []string{"y", "x"}, Units: "degrees_east", Description: "Longitude",
			Values: append([]float64{}, c.Lon.Elements...)},
	}
}

// Nearest implements GridAdapter. It minimizes the squared difference
// in degrees over the whole grid.
func (c *Curvilinear) Nearest(lat, lon float64) (j, i int) {
	best := math.Inf(1)
	ny, nx := c.Shape()
	for jj := 0; jj < ny; jj++ {
		for ii := 0; ii < nx; ii++ {
			dLat := c.Lat.Get(jj, ii) - lat
			dLon := c.Lon.Get(jj, ii) - lon
			if d := dLat*dLat + dLon*dLon; d < best {
				best, j, i = d, jj, ii
			}
		}
	}
	return j, i
}

// Subset implements GridAdapter.
func (c *Curvilinear) Subset(j0, j1, i0, i1 int) GridAdapter {
	return &Curvilinear{
		Lat: subset2D(c.Lat, j0, j1, i0, i1),
		Lon: subset2D(c.Lon, j0, j1, i0, i1),
	}
}

func subset2D(a *sparse.DenseArray, j0, j1, i0, i1 int) *sparse.DenseArray {
	o := sparse.ZerosDense(j1-j0, i1-i0)
	for j := j0; j < j1; j++ {
		for i := i0; i < i1; i++ {
			o.Set(a.Get(j, i), j-j0, i-i0)
		}
	}
	return o
}

// Regular is a grid with one-dimensional latitude and longitude axes,
// as used by CMEMS and GOFS.
type Regular struct {
	Lat, Lon []float64
}

// Dims implements GridAdapter.
func (r *Regular) Dims() (row, col string) { return "lat", "lon" }

// Shape implements GridAdapter.
func (r *Regular) Shape() (ny, nx int) { return len(r.Lat), len(r.Lon) }

// LatLon implements GridAdapter.
func (r *Regular) LatLon(j, i int) (lat, lon float64) { return r.Lat[j], r.Lon[i] }

// Coordinates implements GridAdapter.
func (r *Regular) Coordinates() []CoordVar {
	return []CoordVar{
		{Name: "lat", Dims: []string{"lat"}, Units: "degrees_north", Description: "Latitude",
			Values: append([]float64{}, r.Lat...)},
		{Name: "lon", Dims: []string{"lon"}, Units: "degrees_east", Description: "Longitude",
			Values: append([]float64{}, r.Lon...)},
	}
}

// Nearest implements GridAdapter.
func (r *Regular) Nearest(lat, lon float64) (j, i int) {
	return nearestIndex(r.Lat, lat), nearestIndex(r.Lon, lon)
}

// Subset implements GridAdapter.
func (r *Regular) Subset(j0, j1, i0, i1 int) GridAdapter {
	return &Regular{
		Lat: append([]float64{}, r.Lat[j0:j1]...),
		Lon: append([]float64{}, r.Lon[i0:i1]...),
	}
}

func nearestIndex(axis []float64, x float64) int {
	best, idx := math.Inf(1), 0
	for k, a := range axis {
		if d := math.Abs(a - x); d < best {
			best, idx = d, k
		}
	}
	return idx
}

// Bounds returns the lat/lon extent of g, with longitude as X and
// latitude as Y.
func Bounds(g GridAdapter) *geom.Bounds {
	b := geom.NewBounds()
	ny, nx := g.Shape()
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			lat, lon := g.LatLon(j, i)
			if math.IsNaN(lat) || math.IsNaN(lon) {
				continue
			}
			b.Extend(geom.NewBoundsPoint(geom.Point{X: lon, Y: lat}))
		}
	}
	return b
}

// window returns the smallest index window of g holding every cell
// inside b. ok is false if no cell is inside b.
func window(g GridAdapter, b *geom.Bounds) (j0, j1, i0, i1 int, ok bool) {
	ny, nx := g.Shape()
	j0, i0 = ny, nx
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			lat, lon := g.LatLon(j, i)
			if lon < b.Min.X || lon > b.Max.X || lat < b.Min.Y || lat > b.Max.Y {
				continue
			}
			ok = true
			if j < j0 {
				j0 = j
			}
			if j+1 > j1 {
				j1 = j + 1
			}
			if i < i0 {
				i0 = i
			}
			if i+1 > i1 {
				i1 = i + 1
			}
		}
	}
	return
}
