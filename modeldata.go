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
	"fmt"
	"math"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// Provenance records where a result came from.
type Provenance struct {
	ModelName string
	ValidTime time.Time

	// Labels are extra global attributes written with the results,
	// such as the glider name.
	Labels map[string]string
}

// Field is a gridded variable with an explicit validity mask.
type Field struct {
	Data *sparse.DenseArray

	// Valid has one entry per element of Data. A nil Valid means
	// every element is valid.
	Valid []bool
}

// NewField returns an all-missing field with the given shape.
func NewField(dims ...int) *Field {
	d := sparse.ZerosDense(dims...)
	return &Field{Data: d, Valid: make([]bool, len(d.Elements))}
}

// At returns the value at index.
func (f *Field) At(index ...int) Value {
	k := f.Data.Index1d(index...)
	if f.Valid != nil && !f.Valid[k] {
		return Missing
	}
	return Some(f.Data.Elements[k])
}

// Set sets the value at index.
func (f *Field) Set(v Value, index ...int) {
	k := f.Data.Index1d(index...)
	f.setIndex1d(k, v)
}

func (f *Field) setIndex1d(k int, v Value) {
	if f.Valid == nil {
		f.Valid = make([]bool, len(f.Data.Elements))
		for i := range f.Valid {
			f.Valid[i] = true
		}
	}
	f.Data.Elements[k] = v.V
	f.Valid[k] = v.Valid
}

// Shape returns the shape of f.
func (f *Field) Shape() []int { return f.Data.Shape }

// ModelData holds the currents of one forecast time of an ocean model.
type ModelData struct {
	Provenance Provenance

	// Depths holds the depth of each level, in meters.
	Depths []float64

	// U and V hold the eastward and northward velocities, in m/s,
	// with shape (depth, ny, nx).
	U, V *Field

	// Grid holds the horizontal coordinates.
	Grid GridAdapter
}

// Check returns an error if the arrays in d are inconsistent with
// each other.
func (d *ModelData) Check() error {
	if d.Grid == nil {
		return fmt.Errorf("ggs: model data has no grid")
	}
	if d.U == nil || d.V == nil {
		return fmt.Errorf("ggs: model data is missing u or v")
	}
	if len(d.Depths) == 0 {
		return fmt.Errorf("ggs: model data has no depth levels")
	}
	for _, z := range d.Depths {
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return fmt.Errorf("ggs: model data has non-finite depth %g", z)
		}
	}
	ny, nx := d.Grid.Shape()
	want := []int{len(d.Depths), ny, nx}
	for name, f := range map[string]*Field{"u": d.U, "v": d.V} {
		s := f.Shape()
		if len(s) != 3 || s[0] != want[0] || s[1] != want[1] || s[2] != want[2] {
			return fmt.Errorf("ggs: model variable %s has shape %v but should be %v", name, s, want)
		}
		if f.Valid != nil && len(f.Valid) != len(f.Data.Elements) {
			return fmt.Errorf("ggs: model variable %s has %d validity flags for %d values",
				name, len(f.Valid), len(f.Data.Elements))
		}
	}
	return nil
}

// MaxDepth returns the deepest level in d.
func (d *ModelData) MaxDepth() float64 { return floats.Max(d.Depths) }

// Profile returns the vertical profile at row j, column i.
func (d *ModelData) Profile(j, i int) Profile {
	nz := len(d.Depths)
	p := Profile{
		Depths: d.Depths,
		U:      make([]Value, nz),
		V:      make([]Value, nz),
	}
	for k := 0; k < nz; k++ {
		p.U[k] = d.U.At(k, j, i)
		p.V[k] = d.V.At(k, j, i)
	}
	return p
}

// Subset returns the part of d that lies within b, where b holds
// longitude as X and latitude as Y. The result keeps the full
// rectangular index window around the matching cells.
func (d *ModelData) Subset(b *geom.Bounds) (*ModelData, error) {
	j0, j1, i0, i1, ok := window(d.Grid, b)
	if !ok {
		return nil, fmt.Errorf("ggs: no %s grid cells within bounds %+v; the grid covers %+v",
			d.Provenance.ModelName, *b, *Bounds(d.Grid))
	}
	o := &ModelData{
		Provenance: d.Provenance,
		Depths:     append([]float64{}, d.Depths...),
		Grid:       d.Grid.Subset(j0, j1, i0, i1),
	}
	o.U = subsetField(d.U, j0, j1, i0, i1)
	o.V = subsetField(d.V, j0, j1, i0, i1)
	return o, nil
}

func subsetField(f *Field, j0, j1, i0, i1 int) *Field {
	nz := f.Shape()[0]
	o := NewField(nz, j1-j0, i1-i0)
	for k := 0; k < nz; k++ {
		for j := j0; j < j1; j++ {
			for i := i0; i < i1; i++ {
				o.Set(f.At(k, j, i), k, j-j0, i-i0)
			}
		}
	}
	return o
}
