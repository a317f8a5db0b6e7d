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
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Output variable names.
const (
	UDepthAvg   = "u_depth_avg"
	VDepthAvg   = "v_depth_avg"
	MagDepthAvg = "mag_depth_avg"
	DirDepthAvg = "dir_depth_avg"

	UBinAvg   = "u_bin_avg"
	VBinAvg   = "v_bin_avg"
	MagBinAvg = "mag_bin_avg"
	DirBinAvg = "dir_bin_avg"

	// BinDim names the 1-meter bin dimension and coordinate of
	// bin-averaged results.
	BinDim = "bin"
)

// Result holds the two views produced by Broadcast.
type Result struct {
	Provenance Provenance

	// MaxBins is the number of depth bins allocated for each cell and
	// ConfigBins is the number derived from the configured maximum depth.
	MaxBins, ConfigBins int

	// DepthAverage has dimensions (time, row, col) and BinAverage
	// has dimensions (time, depth, row, col).
	DepthAverage, BinAverage *Dataset
}

// MaxBins returns the number of 1-meter bins needed to cover depths.
func MaxBins(depths []float64) int { return binsTo(floats.Max(depths)) }

// binsTo returns the number of 1-meter bins from the surface down to
// and including the deepest level.
func binsTo(deepest float64) int {
	n := int(math.Ceil(deepest)) + 1
	if n < 1 {
		return 1
	}
	return n
}

// ConfigBins returns the number of bins covering a glider diving to
// maxDepth meters.
func ConfigBins(maxDepth float64) int { return int(maxDepth) + 1 }

// Broadcast reduces every water column of d and assembles the results
// into depth-averaged and bin-averaged datasets. maxDepth is the
// maximum dive depth of the glider, in meters.
func Broadcast(ctx context.Context, d *ModelData, maxDepth float64) (*Result, error) {
	if err := d.Check(); err != nil {
		return nil, err
	}
	if math.IsNaN(maxDepth) || math.IsInf(maxDepth, 0) || maxDepth <= 0 {
		return nil, fmt.Errorf("ggs: maximum depth is %g but should be a positive number", maxDepth)
	}
	maxBins := binsTo(d.MaxDepth())
	configBins := ConfigBins(maxDepth)
	ny, nx := d.Grid.Shape()

	var avg, bin [4]*Field
	for k := range avg {
		avg[k] = NewField(1, ny, nx)
		bin[k] = NewField(1, maxBins, ny, nx)
	}

	nprocs := runtime.GOMAXPROCS(-1)
	n := ny * nx
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for c := pp; c < n; c += nprocs {
				if ctx.Err() != nil {
					return
				}
				j, i := c/nx, c%nx
				b, a := Reduce(d.Profile(j, i), maxBins, configBins)
				avg[0].Set(a.U, 0, j, i)
				avg[1].Set(a.V, 0, j, i)
				avg[2].Set(a.Speed, 0, j, i)
				avg[3].Set(a.Dir, 0, j, i)
				for z := 0; z < maxBins; z++ {
					bin[0].Set(b.U[z], 0, z, j, i)
					bin[1].Set(b.V[z], 0, z, j, i)
					bin[2].Set(b.Speed[z], 0, z, j, i)
					bin[3].Set(b.Dir[z], 0, z, j, i)
				}
			}
		}(pp)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row, col := d.Grid.Dims()
	coords := d.Grid.Coordinates()

	da := &Dataset{
		Comment:    "Depth averaged currents",
		Provenance: d.Provenance,
		Dims:       []Dim{{recordDim, 1}, {row, ny}, {col, nx}},
		Coords:     coords,
	}
	dims := []string{recordDim, row, col}
	da.AddVariable(UDepthAvg, dims, "Depth averaged eastward current velocity", "m/s", avg[0])
	da.AddVariable(VDepthAvg, dims, "Depth averaged northward current velocity", "m/s", avg[1])
	da.AddVariable(MagDepthAvg, dims, "Depth averaged current speed", "m/s", avg[2])
	da.AddVariable(DirDepthAvg, dims, "Depth averaged current direction, counterclockwise from east", "degrees", avg[3])

	depth := CoordVar{
		Name:        BinDim,
		Dims:        []string{BinDim},
		Units:       "m",
		Description: "Depth of the 1-meter bin",
		Values:      make([]float64, maxBins),
	}
	for z := range depth.Values {
		depth.Values[z] = float64(z)
	}
	ba := &Dataset{
		Comment:    "Bin averaged currents",
		Provenance: d.Provenance,
		Dims:       []Dim{{recordDim, 1}, {BinDim, maxBins}, {row, ny}, {col, nx}},
		Coords:     append([]CoordVar{depth}, d.Grid.Coordinates()...),
	}
	dims = []string{recordDim, BinDim, row, col}
	ba.AddVariable(UBinAvg, dims, "Bin averaged eastward current velocity", "m/s", bin[0])
	ba.AddVariable(VBinAvg, dims, "Bin averaged northward current velocity", "m/s", bin[1])
	ba.AddVariable(MagBinAvg, dims, "Bin averaged current speed", "m/s", bin[2])
	ba.AddVariable(DirBinAvg, dims, "Bin averaged current direction, counterclockwise from east", "degrees", bin[3])

	return &Result{
		Provenance:   d.Provenance,
		MaxBins:      maxBins,
		ConfigBins:   configBins,
		DepthAverage: da,
		BinAverage:   ba,
	}, nil
}

// Cell returns the depth-averaged current at row j, column i.
func (r *Result) Cell(j, i int) DepthAverage {
	var o DepthAverage
	for _, x := range []struct {
		name string
		v    *Value
	}{
		{UDepthAvg, &o.U}, {VDepthAvg, &o.V}, {MagDepthAvg, &o.Speed}, {DirDepthAvg, &o.Dir},
	} {
		if v, ok := r.DepthAverage.Data[x.name]; ok {
			*x.v = v.At(0, j, i)
		}
	}
	return o
}

// BinProfile returns the bin-averaged series at row j, column i.
func (r *Result) BinProfile(j, i int) *BinSeries {
	b := newBinSeries(r.MaxBins)
	for _, x := range []struct {
		name string
		s    []Value
	}{
		{UBinAvg, b.U}, {VBinAvg, b.V}, {MagBinAvg, b.Speed}, {DirBinAvg, b.Dir},
	} {
		v, ok := r.BinAverage.Data[x.name]
		if !ok {
			continue
		}
		for z := range x.s {
			x.s[z] = v.At(0, z, j, i)
		}
	}
	return b
}

// Summary describes the depth-averaged current speed over a grid.
type Summary struct {
	Cells, ValidCells int
	Min, Mean, Max    float64
}

func (s Summary) String() string {
	if s.ValidCells == 0 {
		return fmt.Sprintf("%d cells, none with data", s.Cells)
	}
	return fmt.Sprintf("%d of %d cells with data; speed min %.3f, mean %.3f, max %.3f m/s",
		s.ValidCells, s.Cells, s.Min, s.Mean, s.Max)
}

// Summary returns statistics of the depth-averaged speed.
func (r *Result) Summary() Summary {
	v, ok := r.DepthAverage.Data[MagDepthAvg]
	if !ok {
		return Summary{}
	}
	s := Summary{Cells: len(v.Data.Elements)}
	var x []float64
	for k, e := range v.Data.Elements {
		if v.Valid == nil || v.Valid[k] {
			x = append(x, e)
		}
	}
	s.ValidCells = len(x)
	if len(x) > 0 {
		s.Min, s.Max = floats.Min(x), floats.Max(x)
		s.Mean = stat.Mean(x, nil)
	}
	return s
}
