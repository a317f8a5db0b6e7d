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
	"sort"
	"strconv"

	"gonum.org/v1/gonum/interp"
)

// Value is a number that may be missing.
type Value struct {
	V     float64
	Valid bool
}

// Missing is a Value with no data.
var Missing = Value{}

// Some returns a valid Value holding v.
func Some(v float64) Value { return Value{V: v, Valid: true} }

// FromFloat converts a raw model number to a Value. NaN and
// infinite numbers are missing.
func FromFloat(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing
	}
	return Some(f)
}

// Float returns v as a float64, with missing values returned as NaN.
func (v Value) Float() float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.V
}

func (v Value) String() string {
	if !v.Valid {
		return "--"
	}
	return strconv.FormatFloat(v.V, 'g', 6, 64)
}

// Profile is one vertical column of current velocity samples at a
// single horizontal location. Depths are in meters and need not be
// sorted or unique; U and V are in m/s.
type Profile struct {
	Depths []float64
	U, V   []Value
}

func (p Profile) check() error {
	if len(p.U) != len(p.Depths) || len(p.V) != len(p.Depths) {
		return fmt.Errorf("ggs: profile has %d depths but %d u and %d v values",
			len(p.Depths), len(p.U), len(p.V))
	}
	return nil
}

// BinSeries holds a profile reduced to 1-meter bins. Bin i represents
// the depth interval centered at i meters.
type BinSeries struct {
	U, V, Speed, Dir []Value
}

func newBinSeries(n int) *BinSeries {
	return &BinSeries{
		U:     make([]Value, n),
		V:     make([]Value, n),
		Speed: make([]Value, n),
		Dir:   make([]Value, n),
	}
}

// BinCount returns the number of allocated bins.
func (b *BinSeries) BinCount() int { return len(b.U) }

// DepthAverage is the depth-averaged current of one profile.
type DepthAverage struct {
	U, V, Speed, Dir Value
}

// TargetBins returns the number of bins that are filled and averaged
// for a profile whose deepest valid sample is at maxValidDepth.
func TargetBins(maxValidDepth float64, configBins int) int {
	n := int(math.Floor(maxValidDepth)) + 2
	if configBins < n {
		return configBins
	}
	return n
}

// Reduce interpolates p onto maxBins 1-meter bins and averages the
// first configBins of them (fewer if the valid data is shallower).
// Profiles with no valid samples return all-missing results.
// Reduce panics if the lengths of the slices in p differ or
// maxBins < 1.
func Reduce(p Profile, maxBins, configBins int) (*BinSeries, DepthAverage) {
	if err := p.check(); err != nil {
		panic(err)
	}
	if maxBins < 1 {
		panic(fmt.Errorf("ggs: Reduce: maxBins=%d but should be >= 1", maxBins))
	}
	bins := newBinSeries(maxBins)

	depths, us, vs := p.validSamples()
	if len(depths) == 0 {
		return bins, DepthAverage{}
	}
	maxValid := depths[len(depths)-1]
	target := TargetBins(maxValid, configBins)
	if target > maxBins {
		target = maxBins
	}

	uFit := fitProfile(depths, us)
	vFit := fitProfile(depths, vs)
	for i := 0; i < target; i++ {
		z := float64(i)
		// The bin holding the deepest valid sample is left missing.
		if z >= maxValid {
			break
		}
		u, v := uFit.Predict(z), vFit.Predict(z)
		bins.U[i] = Some(u)
		bins.V[i] = Some(v)
		bins.Speed[i] = Some(math.Hypot(u, v))
		bins.Dir[i] = Some(Direction(u, v))
	}

	return bins, DepthAverage{
		U:     windowMean(bins.U, target),
		V:     windowMean(bins.V, target),
		Speed: windowMean(bins.Speed, target),
		Dir:   windowMean(bins.Dir, target),
	}
}

// Direction returns the angle of the vector (u, v) in degrees
// from due east, in [0, 360).
func Direction(u, v float64) float64 {
	d := math.Mod(math.Atan2(v, u)*180/math.Pi+360, 360)
	if d >= 360 {
		d -= 360
	}
	return d
}

// windowMean sums the valid values in the first n bins and divides
// by n. Missing bins count as zero.
func windowMean(bins []Value, n int) Value {
	if n <= 0 {
		return Missing
	}
	var sum float64
	for _, b := range bins[:n] {
		if b.Valid {
			sum += b.V
		}
	}
	return Some(sum / float64(n))
}

type sample struct{ z, u, v float64 }

// validSamples returns the samples of p with finite depth and both
// components present and finite, sorted by depth. Samples sharing a depth are
// averaged together.
func (p Profile) validSamples() (depths, us, vs []float64) {
	s := make([]sample, 0, len(p.Depths))
	for k, z := range p.Depths {
		u, v := p.U[k], p.V[k]
		if !u.Valid || !v.Valid || math.IsNaN(z) || math.IsInf(z, 0) ||
			math.IsNaN(u.V) || math.IsNaN(v.V) || math.IsInf(u.V, 0) || math.IsInf(v.V, 0) {
			continue
		}
		s = append(s, sample{z: z, u: u.V, v: v.V})
	}
	sort.SliceStable(s, func(i, j int) bool { return s[i].z < s[j].z })

	for i := 0; i < len(s); {
		j := i + 1
		su, sv := s[i].u, s[i].v
		for j < len(s) && s[j].z == s[i].z {
			su += s[j].u
			sv += s[j].v
			j++
		}
		n := float64(j - i)
		depths = append(depths, s[i].z)
		us = append(us, su/n)
		vs = append(vs, sv/n)
		i = j
	}
	return
}

// fitProfile returns a piecewise-linear interpolant of ys over the
// strictly increasing xs, flat outside the sampled range.
func fitProfile(xs, ys []float64) interp.Predictor {
	if len(xs) == 1 {
		return interp.Constant(ys[0])
	}
	pl := new(interp.PiecewiseLinear)
	pl.Fit(xs, ys)
	return pl
}
