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
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"
	"sync"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/ctessum/cdf"
)

// ncVar is a variable read from an input file, with
// missing values set to NaN and packing removed.
type ncVar struct {
	name   string
	dims   []string
	shape  []int
	values []float64
}

// ncReader reads variables out of a netcdf file.
type ncReader interface {
	// read reads variable v. If the first dimension of v is named
	// timeDim and v has other dimensions, only the first record
	// is read.
	read(v, timeDim string) (*ncVar, error)

	// attribute returns attribute a of variable v, or the global
	// attribute a if v is empty. It returns nil if there is no
	// such attribute.
	attribute(v, a string) interface{}

	hasVar(v string) bool
	Close() error
}

var (
	classicMagic = []byte("CDF")
	hdf5Magic    = []byte("\x89HDF")
)

// openNC opens a netcdf classic or netcdf-4 (HDF5) file.
func openNC(path string) (ncReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	magic := make([]byte, 4)
	if _, err = io.ReadFull(f, magic); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading %s: %v", path, err)
	}
	switch {
	case bytes.HasPrefix(magic, classicMagic):
		ff, err := cdf.Open(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening %s: %v", path, err)
		}
		return &cdfReader{f: f, ff: ff}, nil
	case bytes.Equal(magic, hdf5Magic):
		f.Close()
		g, err := netcdf.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %v", path, err)
		}
		return &hdfReader{g: g}, nil
	default:
		f.Close()
		return nil, fmt.Errorf("%s is not a netcdf file", path)
	}
}

type cdfReader struct {
	f  *os.File
	ff *cdf.File
}

func (r *cdfReader) Close() error { return r.f.Close() }

func (r *cdfReader) numRecs() int {
	fi, err := r.f.Stat()
	if err != nil {
		return -1
	}
	return int(r.ff.Header.NumRecs(fi.Size()))
}

func (r *cdfReader) hasVar(v string) bool { return r.ff.Header.Lengths(v) != nil }

func (r *cdfReader) attribute(v, a string) interface{} {
	if v != "" && !r.hasVar(v) {
		return nil
	}
	return r.ff.Header.GetAttribute(v, a)
}

func (r *cdfReader) read(v, timeDim string) (*ncVar, error) {
	if !r.hasVar(v) {
		return nil, fmt.Errorf("variable %s not in file", v)
	}
	dims := r.ff.Header.Dimensions(v)
	lengths := r.ff.Header.Lengths(v)
	begin, end := make([]int, len(dims)), make([]int, len(dims))
	var shape []int
	n := 1
	for i, l := range lengths {
		if l == 0 { // record dimension
			if l = r.numRecs(); l < 1 {
				return nil, fmt.Errorf("variable %s has no records", v)
			}
		}
		if i == 0 && len(dims) > 1 && dims[0] == timeDim {
			continue
		}
		end[i] = l - 1
		shape = append(shape, l)
		n *= l
	}
	if len(shape) < len(dims) {
		dims = dims[1:]
	}
	rr := r.ff.Reader(v, begin, end)
	buf := rr.Zero(n)
	if _, err := rr.Read(buf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading %s: %v", v, err)
	}
	values, err := toFloat64s(buf)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v", v, err)
	}
	o := &ncVar{name: v, dims: dims, shape: shape, values: values}
	unpack(o, r.attribute)
	return o, nil
}

type hdfReader struct {
	mu sync.Mutex
	g  api.Group
}

func (r *hdfReader) Close() error {
	r.g.Close()
	return nil
}

func (r *hdfReader) hasVar(v string) bool {
	for _, name := range r.g.ListVariables() {
		if name == v {
			return true
		}
	}
	return false
}

func (r *hdfReader) attribute(v, a string) interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	var attrs api.AttributeMap
	if v == "" {
		attrs = r.g.Attributes()
	} else {
		vg, err := r.g.GetVarGetter(v)
		if err != nil {
			return nil
		}
		attrs = vg.Attributes()
	}
	if attrs == nil {
		return nil
	}
	val, ok := attrs.Get(a)
	if !ok {
		return nil
	}
	return val
}

func (r *hdfReader) read(v, timeDim string) (*ncVar, error) {
	r.mu.Lock()
	vg, err := r.g.GetVarGetter(v)
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("reading %s: %v", v, err)
	}
	dims := vg.Dimensions()
	timeSlice := len(dims) > 1 && dims[0] == timeDim
	var vals interface{}
	if timeSlice {
		// Only the first record is needed.
		vals, err = vg.GetSlice(0, 1)
	} else {
		vals, err = vg.Values()
	}
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v", v, err)
	}
	data := reflect.ValueOf(vals)
	if timeSlice {
		if data.Kind() != reflect.Slice || data.Len() == 0 {
			return nil, fmt.Errorf("variable %s has no records", v)
		}
		data = data.Index(0)
		dims = dims[1:]
	}
	shape, values, err := flatten(data)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v", v, err)
	}
	o := &ncVar{name: v, dims: dims, shape: shape, values: values}
	unpack(o, r.attribute)
	return o, nil
}

// flatten converts nested slices of numbers to a flat slice
// in row-major order.
func flatten(v reflect.Value) (shape []int, values []float64, err error) {
	for w := v; w.Kind() == reflect.Slice; w = w.Index(0) {
		shape = append(shape, w.Len())
		if w.Len() == 0 {
			break
		}
	}
	var walk func(reflect.Value) error
	walk = func(w reflect.Value) error {
		switch w.Kind() {
		case reflect.Slice:
			for i := 0; i < w.Len(); i++ {
				if err := walk(w.Index(i)); err != nil {
					return err
				}
			}
		case reflect.Float32, reflect.Float64:
			values = append(values, w.Float())
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			values = append(values, float64(w.Int()))
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			values = append(values, float64(w.Uint()))
		default:
			return fmt.Errorf("unsupported data type %s", w.Type())
		}
		return nil
	}
	err = walk(v)
	return
}

// attrFloat returns the first number held by attribute value a.
func attrFloat(a interface{}) (float64, bool) {
	if a == nil {
		return 0, false
	}
	v := reflect.ValueOf(a)
	if v.Kind() == reflect.Slice {
		if v.Len() == 0 {
			return 0, false
		}
		v = v.Index(0)
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	}
	return 0, false
}

// attrString returns attribute value a if it is text.
func attrString(a interface{}) string {
	switch s := a.(type) {
	case string:
		return s
	case []byte:
		return string(bytes.TrimRight(s, "\x00"))
	}
	return ""
}

// hugeValue is the magnitude above which numbers are treated as
// undeclared fill values.
const hugeValue = 1e20

// unpack replaces fill values with NaN and applies
// scale_factor and add_offset.
func unpack(o *ncVar, attr func(v, a string) interface{}) {
	var fills []float64
	for _, a := range []string{"_FillValue", "missing_value"} {
		if f, ok := attrFloat(attr(o.name, a)); ok {
			fills = append(fills, f)
		}
	}
	scale, ok := attrFloat(attr(o.name, "scale_factor"))
	if !ok {
		scale = 1
	}
	offset, _ := attrFloat(attr(o.name, "add_offset"))
	for i, x := range o.values {
		missing := math.IsNaN(x) || math.Abs(x) >= hugeValue
		for _, f := range fills {
			if x == f || float32(x) == float32(f) {
				missing = true
			}
		}
		if missing {
			o.values[i] = math.NaN()
			continue
		}
		o.values[i] = x*scale + offset
	}
}
