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
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

const (
	// DateTimeFormat is the layout of the model_datetime attribute.
	DateTimeFormat = "2006-01-02T15:04:05Z"

	// fillValue marks missing values in written files. It is the
	// netCDF default fill value for floats.
	fillValue = 9.9692099683868690e+36

	recordDim = "time"
	timeUnits = "hours since 1970-01-01 00:00:00"
)

// Global attributes managed by Dataset itself.
var reservedAttributes = map[string]bool{
	"comment":        true,
	"model_name":     true,
	"model_datetime": true,
}

// Dim is a named dimension.
type Dim struct {
	Name string
	Len  int
}

// Variable is a named gridded variable of a Dataset.
type Variable struct {
	Dims        []string // netcdf dimensions for this variable
	Description string
	Units       string
	*Field
}

// Dataset is a set of gridded variables sharing dimensions,
// coordinates and provenance. Datasets returned by Broadcast and
// LoadDataset should be treated as read-only.
type Dataset struct {
	Comment    string
	Provenance Provenance

	// Dims lists the dimensions in file order. The "time"
	// dimension, if present, is written as the record dimension.
	Dims []Dim

	Coords []CoordVar

	// Data holds the variables, with the keys being the variable names.
	Data map[string]*Variable
}

// AddVariable adds data for a new variable to d.
func (d *Dataset) AddVariable(name string, dims []string, description, units string, data *Field) {
	if d.Data == nil {
		d.Data = make(map[string]*Variable)
	}
	d.Data[name] = &Variable{
		Dims:        dims,
		Description: description,
		Units:       units,
		Field:       data,
	}
}

// Var returns the named variable.
func (d *Dataset) Var(name string) (*Variable, error) {
	v, ok := d.Data[name]
	if !ok {
		return nil, fmt.Errorf("ggs: dataset has no variable %s", name)
	}
	return v, nil
}

// Coord returns the named coordinate variable, or nil if there is none.
func (d *Dataset) Coord(name string) *CoordVar {
	for i := range d.Coords {
		if d.Coords[i].Name == name {
			return &d.Coords[i]
		}
	}
	return nil
}

// DimLen returns the length of the named dimension, or -1 if
// there is no such dimension.
func (d *Dataset) DimLen(name string) int {
	for _, dim := range d.Dims {
		if dim.Name == name {
			return dim.Len
		}
	}
	return -1
}

// Grid rebuilds the horizontal grid from the coordinate variables.
func (d *Dataset) Grid() (GridAdapter, error) {
	lat, lon := d.Coord("lat"), d.Coord("lon")
	if lat == nil || lon == nil {
		return nil, fmt.Errorf("ggs: dataset has no lat/lon coordinates")
	}
	if len(lat.Dims) == 1 {
		return &Regular{Lat: lat.Values, Lon: lon.Values}, nil
	}
	ny, nx := d.DimLen(lat.Dims[0]), d.DimLen(lat.Dims[1])
	if ny*nx != len(lat.Values) || ny*nx != len(lon.Values) {
		return nil, fmt.Errorf("ggs: curvilinear coordinates do not match %dx%d grid", ny, nx)
	}
	g := &Curvilinear{Lat: sparse.ZerosDense(ny, nx), Lon: sparse.ZerosDense(ny, nx)}
	copy(g.Lat.Elements, lat.Values)
	copy(g.Lon.Elements, lon.Values)
	return g, nil
}

// Write writes d to netcdf file w.
func (d *Dataset) Write(w *os.File) error {
	names := make([]string, len(d.Dims))
	lengths := make([]int, len(d.Dims))
	hasRecord := false
	for i, dim := range d.Dims {
		names[i], lengths[i] = dim.Name, dim.Len
		if dim.Name == recordDim {
			lengths[i] = 0
			hasRecord = true
		}
	}
	h := cdf.NewHeader(names, lengths)
	addText(h, "", "comment", d.Comment)
	addText(h, "", "model_name", d.Provenance.ModelName)
	addText(h, "", "model_datetime", d.Provenance.ValidTime.UTC().Format(DateTimeFormat))

	labels := make([]string, 0, len(d.Provenance.Labels))
	for k := range d.Provenance.Labels {
		if !reservedAttributes[k] {
			labels = append(labels, k)
		}
	}
	sort.Strings(labels)
	for _, k := range labels {
		addText(h, "", k, d.Provenance.Labels[k])
	}

	if hasRecord {
		h.AddVariable(recordDim, []string{recordDim}, []float64{0})
		h.AddAttribute(recordDim, "units", timeUnits)
	}
	for _, c := range d.Coords {
		h.AddVariable(c.Name, c.Dims, []float64{0})
		addText(h, c.Name, "units", c.Units)
		addText(h, c.Name, "long_name", c.Description)
	}

	// Sort the names so they write in the same order every time.
	vars := make([]string, 0, len(d.Data))
	for n := range d.Data {
		vars = append(vars, n)
	}
	sort.Strings(vars)
	for _, name := range vars {
		v := d.Data[name]
		h.AddVariable(name, v.Dims, []float32{0})
		h.AddAttribute(name, "description", v.Description)
		addText(h, name, "units", v.Units)
		h.AddAttribute(name, "_FillValue", []float32{fillValue})
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	if hasRecord {
		hours := float64(d.Provenance.ValidTime.Unix()) / 3600
		if err = writeNCF(f, recordDim, []float64{hours}, 1); err != nil {
			return fmt.Errorf("ggs: writing time to netcdf file: %v", err)
		}
	}
	for _, c := range d.Coords {
		if err = writeNCF(f, c.Name, c.Values, len(c.Values)); err != nil {
			return fmt.Errorf("ggs: writing coordinate %s to netcdf file: %v", c.Name, err)
		}
	}
	for _, name := range vars {
		v := d.Data[name]
		data32 := make([]float32, len(v.Data.Elements))
		for i, e := range v.Data.Elements {
			if v.Valid != nil && !v.Valid[i] || math.IsNaN(e) {
				data32[i] = fillValue
				continue
			}
			data32[i] = float32(e)
		}
		if err = writeNCF(f, name, data32, len(data32)); err != nil {
			return fmt.Errorf("ggs: writing variable %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func addText(h *cdf.Header, v, a, s string) {
	if s != "" {
		h.AddAttribute(v, a, s)
	}
}

func textAttr(h *cdf.Header, v, a string) string {
	s, _ := h.GetAttribute(v, a).(string)
	return s
}

// extent returns the start and inclusive end indices covering all of
// variable v, treating the record dimension as holding one record.
func extent(f *cdf.File, v string) (begin, end []int, n int) {
	lengths := f.Header.Lengths(v)
	begin, end = make([]int, len(lengths)), make([]int, len(lengths))
	n = 1
	for i, l := range lengths {
		if l == 0 {
			l = 1
		}
		end[i] = l - 1
		n *= l
	}
	return begin, end, n
}

// writeNCF writes n values to variable v.
func writeNCF(f *cdf.File, v string, values interface{}, n int) error {
	begin, end, size := extent(f, v)
	if n != size {
		return fmt.Errorf("dims are %d but array length is %d", size, n)
	}
	_, err := f.Writer(v, begin, end).Write(values)
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

// readNCF reads all of variable v, converted to float64.
func readNCF(f *cdf.File, v string) ([]float64, error) {
	begin, end, n := extent(f, v)
	r := f.Reader(v, begin, end)
	if r == nil {
		return nil, fmt.Errorf("variable %s not in file", v)
	}
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil && err != io.EOF {
		return nil, err
	}
	return toFloat64s(buf)
}

func toFloat64s(buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		o := make([]float64, len(b))
		for i, x := range b {
			o[i] = float64(x)
		}
		return o, nil
	case []int32:
		o := make([]float64, len(b))
		for i, x := range b {
			o[i] = float64(x)
		}
		return o, nil
	case []int16:
		o := make([]float64, len(b))
		for i, x := range b {
			o[i] = float64(x)
		}
		return o, nil
	case []uint8:
		o := make([]float64, len(b))
		for i, x := range b {
			o[i] = float64(int8(x))
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unsupported data type %T", buf)
	}
}

// LoadDataset loads a dataset written by Dataset.Write.
func LoadDataset(rw cdf.ReaderWriterAt) (*Dataset, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("ggs.LoadDataset: %v", err)
	}
	d := &Dataset{
		Comment: textAttr(f.Header, "", "comment"),
		Data:    make(map[string]*Variable),
		Provenance: Provenance{
			ModelName: textAttr(f.Header, "", "model_name"),
			Labels:    make(map[string]string),
		},
	}
	if s := textAttr(f.Header, "", "model_datetime"); s != "" {
		if d.Provenance.ValidTime, err = time.Parse(DateTimeFormat, s); err != nil {
			return nil, fmt.Errorf("ggs.LoadDataset: %v", err)
		}
	}
	for _, a := range f.Header.Attributes("") {
		if s, ok := f.Header.GetAttribute("", a).(string); ok && !reservedAttributes[a] {
			d.Provenance.Labels[a] = s
		}
	}

	names, lengths := f.Header.Dimensions(""), f.Header.Lengths("")
	for i, name := range names {
		l := lengths[i]
		if l == 0 {
			l = 1
		}
		d.Dims = append(d.Dims, Dim{Name: name, Len: l})
	}

	for _, v := range f.Header.Variables() {
		if v == recordDim {
			continue
		}
		values, err := readNCF(f, v)
		if err != nil {
			return nil, fmt.Errorf("ggs.LoadDataset: %v", err)
		}
		dims := f.Header.Dimensions(v)
		description, isVar := f.Header.GetAttribute(v, "description").(string)
		if !isVar {
			d.Coords = append(d.Coords, CoordVar{
				Name:        v,
				Dims:        dims,
				Units:       textAttr(f.Header, v, "units"),
				Description: textAttr(f.Header, v, "long_name"),
				Values:      values,
			})
			continue
		}
		shape := make([]int, len(dims))
		for i, dim := range dims {
			shape[i] = d.DimLen(dim)
		}
		field := NewField(shape...)
		if len(values) != len(field.Data.Elements) {
			return nil, fmt.Errorf("ggs.LoadDataset: dims of %s are %d but "+
				"array length is %d", v, len(field.Data.Elements), len(values))
		}
		fill := float32(fillValue)
		if fv, ok := f.Header.GetAttribute(v, "_FillValue").([]float32); ok && len(fv) > 0 {
			fill = fv[0]
		}
		for i, x := range values {
			if float32(x) == fill || math.IsNaN(x) {
				continue
			}
			field.setIndex1d(i, Some(x))
		}
		d.AddVariable(v, dims, description, textAttr(f.Header, v, "units"), field)
	}
	return d, nil
}

// Kinds of result files.
const (
	KindDepthAverage = "DepthAverage"
	KindBinAverage   = "BinAverage"
)

// OutputName returns the file name of a result of the given kind
// for glider and model, valid at t.
func OutputName(glider, model, kind string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s.nc", glider, strings.ToUpper(model), kind,
		t.UTC().Format("20060102T15Z"))
}
