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
	"strings"
	"time"

	"github.com/ctessum/sparse"
)

// ModelSpec names the variables of an ocean model's output files.
type ModelSpec struct {
	// Name is the model name recorded in the provenance of results.
	Name string

	// U and V are the eastward and northward velocity variables,
	// with dimensions (time, depth, row, col) or (depth, row, col).
	U, V string

	// Depth, Lat, Lon and Time are the coordinate variables.
	Depth, Lat, Lon, Time string

	// Curvilinear is true if the model grid has y and x index
	// dimensions instead of latitude and longitude axes.
	Curvilinear bool
}

// ModelSpecs holds the supported models by lowercase name.
var ModelSpecs = map[string]ModelSpec{
	"rtofs": RTOFS,
	"cmems": CMEMS,
	"gofs":  GOFS,
}

// LookupModel returns the variable layout of the named model.
func LookupModel(name string) (ModelSpec, error) {
	s, ok := ModelSpecs[strings.ToLower(name)]
	if !ok {
		return ModelSpec{}, fmt.Errorf("ggs: unknown model %q; valid options are rtofs, cmems and gofs", name)
	}
	return s, nil
}

// ReadModel reads the first forecast time of the model output
// file at path, which may be netcdf classic or netcdf-4. Longitudes
// are converted to the range [-180, 180]. If msgChan is not nil,
// status messages will be sent to it.
func ReadModel(path string, spec ModelSpec, msgChan chan string) (*ModelData, error) {
	r, err := openNC(path)
	if err != nil {
		return nil, fmt.Errorf("ggs: %s: %v", spec.Name, err)
	}
	defer r.Close()
	return readModel(r, path, spec, msgChan)
}

// readModel reads the first forecast time of an open model file.
func readModel(r ncReader, path string, spec ModelSpec, msgChan chan string) (*ModelData, error) {
	if msgChan != nil {
		msgChan <- fmt.Sprintf("Reading %s currents from %s", spec.Name, path)
	}

	var u, v, depth, lat, lon *ncVar
	vars := []struct {
		name string
		dst  **ncVar
	}{
		{spec.U, &u}, {spec.V, &v}, {spec.Depth, &depth}, {spec.Lat, &lat}, {spec.Lon, &lon},
	}
	errChan := make(chan error, len(vars))
	for _, x := range vars {
		go func(name string, dst **ncVar) {
			var err error
			*dst, err = r.read(name, spec.Time)
			errChan <- err
		}(x.name, x.dst)
	}
	var firstErr error
	for range vars {
		if err := <-errChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, fmt.Errorf("ggs: %s: %v", spec.Name, firstErr)
	}

	grid, err := spec.grid(lat, lon)
	if err != nil {
		return nil, fmt.Errorf("ggs: %s: %v", spec.Name, err)
	}
	t, err := readValidTime(r, spec)
	if err != nil {
		return nil, fmt.Errorf("ggs: %s: %v", spec.Name, err)
	}
	d := &ModelData{
		Provenance: Provenance{ModelName: spec.Name, ValidTime: t},
		Depths:     depth.values,
		U:          fieldFromVar(u),
		V:          fieldFromVar(v),
		Grid:       grid,
	}
	if err := d.Check(); err != nil {
		return nil, fmt.Errorf("%v (reading %s)", err, path)
	}
	if msgChan != nil {
		ny, nx := grid.Shape()
		msgChan <- fmt.Sprintf("Read %s currents valid %s: %d levels on a %dx%d grid",
			spec.Name, t.Format(DateTimeFormat), len(d.Depths), ny, nx)
	}
	return d, nil
}

func fieldFromVar(x *ncVar) *Field {
	f := NewField(x.shape...)
	for i, val := range x.values {
		f.setIndex1d(i, FromFloat(val))
	}
	return f
}

// grid builds the horizontal grid from the coordinate variables.
func (s ModelSpec) grid(lat, lon *ncVar) (GridAdapter, error) {
	for i := range lon.values {
		lon.values[i] = normalizeLon(lon.values[i])
	}
	switch {
	case len(lat.shape) == 2 && len(lon.shape) == 2:
		if lat.shape[0] != lon.shape[0] || lat.shape[1] != lon.shape[1] {
			return nil, fmt.Errorf("%s has shape %v but %s has shape %v",
				s.Lat, lat.shape, s.Lon, lon.shape)
		}
		g := &Curvilinear{Lat: sparse.ZerosDense(lat.shape...), Lon: sparse.ZerosDense(lon.shape...)}
		copy(g.Lat.Elements, lat.values)
		copy(g.Lon.Elements, lon.values)
		return g, nil
	case len(lat.shape) == 1 && len(lon.shape) == 1:
		if !s.Curvilinear {
			return &Regular{Lat: lat.values, Lon: lon.values}, nil
		}
		ny, nx := len(lat.values), len(lon.values)
		g := &Curvilinear{Lat: sparse.ZerosDense(ny, nx), Lon: sparse.ZerosDense(ny, nx)}
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				g.Lat.Set(lat.values[j], j, i)
				g.Lon.Set(lon.values[i], j, i)
			}
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported coordinate dimensions %v and %v", lat.dims, lon.dims)
	}
}

func normalizeLon(x float64) float64 {
	for x > 180 {
		x -= 360
	}
	for x < -180 {
		x += 360
	}
	return x
}

// readValidTime returns the time of the first record, using the
// units of the time variable or, failing that, the model_datetime
// global attribute.
func readValidTime(r ncReader, spec ModelSpec) (time.Time, error) {
	if spec.Time != "" && r.hasVar(spec.Time) {
		t, err := r.read(spec.Time, "")
		if err != nil {
			return time.Time{}, err
		}
		if len(t.values) > 0 && !math.IsNaN(t.values[0]) {
			return parseTimeUnits(attrString(r.attribute(spec.Time, "units")), t.values[0])
		}
	}
	if s := attrString(r.attribute("", "model_datetime")); s != "" {
		return time.Parse(DateTimeFormat, s)
	}
	return time.Time{}, fmt.Errorf("no valid time: missing %s variable and model_datetime attribute", spec.Time)
}

var referenceLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.0",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimeUnits converts x in CF time units such as
// "hours since 2000-01-01 00:00:00" to a time.
func parseTimeUnits(units string, x float64) (time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time units %q", units)
	}
	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[0])) {
	case "seconds", "second", "secs", "sec", "s":
		step = time.Second
	case "minutes", "minute", "mins", "min":
		step = time.Minute
	case "hours", "hour", "hrs", "hr", "h":
		step = time.Hour
	case "days", "day", "d":
		step = 24 * time.Hour
	default:
		return time.Time{}, fmt.Errorf("invalid time units %q", units)
	}
	ref := strings.TrimSuffix(strings.TrimSpace(parts[1]), " UTC")
	for _, layout := range referenceLayouts {
		t0, err := time.ParseInLocation(layout, ref, time.UTC)
		if err == nil {
			return t0.Add(time.Duration(x * float64(step))).Round(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid reference time in units %q", units)
}
