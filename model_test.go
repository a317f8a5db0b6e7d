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
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ctessum/cdf"
)

type testVar struct {
	name  string
	dims  []string
	data  interface{}
	attrs map[string]interface{}
}

// writeTestNC writes a netcdf classic file holding vars and returns
// its path.
func writeTestNC(t *testing.T, dims []string, lengths []int, global map[string]string, vars []testVar) string {
	t.Helper()
	h := cdf.NewHeader(dims, lengths)
	for k, v := range global {
		h.AddAttribute("", k, v)
	}
	for _, v := range vars {
		h.AddVariable(v.name, v.dims, reflect.MakeSlice(reflect.TypeOf(v.data), 1, 1).Interface())
		for k, a := range v.attrs {
			h.AddAttribute(v.name, k, a)
		}
	}
	h.Define()
	path := filepath.Join(t.TempDir(), "model.nc")
	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	f, err := cdf.Create(w, h)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range vars {
		if err := writeNCF(f, v.name, v.data, reflect.ValueOf(v.data).Len()); err != nil {
			t.Fatalf("writing %s: %v", v.name, err)
		}
	}
	if err := cdf.UpdateNumRecs(w); err != nil {
		t.Fatal(err)
	}
	return path
}

const rtofsFill = 1.2676506e30

func rtofsFile(t *testing.T) string {
	u := make([]float32, 3*2*3)
	v := make([]float32, 3*2*3)
	for k := 0; k < 3; k++ {
		for j := 0; j < 2; j++ {
			for i := 0; i < 3; i++ {
				n := k*6 + j*3 + i
				u[n] = float32(0.1*float64(k) + 0.01*float64(j) + 0.001*float64(i))
				v[n] = -u[n]
			}
		}
	}
	u[17], v[17] = rtofsFill, rtofsFill // k=2, j=1, i=2
	fill := map[string]interface{}{"_FillValue": []float32{rtofsFill}}
	return writeTestNC(t,
		[]string{"MT", "Depth", "Y", "X"}, []int{0, 3, 2, 3}, nil,
		[]testVar{
			{"MT", []string{"MT"}, []float64{45000.5},
				map[string]interface{}{"units": "days since 1900-12-31 00:00:00"}},
			{"Depth", []string{"Depth"}, []float32{0, 10, 20}, nil},
			{"Latitude", []string{"Y", "X"}, []float32{30, 30.1, 30.2, 31, 31.1, 31.2}, nil},
			{"Longitude", []string{"Y", "X"}, []float32{280, 281, 282, 280, 281, 282}, nil},
			{"u", []string{"MT", "Depth", "Y", "X"}, u, fill},
			{"v", []string{"MT", "Depth", "Y", "X"}, v, fill},
		})
}

func TestNewRTOFS(t *testing.T) {
	d, err := NewRTOFS(rtofsFile(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(1900, 12, 31, 0, 0, 0, 0, time.UTC).Add(45000*24*time.Hour + 12*time.Hour)
	if !d.Provenance.ValidTime.Equal(want) || d.Provenance.ModelName != "RTOFS" {
		t.Errorf("provenance = %+v; want time %v", d.Provenance, want)
	}
	g, ok := d.Grid.(*Curvilinear)
	if !ok {
		t.Fatalf("grid is %T; want curvilinear", d.Grid)
	}
	if lat, lon := g.LatLon(1, 2); different(lat, 31.2, 1.0e-6) || lon != -78 {
		t.Errorf("LatLon(1, 2) = %g, %g", lat, lon)
	}
	if d.MaxDepth() != 20 {
		t.Errorf("max depth = %g", d.MaxDepth())
	}
	if d.U.At(2, 1, 2).Valid || d.V.At(2, 1, 2).Valid {
		t.Error("fill value should be missing")
	}
	if u := d.U.At(1, 1, 1); !u.Valid || different(u.V, 0.111, 1.0e-6) {
		t.Errorf("u(1, 1, 1) = %v; want 0.111", u)
	}
	if v := d.V.At(2, 0, 0); !v.Valid || different(v.V, -0.2, 1.0e-6) {
		t.Errorf("v(2, 0, 0) = %v; want -0.2", v)
	}
}

func TestNewGOFSPacked(t *testing.T) {
	u := []int16{100, 200, -30000, 400, 500, 600, 700, 800}
	v := []int16{0, 0, 0, 0, 0, 0, 0, -30000}
	packing := map[string]interface{}{
		"_FillValue":   []int16{-30000},
		"scale_factor": []float32{0.001},
		"add_offset":   []float32{0},
	}
	path := writeTestNC(t,
		[]string{"time", "depth", "lat", "lon"}, []int{0, 2, 2, 2}, nil,
		[]testVar{
			{"time", []string{"time"}, []float64{210000},
				map[string]interface{}{"units": "hours since 2000-01-01 00:00:00"}},
			{"depth", []string{"depth"}, []float64{0, 2}, nil},
			{"lat", []string{"lat"}, []float64{20, 20.04}, nil},
			{"lon", []string{"lon"}, []float64{300, 300.08}, nil},
			{"water_u", []string{"time", "depth", "lat", "lon"}, u, packing},
			{"water_v", []string{"time", "depth", "lat", "lon"}, v, packing},
		})
	d, err := NewGOFS(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(210000 * time.Hour)
	if !d.Provenance.ValidTime.Equal(want) {
		t.Errorf("valid time = %v; want %v", d.Provenance.ValidTime, want)
	}
	g, ok := d.Grid.(*Regular)
	if !ok {
		t.Fatalf("grid is %T; want regular", d.Grid)
	}
	if different(g.Lon[0], -60, 1.0e-12) {
		t.Errorf("lon[0] = %g; want -60", g.Lon[0])
	}
	if x := d.U.At(0, 0, 1); !x.Valid || different(x.V, 0.2, 1.0e-6) {
		t.Errorf("u(0, 0, 1) = %v; want 0.2", x)
	}
	if d.U.At(0, 1, 0).Valid || d.V.At(1, 1, 1).Valid {
		t.Error("packed fill values should be missing")
	}
	if x := d.V.At(0, 0, 0); !x.Valid || x.V != 0 {
		t.Errorf("v(0, 0, 0) = %v; want 0", x)
	}
}

func TestNewCMEMSFirstRecord(t *testing.T) {
	// Two forecast times in a fixed-length time dimension.
	uo := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	vo := make([]float32, 16)
	path := writeTestNC(t,
		[]string{"time", "depth", "latitude", "longitude"}, []int{2, 2, 2, 2},
		map[string]string{"title": "test"},
		[]testVar{
			{"time", []string{"time"}, []float64{648000, 648024},
				map[string]interface{}{"units": "hours since 1950-01-01"}},
			{"depth", []string{"depth"}, []float32{0.5, 1.5}, nil},
			{"latitude", []string{"latitude"}, []float32{40, 41}, nil},
			{"longitude", []string{"longitude"}, []float32{-70, -69}, nil},
			{"uo", []string{"time", "depth", "latitude", "longitude"}, uo, nil},
			{"vo", []string{"time", "depth", "latitude", "longitude"}, vo, nil},
		})
	d, err := NewCMEMS(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s := d.U.Shape(); len(s) != 3 || s[0] != 2 || s[1] != 2 || s[2] != 2 {
		t.Fatalf("shape = %v", s)
	}
	if x := d.U.At(1, 1, 1); !x.Valid || x.V != 8 {
		t.Errorf("u(1, 1, 1) = %v; want 8 from the first record", x)
	}
	want := time.Date(2023, 12, 4, 0, 0, 0, 0, time.UTC)
	if !d.Provenance.ValidTime.Equal(want) {
		t.Errorf("valid time = %v; want %v", d.Provenance.ValidTime, want)
	}
}

func TestReadModelErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.nc")
	if err := os.WriteFile(path, []byte("not a netcdf file"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewGOFS(path, nil); err == nil {
		t.Error("expected an error for a non-netcdf file")
	}
	// An RTOFS file is missing the CMEMS variables.
	if _, err := NewCMEMS(rtofsFile(t), nil); err == nil {
		t.Error("expected an error for missing variables")
	}
	if _, err := LookupModel("hycom"); err == nil {
		t.Error("expected an error for an unknown model")
	}
	if s, err := LookupModel("RTOFS"); err != nil || s.Name != "RTOFS" {
		t.Errorf("LookupModel: %v, %v", s, err)
	}
}

func TestReadModelMessages(t *testing.T) {
	msgChan := make(chan string, 10)
	if _, err := ReadModel(rtofsFile(t), RTOFS, msgChan); err != nil {
		t.Fatal(err)
	}
	close(msgChan)
	n := 0
	for range msgChan {
		n++
	}
	if n != 2 {
		t.Errorf("got %d messages; want 2", n)
	}
}

func TestParseTimeUnits(t *testing.T) {
	for _, c := range []struct {
		units string
		x     float64
		want  time.Time
	}{
		{"seconds since 1970-01-01 00:00:00", 86400, time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"hours since 1950-01-01", 48, time.Date(1950, 1, 3, 0, 0, 0, 0, time.UTC)},
		{"days since 1900-12-31T00:00:00Z", 1.25, time.Date(1901, 1, 1, 6, 0, 0, 0, time.UTC)},
		{"minutes since 2020-06-01 12:00:00 UTC", 30, time.Date(2020, 6, 1, 12, 30, 0, 0, time.UTC)},
	} {
		got, err := parseTimeUnits(c.units, c.x)
		if err != nil {
			t.Errorf("%s: %v", c.units, err)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("%s: got %v; want %v", c.units, got, c.want)
		}
	}
	if _, err := parseTimeUnits("fortnights since 2000-01-01", 1); err == nil {
		t.Error("expected an error for unknown units")
	}
}

func TestFlatten(t *testing.T) {
	shape, values, err := flatten(reflect.ValueOf([][]float32{{1, 2, 3}, {4, 5, 6}}))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(shape, []int{2, 3}) || !reflect.DeepEqual(values, []float64{1, 2, 3, 4, 5, 6}) {
		t.Errorf("flatten = %v, %v", shape, values)
	}
	o := &ncVar{name: "x", values: []float64{1, math.NaN(), 3e30, -5}}
	unpack(o, func(v, a string) interface{} {
		if a == "missing_value" {
			return []int32{-5}
		}
		return nil
	})
	if o.values[0] != 1 || !math.IsNaN(o.values[1]) || !math.IsNaN(o.values[2]) || !math.IsNaN(o.values[3]) {
		t.Errorf("unpack = %v", o.values)
	}
}
