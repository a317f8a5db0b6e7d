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

package ggsutil

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/gliderguidance/ggs"
	"github.com/kr/pretty"
)

func different(a, b, tolerance float64) bool {
	if a == b {
		return false
	}
	return 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b)
}

var testTime = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

// writeCMEMS writes a small CMEMS-style output file where the current
// speeds up toward the east and north. The south-west corner is land.
func writeCMEMS(t *testing.T) string {
	depths := []float64{0, 10, 50, 100}
	lat := []float64{39, 39.5, 40, 40.5}
	lon := []float64{-71, -70.5, -70, -69.5, -69}
	nz, ny, nx := len(depths), len(lat), len(lon)
	dims := []string{"time", "depth", "latitude", "longitude"}
	ds := &ggs.Dataset{
		Provenance: ggs.Provenance{ModelName: "CMEMS", ValidTime: testTime},
		Dims:       []ggs.Dim{{Name: "time", Len: 1}, {Name: "depth", Len: nz}, {Name: "latitude", Len: ny}, {Name: "longitude", Len: nx}},
		Coords: []ggs.CoordVar{
			{Name: "depth", Dims: []string{"depth"}, Units: "m", Description: "Depth", Values: depths},
			{Name: "latitude", Dims: []string{"latitude"}, Units: "degrees_north", Description: "Latitude", Values: lat},
			{Name: "longitude", Dims: []string{"longitude"}, Units: "degrees_east", Description: "Longitude", Values: lon},
		},
	}
	u, v := ggs.NewField(1, nz, ny, nx), ggs.NewField(1, nz, ny, nx)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				if j == 0 && i == 0 {
					continue
				}
				u.Set(ggs.Some(0.1*float64(i+1)), 0, k, j, i)
				v.Set(ggs.Some(0.05*float64(j+1)), 0, k, j, i)
			}
		}
	}
	ds.AddVariable("uo", dims, "Eastward velocity", "m s-1", u)
	ds.AddVariable("vo", dims, "Northward velocity", "m s-1", v)

	path := filepath.Join(t.TempDir(), "cmems.nc")
	if err := writeDataset(path, ds); err != nil {
		t.Fatal(err)
	}
	return path
}

func processMission() *Mission {
	m := testMission()
	m.MaxDepth = 30
	m.Waypoints[0].Lat, m.Waypoints[0].Lon = 39.6, -70.8
	m.Waypoints[1].Lat, m.Waypoints[1].Lon = 40.3, -69.4
	return m
}

func allPlots() []string {
	return []string{PlotMagnitude, PlotThreshold, PlotAdvantage, PlotProfiles, PlotBattery}
}

func TestProcess(t *testing.T) {
	input := writeCMEMS(t)
	m := processMission()
	out := t.TempDir()
	opts := ProcessOptions{OutDir: out, Plots: allPlots(), Density: 2, Tolerance: 15, Threshold: 0.5, Pad: 1}
	written, err := Process(context.Background(), m, []string{"cmems"}, []string{input}, opts, helperLog(t))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"GGS_RU29_Battery.png",
		"RU29_CMEMS_Advantage_20240305T00Z.png",
		"RU29_CMEMS_BinAverage_20240305T00Z.nc",
		"RU29_CMEMS_DepthAverage_20240305T00Z.nc",
		"RU29_CMEMS_Magnitude_20240305T00Z.png",
		"RU29_CMEMS_Profile1_20240305T00Z.png",
		"RU29_CMEMS_Profile2_20240305T00Z.png",
		"RU29_CMEMS_Threshold_20240305T00Z.png",
	}
	var got []string
	for _, f := range written {
		if filepath.Dir(f) != out {
			t.Errorf("%s is not in the output directory", f)
		}
		if _, err := os.Stat(f); err != nil {
			t.Error(err)
		}
		got = append(got, filepath.Base(f))
	}
	sort.Strings(got)
	if diff := pretty.Diff(got, want); len(diff) != 0 {
		t.Error(diff)
	}

	f, err := os.Open(filepath.Join(out, "RU29_CMEMS_DepthAverage_20240305T00Z.nc"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ds, err := ggs.LoadDataset(f)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Provenance.ModelName != "CMEMS" || !ds.Provenance.ValidTime.Equal(testTime) {
		t.Errorf("provenance = %+v", ds.Provenance)
	}
	if ds.Provenance.Labels["glider_name"] != "RU29" || ds.Provenance.Labels["mission_id"] != m.ID() {
		t.Errorf("labels = %v", ds.Provenance.Labels)
	}
	mag, err := ds.Var(ggs.MagDepthAvg)
	if err != nil {
		t.Fatal(err)
	}
	if mag.At(0, 0, 0).Valid {
		t.Error("land cell has a depth-averaged current")
	}
	if s := mag.At(0, 1, 1); !s.Valid || different(s.V, 0.2236068, 1e-6) {
		t.Errorf("speed at (1, 1) = %v; want 0.2236068", s)
	}

	t.Run("plot", func(t *testing.T) {
		plotOut := t.TempDir()
		files := []string{
			filepath.Join(out, "RU29_CMEMS_DepthAverage_20240305T00Z.nc"),
			filepath.Join(out, "RU29_CMEMS_BinAverage_20240305T00Z.nc"),
		}
		opts.OutDir = plotOut
		written, err := Plot(context.Background(), m, files, opts, helperLog(t))
		if err != nil {
			t.Fatal(err)
		}
		if len(written) != 6 {
			t.Errorf("wrote %d plots; want 6: %v", len(written), written)
		}
		for _, f := range written {
			if _, err := os.Stat(f); err != nil {
				t.Error(err)
			}
		}
	})
}

func TestProcessErrors(t *testing.T) {
	input := writeCMEMS(t)
	ctx := context.Background()
	opts := ProcessOptions{OutDir: t.TempDir()}
	for _, test := range []struct {
		name           string
		models, inputs []string
		plots          []string
	}{
		{"no inputs", nil, nil, nil},
		{"length mismatch", []string{"cmems", "gofs"}, []string{input}, nil},
		{"unknown model", []string{"hycom"}, []string{input}, nil},
		{"wrong model", []string{"rtofs"}, []string{input}, nil},
		{"missing file", []string{"cmems"}, []string{filepath.Join(t.TempDir(), "none.nc")}, nil},
		{"unknown plot", []string{"cmems"}, []string{input}, []string{"contour"}},
	} {
		t.Run(test.name, func(t *testing.T) {
			o := opts
			o.Plots = test.plots
			if _, err := Process(ctx, processMission(), test.models, test.inputs, o, helperLog(t)); err == nil {
				t.Error("expected an error")
			}
		})
	}
	m := processMission()
	m.MaxDepth = -1
	if _, err := Process(ctx, m, []string{"cmems"}, []string{input}, opts, helperLog(t)); err == nil {
		t.Error("expected an error for an invalid mission")
	}
}

func TestCheckPlot(t *testing.T) {
	for _, p := range allPlots() {
		if err := checkPlot(p); err != nil {
			t.Error(err)
		}
	}
	if err := checkPlot("Magnitude"); err == nil {
		t.Error("plot names are lower case")
	}
}
