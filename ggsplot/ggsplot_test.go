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

package ggsplot

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gliderguidance/ggs"
	"github.com/gliderguidance/ggs/route"
	"gonum.org/v1/plot"
)

// testResult returns broadcast results for a 4x5 regular grid where
// the current speeds up and turns from east to north across columns.
func testResult(t *testing.T) *ggs.Result {
	g := &ggs.Regular{
		Lat: []float64{30, 30.25, 30.5, 30.75},
		Lon: []float64{-70, -69.75, -69.5, -69.25, -69},
	}
	depths := []float64{0, 5, 10, 20}
	ny, nx := g.Shape()
	d := &ggs.ModelData{
		Provenance: ggs.Provenance{
			ModelName: "CMEMS",
			ValidTime: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		Depths: depths,
		U:      ggs.NewField(len(depths), ny, nx),
		V:      ggs.NewField(len(depths), ny, nx),
		Grid:   g,
	}
	for k := range depths {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				if j == 0 && i == 0 {
					continue // land
				}
				s := 0.15 * float64(i+1)
				a := float64(i) / float64(nx-1) * math.Pi / 2
				d.U.Set(ggs.Some(s*math.Cos(a)), k, j, i)
				d.V.Set(ggs.Some(s*math.Sin(a)), k, j, i)
			}
		}
	}
	r, err := ggs.Broadcast(context.Background(), d, 15)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

var testRoute = []route.Waypoint{
	{Lat: 30.1, Lon: -69.9},
	{Lat: 30.6, Lon: -69.1},
}

func saveAndCheck(t *testing.T, name string, save func(path string) error) {
	path := filepath.Join(t.TempDir(), name)
	if err := save(path); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() == 0 {
		t.Errorf("%s is empty", name)
	}
}

func TestMaps(t *testing.T) {
	r := testResult(t)
	opts := Options{Route: testRoute, Density: 2}
	for _, test := range []struct {
		name string
		plot func() (*plot.Plot, error)
	}{
		{"magnitude.png", func() (*plot.Plot, error) { return Magnitude(r.DepthAverage, opts) }},
		{"threshold.png", func() (*plot.Plot, error) { return Threshold(r.DepthAverage, nil, opts) }},
		{"advantage.png", func() (*plot.Plot, error) { return Advantage(r.DepthAverage, 20, DefaultLevels, opts) }},
	} {
		t.Run(test.name, func(t *testing.T) {
			saveAndCheck(t, test.name, func(path string) error {
				p, err := test.plot()
				if err != nil {
					return err
				}
				return Save(p, path)
			})
		})
	}
}

func TestProfilesAndBattery(t *testing.T) {
	r := testResult(t)
	saveAndCheck(t, "profile.png", func(path string) error {
		p, err := Profiles(r, 30.5, -69.5, DefaultProfileThreshold)
		if err != nil {
			return err
		}
		return Save(p, path)
	})
	saveAndCheck(t, "battery.png", func(path string) error {
		p, err := Battery(route.Analyze(testRoute, 0.25, 12), 300)
		if err != nil {
			return err
		}
		return Save(p, path)
	})
}

func TestProfilesNoData(t *testing.T) {
	r := testResult(t)
	if _, err := Profiles(r, 30, -70, DefaultProfileThreshold); err != ErrNoData {
		t.Errorf("err = %v; want %v", err, ErrNoData)
	}
}

func TestPlotErrors(t *testing.T) {
	r := testResult(t)
	if _, err := Advantage(r.DepthAverage, 20, nil, Options{Route: testRoute[:1]}); err != ErrNoRoute {
		t.Errorf("err = %v; want %v", err, ErrNoRoute)
	}
	if _, err := Threshold(r.DepthAverage, make([]float64, 10), Options{}); err == nil {
		t.Error("expected an error for too many levels")
	}
	if _, err := Battery(route.Analyze(testRoute, 0.25, 12), 0); err == nil {
		t.Error("expected an error for zero capacity")
	}
}

func TestZone(t *testing.T) {
	for _, test := range []struct {
		speed float64
		want  int
	}{
		{-0.1, -1},
		{0, 0},
		{0.19, 0},
		{0.2, 1},
		{0.45, 3},
		{0.5, 4},
		{2, 4},
	} {
		if got := Zone(test.speed, DefaultLevels); got != test.want {
			t.Errorf("Zone(%g) = %d; want %d", test.speed, got, test.want)
		}
	}
}

func TestCompassHeading(t *testing.T) {
	for dir, want := range map[float64]float64{
		0:   90,
		90:  0,
		180: 270,
		270: 180,
		315: 135,
		45:  45,
	} {
		if got := CompassHeading(dir); math.Abs(got-want) > 1e-10 {
			t.Errorf("CompassHeading(%g) = %g; want %g", dir, got, want)
		}
	}
}

func TestAdvantageous(t *testing.T) {
	headings := []float64{10, 200}
	for _, test := range []struct {
		h    float64
		want bool
	}{
		{355, true},
		{30, true},
		{31, false},
		{180, true},
		{100, false},
	} {
		if got := Advantageous(test.h, headings, 20); got != test.want {
			t.Errorf("Advantageous(%g) = %v; want %v", test.h, got, test.want)
		}
	}
}
