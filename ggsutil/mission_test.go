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
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gliderguidance/ggs/route"
	"github.com/kr/pretty"
	"github.com/lnashier/viper"
)

func testMission() *Mission {
	return &Mission{
		GliderName:       "RU29",
		MaxDepth:         1000,
		AvgVelocity:      0.25,
		BatteryCapacity:  500,
		BatteryDrain:     8.5,
		SatisfyingRadius: 1000,
		Waypoints: []route.Waypoint{
			{Lat: 39.45, Lon: -74.19},
			{Lat: 39.29, Lon: -73.94},
		},
	}
}

func TestLoadMission(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mission.toml")
	err := os.WriteFile(path, []byte(`glider_name = "RU29"
max_depth = 1000
avg_velocity = 0.25
battery_capacity = 500
battery_drain = 8.5
satisfying_radius = 1000
waypoints = [[39.45, -74.19], [39.29, -73.94]]
`), 0644)
	if err != nil {
		t.Fatal(err)
	}
	m, err := LoadMission(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(m, testMission()); len(diff) != 0 {
		t.Error(diff)
	}
}

func TestMissionSave(t *testing.T) {
	m := testMission()
	dir, err := m.Save(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(dir) != "GGS_RU29" {
		t.Errorf("mission directory is %s", dir)
	}
	m2, err := LoadMission(filepath.Join(dir, "GGS_RU29_config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(m, m2); len(diff) != 0 {
		t.Error(diff)
	}
	if m.ID() != m2.ID() {
		t.Errorf("ID changed after saving: %s != %s", m.ID(), m2.ID())
	}
	b, err := os.ReadFile(filepath.Join(dir, "GGS_RU29_config.txt"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Glider name: RU29", "Max depth: 1000 m", "Waypoint 2: (39.2900, -73.9400)"} {
		if !strings.Contains(string(b), want) {
			t.Errorf("summary is missing %q:\n%s", want, b)
		}
	}

	m.GliderName = ""
	if _, err := m.Save(t.TempDir()); err == nil {
		t.Error("saved an invalid mission")
	}
}

func TestMissionFromConfig(t *testing.T) {
	for name, waypoints := range map[string]interface{}{
		"flags": []string{"39.45", "-74.19", "39.29", "-73.94"},
		"env":   "39.45,-74.19;39.29,-73.94",
		"file":  []interface{}{[]interface{}{39.45, -74.19}, []interface{}{39.29, -73.94}},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := viper.New()
			cfg.Set("glider_name", "RU29")
			cfg.Set("max_depth", "1000")
			cfg.Set("avg_velocity", 0.25)
			cfg.Set("battery_capacity", 500)
			cfg.Set("battery_drain", "8.5")
			cfg.Set("satisfying_radius", 1000.0)
			cfg.Set("waypoints", waypoints)
			m, err := MissionFromConfig(cfg)
			if err != nil {
				t.Fatal(err)
			}
			if diff := pretty.Diff(m, testMission()); len(diff) != 0 {
				t.Error(diff)
			}
		})
	}
}

func TestParseWaypointsErrors(t *testing.T) {
	for _, v := range []interface{}{
		[]string{"39.45", "-74.19", "39.29"},
		[]string{"39.45", "north"},
		[]interface{}{[]interface{}{1.0, 2.0, 3.0}},
		42,
	} {
		if _, err := parseWaypoints(v); err == nil {
			t.Errorf("parseWaypoints(%v): expected an error", v)
		} else if _, ok := err.(*ValidationError); !ok {
			t.Errorf("parseWaypoints(%v): error %v is a %T", v, err, err)
		}
	}
	w, err := parseWaypoints([]string{})
	if err != nil || len(w) != 0 {
		t.Errorf("empty waypoints: %v, %v", w, err)
	}
}

func TestMissionValidate(t *testing.T) {
	if err := testMission().Validate(); err != nil {
		t.Fatal(err)
	}
	tooMany := make([]route.Waypoint, MaxWaypoints+1)
	for _, test := range []struct {
		name   string
		modify func(m *Mission)
		field  string
	}{
		{"no name", func(m *Mission) { m.GliderName = "" }, keyGliderName},
		{"path in name", func(m *Mission) { m.GliderName = "ru/29" }, keyGliderName},
		{"zero depth", func(m *Mission) { m.MaxDepth = 0 }, keyMaxDepth},
		{"NaN depth", func(m *Mission) { m.MaxDepth = math.NaN() }, keyMaxDepth},
		{"too deep", func(m *Mission) { m.MaxDepth = 12000 }, keyMaxDepth},
		{"negative velocity", func(m *Mission) { m.AvgVelocity = -0.1 }, keyAvgVelocity},
		{"infinite drain", func(m *Mission) { m.BatteryDrain = math.Inf(1) }, keyBatteryDrain},
		{"negative radius", func(m *Mission) { m.SatisfyingRadius = -1 }, keySatisfyingRadius},
		{"too many waypoints", func(m *Mission) { m.Waypoints = tooMany }, keyWaypoints},
		{"bad waypoint", func(m *Mission) { m.Waypoints[1].Lat = 91 }, "waypoints[1]"},
	} {
		t.Run(test.name, func(t *testing.T) {
			m := testMission()
			test.modify(m)
			err := m.Validate()
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("error %v is a %T", err, err)
			}
			if verr.Field != test.field {
				t.Errorf("field = %s; want %s", verr.Field, test.field)
			}
		})
	}
}

func TestMissionID(t *testing.T) {
	a, b := testMission(), testMission()
	if a.ID() != b.ID() {
		t.Errorf("equal missions have IDs %s and %s", a.ID(), b.ID())
	}
	b.MaxDepth = 200
	if a.ID() == b.ID() {
		t.Error("different missions have the same ID")
	}
}
