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
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gliderguidance/ggs/internal/hash"
	"github.com/gliderguidance/ggs/route"
	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// Limits on mission parameters.
const (
	MaxMissionDepth = 11000.0 // m
	MaxWaypoints    = 100
)

// Mission holds the configuration of one glider deployment.
type Mission struct {
	// GliderName names the glider. It is used in output file names.
	GliderName string

	// MaxDepth is the maximum dive depth [m].
	MaxDepth float64

	// AvgVelocity is the average speed of the glider through the
	// water [m/s]. Zero disables travel time estimates.
	AvgVelocity float64

	// BatteryCapacity [Ah] and BatteryDrain [Ah/day].
	BatteryCapacity, BatteryDrain float64

	// SatisfyingRadius is the distance from a waypoint [m] at which the
	// waypoint counts as reached.
	SatisfyingRadius float64

	// Waypoints is the planned route, in order.
	Waypoints []route.Waypoint
}

// Mission configuration keys, used in mission files, configuration
// files, command-line flags and environment variables.
const (
	keyGliderName       = "glider_name"
	keyMaxDepth         = "max_depth"
	keyAvgVelocity      = "avg_velocity"
	keyBatteryCapacity  = "battery_capacity"
	keyBatteryDrain     = "battery_drain"
	keySatisfyingRadius = "satisfying_radius"
	keyWaypoints        = "waypoints"
)

// ValidationError reports an invalid mission parameter.
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ggsutil: invalid mission %s=%v: %s", e.Field, e.Value, e.Reason)
}

// LoadMission reads a mission from the TOML file at path.
func LoadMission(path string) (*Mission, error) {
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(os.ExpandEnv(path), &raw); err != nil {
		return nil, fmt.Errorf("ggsutil: reading mission file: %v", err)
	}
	return missionFrom(func(key string) interface{} { return raw[key] })
}

// MissionFromConfig reads a mission from the configuration values in cfg.
func MissionFromConfig(cfg *viper.Viper) (*Mission, error) {
	return missionFrom(cfg.Get)
}

func missionFrom(get func(key string) interface{}) (*Mission, error) {
	m := new(Mission)
	var err error
	if m.GliderName, err = cast.ToStringE(get(keyGliderName)); err != nil {
		return nil, &ValidationError{Field: keyGliderName, Value: get(keyGliderName), Reason: err.Error()}
	}
	m.GliderName = strings.TrimSpace(os.ExpandEnv(m.GliderName))
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{keyMaxDepth, &m.MaxDepth},
		{keyAvgVelocity, &m.AvgVelocity},
		{keyBatteryCapacity, &m.BatteryCapacity},
		{keyBatteryDrain, &m.BatteryDrain},
		{keySatisfyingRadius, &m.SatisfyingRadius},
	} {
		v := get(f.key)
		if v == nil {
			continue
		}
		if *f.dst, err = cast.ToFloat64E(v); err != nil {
			return nil, &ValidationError{Field: f.key, Value: v, Reason: "not a number"}
		}
	}
	if m.Waypoints, err = parseWaypoints(get(keyWaypoints)); err != nil {
		return nil, err
	}
	return m, nil
}

// parseWaypoints accepts a list of [lat, lon] pairs, as found in TOML
// files, or a flat list of numbers alternating between latitude and
// longitude, as given on the command line.
func parseWaypoints(v interface{}) ([]route.Waypoint, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		v = strings.FieldsFunc(strings.Trim(s, "[]"), func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	}
	items, err := cast.ToSliceE(v)
	if err != nil {
		if ss, ok := v.([]string); ok {
			items = make([]interface{}, len(ss))
			for i, s := range ss {
				items[i] = s
			}
		} else {
			return nil, &ValidationError{Field: keyWaypoints, Value: v, Reason: err.Error()}
		}
	}
	var flat []float64
	for i, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s == "" {
				continue
			}
			item = s
		}
		pair, err := cast.ToSliceE(item)
		if err != nil {
			x, err := cast.ToFloat64E(item)
			if err != nil {
				return nil, &ValidationError{Field: keyWaypoints, Value: item, Reason: "not a number"}
			}
			flat = append(flat, x)
			continue
		}
		if len(pair) != 2 {
			return nil, &ValidationError{Field: keyWaypoints, Value: pair,
				Reason: fmt.Sprintf("waypoint %d should be [latitude, longitude]", i+1)}
		}
		for _, p := range pair {
			x, err := cast.ToFloat64E(p)
			if err != nil {
				return nil, &ValidationError{Field: keyWaypoints, Value: p, Reason: "not a number"}
			}
			flat = append(flat, x)
		}
	}
	if len(flat)%2 != 0 {
		return nil, &ValidationError{Field: keyWaypoints, Value: flat,
			Reason: "needs an even number of coordinates"}
	}
	w := make([]route.Waypoint, len(flat)/2)
	for i := range w {
		w[i] = route.Waypoint{Lat: flat[2*i], Lon: flat[2*i+1]}
	}
	return w, nil
}

// Validate returns a *ValidationError describing the first invalid
// parameter of m, or nil if m is valid.
func (m *Mission) Validate() error {
	if m.GliderName == "" {
		return &ValidationError{Field: keyGliderName, Value: m.GliderName, Reason: "must not be empty"}
	}
	if strings.ContainsAny(m.GliderName, `/\`) {
		return &ValidationError{Field: keyGliderName, Value: m.GliderName, Reason: "must not contain path separators"}
	}
	if math.IsNaN(m.MaxDepth) || m.MaxDepth <= 0 || m.MaxDepth > MaxMissionDepth {
		return &ValidationError{Field: keyMaxDepth, Value: m.MaxDepth,
			Reason: fmt.Sprintf("should be > 0 and <= %g m", MaxMissionDepth)}
	}
	for _, f := range []struct {
		key string
		v   float64
	}{
		{keyAvgVelocity, m.AvgVelocity},
		{keyBatteryCapacity, m.BatteryCapacity},
		{keyBatteryDrain, m.BatteryDrain},
		{keySatisfyingRadius, m.SatisfyingRadius},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return &ValidationError{Field: f.key, Value: f.v, Reason: "should be a finite number >= 0"}
		}
	}
	if len(m.Waypoints) > MaxWaypoints {
		return &ValidationError{Field: keyWaypoints, Value: len(m.Waypoints),
			Reason: fmt.Sprintf("at most %d waypoints are allowed", MaxWaypoints)}
	}
	for i, w := range m.Waypoints {
		if err := w.Check(); err != nil {
			return &ValidationError{Field: fmt.Sprintf("%s[%d]", keyWaypoints, i), Value: w, Reason: err.Error()}
		}
	}
	return nil
}

// ID returns a fingerprint of m. Missions with the same parameters
// have the same ID.
func (m *Mission) ID() string { return hash.Hash(m) }

// Analysis returns the leg-by-leg analysis of the mission route.
func (m *Mission) Analysis() *route.Analysis {
	return route.Analyze(m.Waypoints, m.AvgVelocity, m.BatteryDrain)
}

// Summary returns a human-readable description of m.
func (m *Mission) Summary() string {
	b := new(bytes.Buffer)
	fmt.Fprintf(b, "Glider Guidance System (GGS) Configuration:\n\n")
	fmt.Fprintf(b, "Glider name: %s\n\n", m.GliderName)
	fmt.Fprintf(b, "Max depth: %g m\n", m.MaxDepth)
	fmt.Fprintf(b, "Avg velocity: %g m/s\n", m.AvgVelocity)
	fmt.Fprintf(b, "Battery capacity: %g Ah\n", m.BatteryCapacity)
	fmt.Fprintf(b, "Battery drain: %g Ah/day\n", m.BatteryDrain)
	fmt.Fprintf(b, "Satisfying radius: %g m\n", m.SatisfyingRadius)
	for i, w := range m.Waypoints {
		fmt.Fprintf(b, "Waypoint %d: %s\n", i+1, w)
	}
	return b.String()
}

// missionFile is the TOML layout of a mission.
type missionFile struct {
	GliderName       string       `toml:"glider_name"`
	MaxDepth         float64      `toml:"max_depth"`
	AvgVelocity      float64      `toml:"avg_velocity"`
	BatteryCapacity  float64      `toml:"battery_capacity"`
	BatteryDrain     float64      `toml:"battery_drain"`
	SatisfyingRadius float64      `toml:"satisfying_radius"`
	Waypoints        [][2]float64 `toml:"waypoints"`
}

// Dir returns the name of the mission directory.
func (m *Mission) Dir() string { return "GGS_" + m.GliderName }

// Save writes the mission file GGS_<glider>_config.toml and the summary
// GGS_<glider>_config.txt into the mission directory under dir, creating
// it if necessary, and returns the path of the mission directory.
func (m *Mission) Save(dir string) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	out := filepath.Join(os.ExpandEnv(dir), m.Dir())
	if err := os.MkdirAll(out, os.ModePerm); err != nil {
		return "", fmt.Errorf("ggsutil: creating mission directory: %v", err)
	}
	mf := missionFile{
		GliderName:       m.GliderName,
		MaxDepth:         m.MaxDepth,
		AvgVelocity:      m.AvgVelocity,
		BatteryCapacity:  m.BatteryCapacity,
		BatteryDrain:     m.BatteryDrain,
		SatisfyingRadius: m.SatisfyingRadius,
	}
	for _, w := range m.Waypoints {
		mf.Waypoints = append(mf.Waypoints, [2]float64{w.Lat, w.Lon})
	}
	b := new(bytes.Buffer)
	if err := toml.NewEncoder(b).Encode(mf); err != nil {
		return "", fmt.Errorf("ggsutil: encoding mission: %v", err)
	}
	base := filepath.Join(out, m.Dir()+"_config")
	if err := os.WriteFile(base+".toml", b.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("ggsutil: saving mission: %v", err)
	}
	if err := os.WriteFile(base+".txt", []byte(m.Summary()), 0644); err != nil {
		return "", fmt.Errorf("ggsutil: saving mission summary: %v", err)
	}
	return out, nil
}
