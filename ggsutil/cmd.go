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

// Package ggsutil holds the command-line interface of the Glider
// Guidance System, along with the mission configuration, input
// download and product upload logic behind it.
package ggsutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gliderguidance/ggs"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	missionSets := []*pflag.FlagSet{missionCmd.Flags(), processCmd.Flags(), routeCmd.Flags(), plotCmd.Flags()}
	productSets := []*pflag.FlagSet{processCmd.Flags(), plotCmd.Flags()}

	// Options are the configuration options available to GGS.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "verbose",
			usage: `
              verbose turns on debug logging.`,
			shorthand:  "v",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "mission",
			usage: `
              mission is the path to a mission file written by the mission
              command. If it is set, the mission parameters below are ignored.
              It can include environment variables.`,
			defaultVal: "",
			flagsets:   missionSets,
		},
		{
			name: keyGliderName,
			usage: `
              glider_name is the name of the glider. It is used to name
              output files.`,
			shorthand:  "g",
			defaultVal: "",
			flagsets:   missionSets,
		},
		{
			name: keyMaxDepth,
			usage: `
              max_depth is the maximum dive depth of the glider in meters.
              Currents are averaged from the surface down to this depth.`,
			defaultVal: 1000.0,
			flagsets:   missionSets,
		},
		{
			name: keyAvgVelocity,
			usage: `
              avg_velocity is the average speed of the glider through the
              water in m/s. It is used to estimate travel times.`,
			defaultVal: 0.5,
			flagsets:   missionSets,
		},
		{
			name: keyBatteryCapacity,
			usage: `
              battery_capacity is the battery capacity of the glider in Ah.`,
			defaultVal: 0.0,
			flagsets:   missionSets,
		},
		{
			name: keyBatteryDrain,
			usage: `
              battery_drain is the average battery use of the glider in Ah/day.`,
			defaultVal: 0.0,
			flagsets:   missionSets,
		},
		{
			name: keySatisfyingRadius,
			usage: `
              satisfying_radius is the distance in meters from a waypoint at
              which the waypoint is considered reached.`,
			defaultVal: 1000.0,
			flagsets:   missionSets,
		},
		{
			name: keyWaypoints,
			usage: `
              waypoints is the mission route as a list of numbers alternating
              between latitude and longitude in decimal degrees, for example
              --waypoints=39.45,-74.19,39.29,-73.94. In configuration files
              it is a list of [latitude, longitude] pairs.`,
			defaultVal: []string{},
			flagsets:   missionSets,
		},
		{
			name: "models",
			usage: `
              models lists the ocean model of each input file. Valid options
              are rtofs, cmems and gofs.`,
			shorthand:  "m",
			defaultVal: []string{"cmems"},
			flagsets:   []*pflag.FlagSet{processCmd.Flags()},
		},
		{
			name: "inputs",
			usage: `
              inputs lists the model output files to process, one for each
              entry of models. They can be local paths, http(s) URLs, or
              blob locations (gs://, s3://, file://), and can include
              environment variables.`,
			shorthand:  "i",
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{processCmd.Flags()},
		},
		{
			name: "files",
			usage: `
              files lists depth-averaged and bin-averaged files written by
              the process command to make plots from.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "outdir",
			usage: `
              outdir is the directory where output files are written. It can
              be a blob location (gs://, s3://, file://) and can include
              environment variables.`,
			shorthand:  "o",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{missionCmd.Flags(), processCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "plots",
			usage: `
              plots lists the plots to make. Valid options are magnitude,
              threshold, advantage, profiles and battery.`,
			defaultVal: []string{PlotMagnitude, PlotThreshold, PlotAdvantage, PlotProfiles},
			flagsets:   productSets,
		},
		{
			name: "density",
			usage: `
              density is the spacing in grid cells between current vectors
              on map plots. Zero turns vectors off.`,
			defaultVal: 3,
			flagsets:   productSets,
		},
		{
			name: "tolerance",
			usage: `
              tolerance is the largest difference in degrees between the
              current direction and a route heading for the current to be
              marked as advantageous.`,
			defaultVal: 15.0,
			flagsets:   productSets,
		},
		{
			name: "threshold",
			usage: `
              threshold is the current speed in m/s marked on profile plots.`,
			defaultVal: 0.5,
			flagsets:   productSets,
		},
		{
			name: "pad",
			usage: `
              pad is the margin in degrees kept around the route when cropping
              model data. Zero keeps the whole model grid.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{processCmd.Flags()},
		},
		{
			name: "open",
			usage: `
              open shows the plots in the default image viewer after they
              are written.`,
			defaultVal: false,
			flagsets:   productSets,
		},
		{
			name: "xlsx",
			usage: `
              xlsx is the path of a spreadsheet to write the route analysis to.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{routeCmd.Flags()},
		},
		{
			name: "geojson",
			usage: `
              geojson is the path of a GeoJSON file to write the route to.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{routeCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GGS")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
		}
		Cfg.BindPFlag(option.name, option.flagsets[0].Lookup(option.name))
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(missionCmd)
	Root.AddCommand(processCmd)
	Root.AddCommand(routeCmd)
	Root.AddCommand(plotCmd)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	})
}

// outChan returns a channel whose messages are logged.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for msg := range outChan {
			logrus.Info(strings.TrimSpace(msg))
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the logging level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("ggs: problem reading configuration file: %v", err)
		}
	}
	if Cfg.GetBool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	return nil
}

// missionFromConfig returns the mission given by the configuration.
func missionFromConfig(cfg *viper.Viper) (*Mission, error) {
	var m *Mission
	var err error
	if path := cfg.GetString("mission"); path != "" {
		m, err = LoadMission(path)
	} else {
		m, err = MissionFromConfig(cfg)
	}
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"glider":    m.GliderName,
		"max_depth": m.MaxDepth,
		"waypoints": len(m.Waypoints),
		"id":        m.ID(),
	}).Debug("loaded mission")
	return m, nil
}

// processOptions returns the product options given by the configuration.
func processOptions(cfg *viper.Viper) (ProcessOptions, error) {
	o := ProcessOptions{
		OutDir:    os.ExpandEnv(cfg.GetString("outdir")),
		Plots:     cfg.GetStringSlice("plots"),
		Density:   cfg.GetInt("density"),
		Tolerance: cfg.GetFloat64("tolerance"),
		Threshold: cfg.GetFloat64("threshold"),
		Pad:       cfg.GetFloat64("pad"),
		Open:      cfg.GetBool("open"),
	}
	for i, p := range o.Plots {
		o.Plots[i] = strings.ToLower(strings.TrimSpace(p))
	}
	if !IsBlob(o.OutDir) {
		if err := os.MkdirAll(o.OutDir, os.ModePerm); err != nil {
			return o, fmt.Errorf("ggs: creating output directory: %v", err)
		}
	}
	return o, nil
}

func expandStringSlice(s []string) []string {
	o := make([]string, len(s))
	for i, x := range s {
		o[i] = os.ExpandEnv(x)
	}
	return o
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "ggs",
	Short: "Ocean current guidance for underwater glider missions.",
	Long: `GGS (Glider Guidance System) turns ocean model current forecasts from
RTOFS, CMEMS and GOFS into depth-averaged currents and per-meter current
profiles over the dive depth of a glider, and plots them along the mission route.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'GGS_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	SilenceUsage:      true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of GGS.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("GGS v%s\n", ggs.Version)
	},
	DisableAutoGenTag: true,
}

// missionCmd validates and saves a mission configuration.
var missionCmd = &cobra.Command{
	Use:   "mission",
	Short: "Check and save a mission configuration.",
	Long: `mission checks the mission parameters and writes them to the directory
GGS_<glider_name> in outdir, both as a mission file that can be given to other
commands with --mission and as a human-readable summary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := missionFromConfig(Cfg)
		if err != nil {
			return err
		}
		dir, err := m.Save(os.ExpandEnv(Cfg.GetString("outdir")))
		if err != nil {
			return err
		}
		cmd.Print(m.Summary())
		logrus.Infof("mission saved in %s", dir)
		return nil
	},
	DisableAutoGenTag: true,
}

// processCmd reduces model output files for a mission.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Compute depth-averaged currents from ocean model output.",
	Long: `process reads one ocean model output file for each of the listed models,
computes current profiles in 1-meter bins and their averages over the dive
depth of the glider at every grid cell, and writes the results as netcdf files
named <glider>_<MODEL>_DepthAverage_<time>.nc and <glider>_<MODEL>_BinAverage_<time>.nc,
along with the requested plots.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := missionFromConfig(Cfg)
		if err != nil {
			return err
		}
		opts, err := processOptions(Cfg)
		if err != nil {
			return err
		}
		written, err := Process(context.Background(), m,
			Cfg.GetStringSlice("models"), expandStringSlice(Cfg.GetStringSlice("inputs")), opts, outChan())
		if err != nil {
			return err
		}
		for _, f := range written {
			logrus.Infof("wrote %s", f)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// routeCmd analyzes the mission route.
var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Analyze the mission route.",
	Long: `route prints the distance, heading, travel time and battery use of each
leg of the mission route, and optionally writes them to a spreadsheet and the
route to a GeoJSON file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := missionFromConfig(Cfg)
		if err != nil {
			return err
		}
		a := m.Analysis()
		cmd.Print(a.String())
		if m.BatteryCapacity > 0 {
			cmd.Printf("Battery remaining: %.1f of %.1f Ah\n", a.Remaining(m.BatteryCapacity), m.BatteryCapacity)
		}
		if path := os.ExpandEnv(Cfg.GetString("xlsx")); path != "" {
			if err := a.WriteXLSX(path); err != nil {
				return err
			}
			logrus.Infof("wrote %s", path)
		}
		if path := os.ExpandEnv(Cfg.GetString("geojson")); path != "" {
			b, err := a.GeoJSON()
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, b, 0644); err != nil {
				return fmt.Errorf("ggs: writing route: %v", err)
			}
			logrus.Infof("wrote %s", path)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// plotCmd makes plots from previously written results.
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot previously computed currents.",
	Long: `plot makes the requested plots from depth-averaged and bin-averaged
files written by the process command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := missionFromConfig(Cfg)
		if err != nil {
			return err
		}
		opts, err := processOptions(Cfg)
		if err != nil {
			return err
		}
		written, err := Plot(context.Background(), m, expandStringSlice(Cfg.GetStringSlice("files")), opts, outChan())
		if err != nil {
			return err
		}
		for _, f := range written {
			logrus.Infof("wrote %s", f)
		}
		return nil
	},
	DisableAutoGenTag: true,
}
