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
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/ctessum/requestcache"
	"github.com/gliderguidance/ggs"
	"github.com/gliderguidance/ggs/ggsplot"
	"github.com/gliderguidance/ggs/route"
	"github.com/skratchdot/open-golang/open"
	"gonum.org/v1/plot"
)

// Plot names accepted by Process and RenderPlots.
const (
	PlotMagnitude = "magnitude"
	PlotThreshold = "threshold"
	PlotAdvantage = "advantage"
	PlotProfiles  = "profiles"
	PlotBattery   = "battery"
)

// ProcessOptions control the products written by Process.
type ProcessOptions struct {
	// OutDir is the local directory or blob location where
	// products are written.
	OutDir string

	// Plots lists the plots to render.
	Plots []string

	// Density is the spacing of current vectors on map plots, in grid cells.
	Density int

	// Tolerance [degrees] is the heading tolerance of advantage plots
	// and Threshold [m/s] the speed marked on profile plots.
	Tolerance, Threshold float64

	// Pad [degrees] is the margin kept around the route when cropping
	// model data. The whole grid is used if Pad <= 0 or the mission has
	// no waypoints.
	Pad float64

	// Open shows rendered plots in the default viewer.
	Open bool
}

// modelRequest identifies one model output file.
type modelRequest struct {
	model, path string
}

// newModelCache returns a cache that downloads and reads model
// output files, reading each file only once.
func newModelCache(c chan string) *requestcache.Cache {
	return requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
		r := request.(modelRequest)
		spec, err := ggs.LookupModel(r.model)
		if err != nil {
			return nil, err
		}
		path, err := maybeDownload(ctx, os.ExpandEnv(r.path), c)
		if err != nil {
			return nil, err
		}
		return ggs.ReadModel(path, spec, c)
	}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(len(ggs.ModelSpecs)))
}

// Process reads the output file inputs[i] of each of models[i],
// reduces it for mission m, and writes the depth-averaged and
// bin-averaged results and the requested plots. It returns the
// locations of the files it wrote.
func Process(ctx context.Context, m *Mission, models, inputs []string, opts ProcessOptions, c chan string) ([]string, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if len(models) != len(inputs) {
		return nil, fmt.Errorf("ggsutil: %d models but %d input files", len(models), len(inputs))
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("ggsutil: no model input files specified")
	}
	for _, p := range opts.Plots {
		if err := checkPlot(p); err != nil {
			return nil, err
		}
	}

	cache := newModelCache(c)
	reqs := make([]*requestcache.Request, len(models))
	for i := range models {
		r := modelRequest{model: strings.ToLower(models[i]), path: inputs[i]}
		reqs[i] = cache.NewRequest(ctx, r, r.model+"|"+r.path)
	}

	out := &products{outDir: opts.OutDir}
	for i, req := range reqs {
		result, err := req.Result()
		if err != nil {
			return nil, fmt.Errorf("ggsutil: reading %s: %v", inputs[i], err)
		}
		d := result.(*ggs.ModelData)
		if opts.Pad > 0 && len(m.Waypoints) > 0 {
			if d, err = d.Subset(route.Bounds(m.Waypoints, opts.Pad)); err != nil {
				return nil, fmt.Errorf("ggsutil: cropping %s to the route: %v", inputs[i], err)
			}
		}
		res, err := ggs.Broadcast(ctx, d, m.MaxDepth)
		if err != nil {
			return nil, err
		}
		if c != nil {
			c <- fmt.Sprintf("%s: %s", res.Provenance.ModelName, res.Summary())
		}
		for _, x := range []struct {
			kind string
			ds   *ggs.Dataset
		}{
			{ggs.KindDepthAverage, res.DepthAverage},
			{ggs.KindBinAverage, res.BinAverage},
		} {
			x.ds.Provenance.Labels = m.labels(x.ds.Provenance.Labels)
			name := ggs.OutputName(m.GliderName, res.Provenance.ModelName, x.kind, res.Provenance.ValidTime)
			if err := out.save(name, func(path string) error { return writeDataset(path, x.ds) }); err != nil {
				return nil, err
			}
		}
		if err := renderPlots(res, m, opts, c, out.save); err != nil {
			return nil, err
		}
	}
	if contains(opts.Plots, PlotBattery) {
		if err := out.battery(m); err != nil {
			return nil, err
		}
	}
	return out.finish(ctx, opts.Open, c)
}

// labels returns the provenance labels of a product made for m.
func (m *Mission) labels(in map[string]string) map[string]string {
	o := map[string]string{
		"glider_name": m.GliderName,
		"mission_id":  m.ID(),
		"max_depth":   fmt.Sprintf("%g", m.MaxDepth),
	}
	for k, v := range in {
		o[k] = v
	}
	return o
}

func writeDataset(path string, ds *ggs.Dataset) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ggsutil: creating output file: %v", err)
	}
	if err := ds.Write(w); err != nil {
		w.Close()
		return fmt.Errorf("ggsutil: writing %s: %v", path, err)
	}
	return w.Close()
}

func checkPlot(name string) error {
	switch name {
	case PlotMagnitude, PlotThreshold, PlotAdvantage, PlotProfiles, PlotBattery:
		return nil
	}
	return fmt.Errorf("ggsutil: unknown plot %q; valid options are %s, %s, %s, %s and %s",
		name, PlotMagnitude, PlotThreshold, PlotAdvantage, PlotProfiles, PlotBattery)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// plotName returns the image file name of a plot of one result.
func plotName(m *Mission, prov ggs.Provenance, kind string) string {
	return strings.TrimSuffix(ggs.OutputName(m.GliderName, prov.ModelName, kind, prov.ValidTime), ".nc") + ".png"
}

// renderPlots draws the map and profile plots of res requested in opts.
// Map plots are skipped if res has no depth-averaged dataset and
// profiles if it has no bin-averaged dataset.
func renderPlots(res *ggs.Result, m *Mission, opts ProcessOptions, c chan string, save func(string, func(string) error) error) error {
	po := ggsplot.Options{Route: m.Waypoints, Density: opts.Density}
	savePlot := func(kind string, p *plot.Plot) error {
		return save(plotName(m, res.Provenance, kind), func(path string) error { return ggsplot.Save(p, path) })
	}
	for _, name := range opts.Plots {
		var p *plot.Plot
		var err error
		if name == PlotProfiles && res.BinAverage == nil || name != PlotProfiles && res.DepthAverage == nil {
			continue
		}
		switch name {
		case PlotMagnitude:
			p, err = ggsplot.Magnitude(res.DepthAverage, po)
		case PlotThreshold:
			p, err = ggsplot.Threshold(res.DepthAverage, ggsplot.DefaultLevels, po)
		case PlotAdvantage:
			p, err = ggsplot.Advantage(res.DepthAverage, opts.Tolerance, ggsplot.DefaultLevels, po)
			if err == ggsplot.ErrNoRoute {
				if c != nil {
					c <- "Skipping the advantage plot: the mission route has fewer than two waypoints"
				}
				continue
			}
		case PlotProfiles:
			for k, w := range m.Waypoints {
				p, err := ggsplot.Profiles(res, w.Lat, w.Lon, opts.Threshold)
				if err == ggsplot.ErrNoData {
					if c != nil {
						c <- fmt.Sprintf("Skipping the profile at waypoint %d: no model data", k+1)
					}
					continue
				} else if err != nil {
					return err
				}
				if err := savePlot(fmt.Sprintf("Profile%d", k+1), p); err != nil {
					return err
				}
			}
			continue
		default:
			continue
		}
		if err != nil {
			return err
		}
		if err := savePlot(strings.ToUpper(name[:1])+name[1:], p); err != nil {
			return err
		}
	}
	return nil
}

// products tracks the files written by one command.
type products struct {
	outDir         string
	up             uploader
	written, local []string
}

// save writes the product name with write, which is given a local path.
func (p *products) save(name string, write func(path string) error) error {
	dst := joinOut(p.outDir, name)
	path, err := p.up.maybeUpload(dst)
	if err != nil {
		return err
	}
	if err := write(path); err != nil {
		return err
	}
	p.written = append(p.written, dst)
	p.local = append(p.local, path)
	return nil
}

// battery draws the battery gauge of m if its route has at least
// one leg and its battery capacity is known.
func (p *products) battery(m *Mission) error {
	if len(m.Waypoints) < 2 || m.BatteryCapacity <= 0 {
		return nil
	}
	plt, err := ggsplot.Battery(m.Analysis(), m.BatteryCapacity)
	if err != nil {
		return err
	}
	return p.save(m.Dir()+"_Battery.png", func(path string) error { return ggsplot.Save(plt, path) })
}

// finish uploads products bound for blob storage and returns the
// locations of all products.
func (p *products) finish(ctx context.Context, openPlots bool, c chan string) ([]string, error) {
	if err := p.up.uploadOutput(ctx, c); err != nil {
		return nil, err
	}
	if openPlots {
		for _, path := range p.local {
			if !strings.HasSuffix(path, ".png") {
				continue
			}
			if err := open.Run(path); err != nil && c != nil {
				c <- fmt.Sprintf("opening %s: %v", path, err)
			}
		}
	}
	return p.written, nil
}
