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

	"github.com/gliderguidance/ggs"
)

// loadResult reads a depth-averaged or bin-averaged file written by
// Process.
func loadResult(ctx context.Context, path string, c chan string) (*ggs.Result, error) {
	local, err := maybeDownload(ctx, os.ExpandEnv(path), c)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(local)
	if err != nil {
		return nil, fmt.Errorf("ggsutil: %v", err)
	}
	defer f.Close()
	ds, err := ggs.LoadDataset(f)
	if err != nil {
		return nil, fmt.Errorf("ggsutil: loading %s: %v", path, err)
	}
	res := &ggs.Result{Provenance: ds.Provenance}
	switch {
	case ds.Data[ggs.MagDepthAvg] != nil:
		res.DepthAverage = ds
	case ds.Data[ggs.MagBinAvg] != nil:
		res.BinAverage = ds
		res.MaxBins = ds.DimLen(ggs.BinDim)
	default:
		return nil, fmt.Errorf("ggsutil: %s holds neither depth-averaged nor bin-averaged currents", path)
	}
	return res, nil
}

// Plot renders the plots listed in opts from files previously written
// by Process and returns the locations of the images. Map plots are
// drawn from depth-averaged files and profiles from bin-averaged files.
func Plot(ctx context.Context, m *Mission, files []string, opts ProcessOptions, c chan string) ([]string, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	for _, p := range opts.Plots {
		if err := checkPlot(p); err != nil {
			return nil, err
		}
	}
	out := &products{outDir: opts.OutDir}
	for _, file := range files {
		res, err := loadResult(ctx, file, c)
		if err != nil {
			return nil, err
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
