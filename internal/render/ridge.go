package render

import (
	"math"

	"shoptrends/domain/chart"
	"shoptrends/internal/aggregate"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// RidgeBandwidth is the Gaussian kernel bandwidth of the ridge densities
	RidgeBandwidth = 0.01
	ridgePoints    = 200
	// ridgeHeight is the peak height of a density relative to the row spacing
	ridgeHeight = 1.6
)

// Ridge renders one kernel density curve per group, stacked vertically in group order
// with the first group on top. All curves share one x grid.
func Ridge(slot, title string, g aggregate.Groups, bandwidth float64) chart.Spec {
	if bandwidth <= 0 {
		bandwidth = RidgeBandwidth
	}

	var all []float64
	for _, s := range g.Samples {
		for _, v := range s {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				all = append(all, v)
			}
		}
	}
	if g.Empty() || len(all) == 0 {
		s := Placeholder(slot, chart.KindRidge, title)
		s.ColorBy = g.Column
		return s
	}

	grid := make([]float64, ridgePoints)
	floats.Span(grid, floats.Min(all)-3*bandwidth, floats.Max(all)+3*bandwidth)

	spec := chart.Spec{
		Slot:       slot,
		Kind:       chart.KindRidge,
		Title:      title,
		XAxis:      chart.Axis{Title: "Previous_Purchases / Purchase_Amount_USD"},
		YAxis:      chart.Axis{Title: g.Column, Categories: g.Keys},
		ColorBy:    g.Column,
		ColorScale: []string{"viridis"},
		Visible:    true,
	}

	n := len(g.Keys)
	for i, key := range g.Keys {
		density := KDE(g.Samples[i], grid, bandwidth)
		if peak := floats.Max(density); peak > 0 {
			floats.Scale(ridgeHeight/peak, density)
		}
		spec.Traces = append(spec.Traces, chart.Trace{
			Name:   key,
			X:      grid,
			Y:      density,
			Mode:   "lines",
			Offset: float64(n - 1 - i),
		})
	}
	return spec
}

// KDE evaluates a Gaussian kernel density estimate of samples at each grid point
func KDE(samples, grid []float64, bandwidth float64) []float64 {
	out := make([]float64, len(grid))
	var kept float64
	for _, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		kernel := distuv.Normal{Mu: s, Sigma: bandwidth}
		for i, x := range grid {
			// beyond 6 sigma the contribution underflows anyway
			if math.Abs(x-s) > 6*bandwidth {
				continue
			}
			out[i] += kernel.Prob(x)
		}
		kept++
	}
	if kept > 0 {
		floats.Scale(1/kept, out)
	}
	return out
}
