package render

import (
	"math"

	"shoptrends/domain/chart"
	"shoptrends/internal/aggregate"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TrendlineName names the fitted trace of a scatter chart
const TrendlineName = "OLS trendline"

// Scatter renders one marker trace per projection group plus an ordinary least squares
// trendline over all points. The trendline is omitted when x has no spread.
func Scatter(slot, title string, p aggregate.Projection) chart.Spec {
	if p.Empty() {
		s := Placeholder(slot, chart.KindScatter, title)
		s.XAxis = chart.Axis{Title: p.XColumn}
		s.YAxis = chart.Axis{Title: p.YColumn}
		s.ColorBy = p.ColorBy
		return s
	}

	spec := chart.Spec{
		Slot:    slot,
		Kind:    chart.KindScatter,
		Title:   title,
		XAxis:   chart.Axis{Title: p.XColumn},
		YAxis:   chart.Axis{Title: p.YColumn},
		ColorBy: p.ColorBy,
		Visible: true,
	}

	var xs, ys []float64
	for _, g := range p.Groups {
		spec.Traces = append(spec.Traces, chart.Trace{
			Name: g.Name,
			X:    g.X,
			Y:    g.Y,
			Mode: "markers",
		})
		xs = append(xs, g.X...)
		ys = append(ys, g.Y...)
	}

	if line, ok := Trendline(xs, ys); ok {
		spec.Traces = append(spec.Traces, line)
	}
	return spec
}

// Trendline fits y = a + b*x and returns it as a two-point line trace spanning the
// observed x range
func Trendline(xs, ys []float64) (chart.Trace, bool) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return chart.Trace{}, false
	}
	lo, hi := floats.Min(xs), floats.Max(xs)
	if lo == hi {
		return chart.Trace{}, false
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return chart.Trace{}, false
	}
	return chart.Trace{
		Name: TrendlineName,
		X:    []float64{lo, hi},
		Y:    []float64{alpha + beta*lo, alpha + beta*hi},
		Mode: "lines",
	}, true
}
