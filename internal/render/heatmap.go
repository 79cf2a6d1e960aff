package render

import (
	"fmt"
	"math"

	"shoptrends/domain/chart"
	"shoptrends/internal/aggregate"
)

// HeatmapScale is the two-stop color scale of the seasonal heatmap
var HeatmapScale = []string{"white", "blue"}

// Heatmap renders a Matrix with rows on y and columns on x. Cells with no rows are
// flagged in Missing.
func Heatmap(slot, title string, m aggregate.Matrix, scale []string) chart.Spec {
	if m.Empty() {
		s := Placeholder(slot, chart.KindHeatmap, title)
		s.XAxis = chart.Axis{Title: m.ColColumn}
		s.YAxis = chart.Axis{Title: m.RowColumn}
		s.ColorScale = scale
		return s
	}

	z := make([][]float64, len(m.Cells))
	missing := make([][]bool, len(m.Cells))
	anyMissing := false
	for i := range m.Cells {
		z[i] = append([]float64(nil), m.Cells[i]...)
		missing[i] = make([]bool, len(m.Cells[i]))
		for j := range m.Cells[i] {
			if !m.Present[i][j] {
				missing[i][j] = true
				anyMissing = true
			}
		}
	}
	trace := chart.Trace{Z: z}
	if anyMissing {
		trace.Missing = missing
	}

	return chart.Spec{
		Slot:       slot,
		Kind:       chart.KindHeatmap,
		Title:      title,
		XAxis:      chart.Axis{Title: m.ColColumn, Categories: m.ColKeys},
		YAxis:      chart.Axis{Title: m.RowColumn, Categories: m.RowKeys},
		ColorScale: scale,
		Traces:     []chart.Trace{trace},
		Visible:    true,
	}
}

// DeviationHeatmap is Heatmap with every present cell annotated by its percentage
// deviation from overall, the mean of the filtered rows before aggregation.
// A zero overall mean leaves the cells unannotated.
func DeviationHeatmap(slot, title string, m aggregate.Matrix, overall float64) chart.Spec {
	spec := Heatmap(slot, title, m, HeatmapScale)
	if spec.Placeholder || overall == 0 {
		return spec
	}
	for i := range m.Cells {
		for j := range m.Cells[i] {
			if !m.Present[i][j] {
				continue
			}
			v := Deviation(m.Cells[i][j], overall)
			spec.Annotations = append(spec.Annotations, chart.Annotation{
				Row:   i,
				Col:   j,
				Value: v,
				Text:  fmt.Sprintf("%.1f%%", v),
			})
		}
	}
	return spec
}

// Deviation is (cell-overall)/overall*100 rounded to one decimal
func Deviation(cell, overall float64) float64 {
	return roundTo((cell-overall)/overall*100, 1)
}

// roundTo rounds half to even, the way numpy's round does
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}
