package render

import (
	"bytes"
	"image/png"
	"testing"

	"shoptrends/domain/chart"
	"shoptrends/domain/dataset"
	"shoptrends/internal/aggregate"
	"shoptrends/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarAndLine(t *testing.T) {
	table := aggregate.SummaryTable{
		Column:  dataset.ColGender,
		Measure: dataset.ColPurchaseAmount,
		Rows:    []aggregate.Row{{Key: "Male", Value: 50, Count: 1}, {Key: "Female", Value: 100, Count: 1}},
	}

	bar := Bar("gender", "Gender Spending Comparison", table)
	assert.Equal(t, chart.KindBar, bar.Kind)
	assert.False(t, bar.Placeholder)
	assert.Equal(t, []string{"Male", "Female"}, bar.XAxis.Categories)
	assert.Equal(t, []float64{50, 100}, bar.Traces[0].Y)

	line := Line("seasonal", "Seasonal Spending Trends", table)
	assert.Equal(t, chart.KindLine, line.Kind)
	assert.Equal(t, "lines+markers", line.Traces[0].Mode)
}

func TestEmptyInputsGivePlaceholders(t *testing.T) {
	empty := aggregate.SummaryTable{Column: dataset.ColGender, Measure: dataset.ColPurchaseAmount}

	tests := map[string]chart.Spec{
		"bar":     Bar("s", "Bar", empty),
		"line":    Line("s", "Line", empty),
		"pie":     Pie("s", "Pie", empty),
		"heatmap": DeviationHeatmap("s", "Heat", aggregate.Matrix{}, 50),
		"scatter": Scatter("s", "Scatter", aggregate.Projection{}),
		"ridge":   Ridge("s", "Ridge", aggregate.Groups{}, RidgeBandwidth),
	}
	for name, spec := range tests {
		t.Run(name, func(t *testing.T) {
			assert.True(t, spec.Placeholder)
			assert.True(t, spec.Visible)
			assert.True(t, spec.Empty())
			assert.Empty(t, spec.Annotations)
		})
	}
	assert.Equal(t, NoDataTitle, tests["pie"].Title)
}

func TestPie(t *testing.T) {
	spec := Pie("payment", "Payment Method Comparison", aggregate.SummaryTable{
		Column: dataset.ColPaymentMethod,
		Rows:   []aggregate.Row{{Key: "PayPal", Value: 50}, {Key: "Venmo", Value: 100}},
	})
	assert.Equal(t, "Payment Method Comparison", spec.Title)
	assert.Equal(t, []string{"PayPal", "Venmo"}, spec.Traces[0].Labels)
	assert.Equal(t, []float64{50, 100}, spec.Traces[0].Values)
}

func TestDeviationHeatmapAnnotations(t *testing.T) {
	m := aggregate.Matrix{
		RowColumn: dataset.ColSeason,
		ColColumn: dataset.ColCategory,
		RowKeys:   []string{"Summer", "Winter"},
		ColKeys:   []string{"Clothing", "Footwear"},
		Cells:     [][]float64{{50, 0}, {62.5, 100}},
		Present:   [][]bool{{true, false}, {true, true}},
	}
	overall := 70.0

	spec := DeviationHeatmap("heat", "Seasonal Category Spending Heatmap", m, overall)
	require.Len(t, spec.Annotations, 3, "missing cells are not annotated")
	assert.Equal(t, HeatmapScale, spec.ColorScale)
	assert.True(t, spec.Traces[0].Missing[0][1])

	want := map[[2]int]string{{0, 0}: "-28.6%", {1, 0}: "-10.7%", {1, 1}: "42.9%"}
	for _, a := range spec.Annotations {
		assert.Equal(t, want[[2]int{a.Row, a.Col}], a.Text)
		assert.Equal(t, Deviation(m.Cells[a.Row][a.Col], overall), a.Value)
	}
}

func TestDeviation(t *testing.T) {
	tests := []struct {
		cell, overall, want float64
	}{
		{75, 75, 0},
		{100, 75, 33.3},
		{50, 75, -33.3},
		{80, 64, 25},
		{61.1, 61, 0.2},
	}
	for _, tt := range tests {
		if got := Deviation(tt.cell, tt.overall); got != tt.want {
			t.Errorf("Deviation(%v, %v) = %v, want %v", tt.cell, tt.overall, got, tt.want)
		}
	}
}

func TestHeatmapWithZeroOverallHasNoAnnotations(t *testing.T) {
	m := aggregate.Matrix{RowKeys: []string{"a"}, ColKeys: []string{"b"}, Cells: [][]float64{{0}}, Present: [][]bool{{true}}}
	spec := DeviationHeatmap("heat", "Heat", m, 0)
	assert.False(t, spec.Placeholder)
	assert.Empty(t, spec.Annotations)
}

func TestScatterTrendline(t *testing.T) {
	p := aggregate.Projection{
		XColumn: dataset.ColAge,
		YColumn: dataset.ColPurchaseAmount,
		ColorBy: dataset.ColGender,
		Groups: []aggregate.PointGroup{
			{Name: "Male", X: []float64{20, 40}, Y: []float64{50, 70}},
			{Name: "Female", X: []float64{60}, Y: []float64{90}},
		},
	}
	spec := Scatter("scatter", "Age vs Spending", p)
	require.Len(t, spec.Traces, 3)
	assert.Equal(t, dataset.ColGender, spec.ColorBy)

	line := spec.Traces[2]
	assert.Equal(t, TrendlineName, line.Name)
	assert.Equal(t, []float64{20, 60}, line.X)
	assert.InDelta(t, 50, line.Y[0], 1e-9)
	assert.InDelta(t, 90, line.Y[1], 1e-9)
}

func TestTrendlineNeedsSpread(t *testing.T) {
	_, ok := Trendline([]float64{30, 30}, []float64{1, 2})
	assert.False(t, ok)
	_, ok = Trendline([]float64{30}, []float64{1})
	assert.False(t, ok)
}

func TestRidgeDensities(t *testing.T) {
	g := aggregate.Groups{
		Column:  dataset.ColSeason,
		Keys:    []string{"Spring", "Fall"},
		Samples: [][]float64{{0.2, 0.21, 0.5}, {0.8}},
	}
	spec := Ridge("ridge", "Previous Purchase percentage", g, RidgeBandwidth)
	require.Len(t, spec.Traces, 2)

	assert.Equal(t, 1.0, spec.Traces[0].Offset, "first group is drawn on top")
	assert.Equal(t, 0.0, spec.Traces[1].Offset)
	for _, tr := range spec.Traces {
		assert.Len(t, tr.X, ridgePoints)
		assert.Len(t, tr.Y, ridgePoints)
		peak := 0.0
		for _, y := range tr.Y {
			assert.GreaterOrEqual(t, y, 0.0)
			peak = max(peak, y)
		}
		assert.InDelta(t, ridgeHeight, peak, 1e-9)
	}
}

func TestKDEIntegratesToOne(t *testing.T) {
	grid := make([]float64, 2001)
	for i := range grid {
		grid[i] = float64(i) / 1000
	}
	density := KDE([]float64{0.5, 1.0, 1.5}, grid, 0.05)

	area := 0.0
	for _, d := range density {
		area += d * 0.001
	}
	assert.InDelta(t, 1.0, area, 1e-3)
}

func TestPNGRendersEverySpec(t *testing.T) {
	ds := testkit.SyntheticDataset(300, 7)
	view := dataset.FullView(ds)
	overall, _ := aggregate.OverallMean(view)
	proj, err := aggregate.Project(view, dataset.ColAge, dataset.ColPurchaseAmount, dataset.ColGender)
	require.NoError(t, err)

	specs := []chart.Spec{
		Bar("bar", "Bar", aggregate.MeanBy(view, dataset.ColCategory)),
		Line("line", "Line", aggregate.MeanBy(view, dataset.ColSeason)),
		Pie("pie", "Pie", aggregate.MeanBy(view, dataset.ColPaymentMethod)),
		Scatter("scatter", "Scatter", proj),
		DeviationHeatmap("heat", "Heat", aggregate.MeanByPair(view, dataset.ColSeason, dataset.ColCategory), overall),
		Ridge("ridge", "Ridge", aggregate.SamplesBy(view, dataset.ColGender, aggregate.PreviousPurchaseRatio), RidgeBandwidth),
		Pie("empty", "Empty", aggregate.SummaryTable{}),
		Bar("single", "Single", aggregate.SummaryTable{Rows: []aggregate.Row{{Key: "Only", Value: 42}}}),
	}
	for _, spec := range specs {
		t.Run(spec.Slot, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, PNG(&buf, spec, 400, 300))
			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, 400, img.Bounds().Dx())
			assert.Equal(t, 300, img.Bounds().Dy())
		})
	}
}

func TestPNGRejectsUnknownKind(t *testing.T) {
	spec := chart.Spec{Kind: "radar", Traces: []chart.Trace{{Y: []float64{1}}}}
	assert.Error(t, PNG(&bytes.Buffer{}, spec, 100, 100))
}
