package render

import (
	"bytes"
	"io"

	"shoptrends/domain/chart"
	"shoptrends/internal/errors"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 480
)

// PNG rasterises a spec. Bar, line, pie, scatter and ridge specs go through go-chart,
// heatmaps are painted cell by cell. Placeholders, and specs go-chart refuses (for
// example a single point with no range), become a labelled blank image.
func PNG(w io.Writer, spec chart.Spec, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if spec.Placeholder || spec.Empty() {
		return writeMessage(w, width, height, spec.Title, NoDataTitle)
	}

	var buf bytes.Buffer
	var err error
	switch spec.Kind {
	case chart.KindBar:
		err = barPNG(&buf, spec, width, height)
	case chart.KindLine, chart.KindScatter:
		err = seriesPNG(&buf, spec, width, height)
	case chart.KindPie:
		err = piePNG(&buf, spec, width, height)
	case chart.KindRidge:
		err = ridgePNG(&buf, spec, width, height)
	case chart.KindHeatmap:
		err = heatmapPNG(&buf, spec, width, height)
	default:
		return errors.InvalidInput("cannot rasterise chart kind " + string(spec.Kind))
	}
	if err != nil {
		return writeMessage(w, width, height, spec.Title, "chart could not be drawn: "+err.Error())
	}
	_, err = buf.WriteTo(w)
	return err
}

func barPNG(w io.Writer, spec chart.Spec, width, height int) error {
	t := spec.Traces[0]
	bars := make([]gochart.Value, len(t.Y))
	for i, v := range t.Y {
		bars[i] = gochart.Value{Value: v, Label: category(spec.XAxis, i)}
	}
	graph := gochart.BarChart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		BarWidth:   width / (2*len(bars) + 1),
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		Bars:       bars,
	}
	return graph.Render(gochart.PNG, w)
}

func piePNG(w io.Writer, spec chart.Spec, width, height int) error {
	t := spec.Traces[0]
	values := make([]gochart.Value, len(t.Values))
	for i, v := range t.Values {
		values[i] = gochart.Value{Value: v, Label: t.Labels[i]}
	}
	graph := gochart.PieChart{
		Title:  spec.Title,
		Width:  width,
		Height: height,
		Values: values,
	}
	return graph.Render(gochart.PNG, w)
}

// seriesPNG draws line and scatter specs. Categorical x axes get one tick per category.
func seriesPNG(w io.Writer, spec chart.Spec, width, height int) error {
	graph := gochart.Chart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12}},
		XAxis:      gochart.XAxis{Name: spec.XAxis.Title},
		YAxis:      gochart.YAxis{Name: spec.YAxis.Title},
	}
	if n := len(spec.XAxis.Categories); n > 0 {
		ticks := make([]gochart.Tick, n)
		for i, c := range spec.XAxis.Categories {
			ticks[i] = gochart.Tick{Value: float64(i), Label: c}
		}
		graph.XAxis.Ticks = ticks
	}

	for i, t := range spec.Traces {
		style := gochart.Style{
			StrokeColor: gochart.GetDefaultColor(i),
			StrokeWidth: 2,
		}
		switch t.Mode {
		case "markers":
			style.StrokeWidth = gochart.Disabled
			style.DotWidth = 3
			style.DotColor = gochart.GetDefaultColor(i).WithAlpha(160)
		case "lines+markers":
			style.DotWidth = 4
			style.DotColor = gochart.GetDefaultColor(i)
		}
		if t.Name == TrendlineName {
			style.StrokeColor = drawing.ColorBlack
		}
		graph.Series = append(graph.Series, gochart.ContinuousSeries{
			Name:    t.Name,
			XValues: t.X,
			YValues: t.Y,
			Style:   style,
		})
	}
	if len(spec.Traces) > 1 {
		graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}
	}
	return graph.Render(gochart.PNG, w)
}

// ridgePNG lifts every density by its offset and labels the offsets on the y axis
func ridgePNG(w io.Writer, spec chart.Spec, width, height int) error {
	graph := gochart.Chart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12}},
		XAxis:      gochart.XAxis{Name: spec.XAxis.Title},
	}
	ticks := make([]gochart.Tick, 0, len(spec.Traces))
	for i, t := range spec.Traces {
		ys := make([]float64, len(t.Y))
		for j, y := range t.Y {
			ys[j] = t.Offset + y
		}
		color := viridis(i, len(spec.Traces))
		graph.Series = append(graph.Series, gochart.ContinuousSeries{
			Name:    t.Name,
			XValues: t.X,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: color,
				StrokeWidth: 1.5,
				FillColor:   color.WithAlpha(90),
			},
		})
		ticks = append(ticks, gochart.Tick{Value: t.Offset, Label: t.Name})
	}
	// go-chart expects ticks in ascending order
	for i, j := 0, len(ticks)-1; i < j; i, j = i+1, j-1 {
		ticks[i], ticks[j] = ticks[j], ticks[i]
	}
	graph.YAxis = gochart.YAxis{Name: spec.YAxis.Title, Ticks: ticks}
	return graph.Render(gochart.PNG, w)
}

func category(axis chart.Axis, i int) string {
	if i < len(axis.Categories) {
		return axis.Categories[i]
	}
	return ""
}

var viridisStops = []drawing.Color{
	{R: 68, G: 1, B: 84, A: 255},
	{R: 59, G: 82, B: 139, A: 255},
	{R: 33, G: 145, B: 140, A: 255},
	{R: 94, G: 201, B: 98, A: 255},
	{R: 253, G: 231, B: 37, A: 255},
}

// viridis picks the i-th of n evenly spaced colors along the viridis ramp
func viridis(i, n int) drawing.Color {
	if n <= 1 {
		return viridisStops[0]
	}
	pos := float64(i) / float64(n-1) * float64(len(viridisStops)-1)
	lo := int(pos)
	if lo >= len(viridisStops)-1 {
		return viridisStops[len(viridisStops)-1]
	}
	return lerp(viridisStops[lo], viridisStops[lo+1], pos-float64(lo))
}

func lerp(a, b drawing.Color, t float64) drawing.Color {
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
