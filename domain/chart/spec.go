package chart

// Kind is the plot type of a chart
type Kind string

const (
	KindScatter Kind = "scatter"
	KindBar     Kind = "bar"
	KindLine    Kind = "line"
	KindHeatmap Kind = "heatmap"
	KindPie     Kind = "pie"
	KindRidge   Kind = "ridge"
)

// Trace is one series. Which fields are set depends on the chart kind:
// scatter/bar/line use X and Y, pie uses Labels and Values, heatmap uses X, Y labels
// via Columns/Rows and Z, ridge uses one trace per group with X and Y as the density curve.
type Trace struct {
	Name   string      `json:"name,omitempty"`
	X      []float64   `json:"x,omitempty"`
	Y      []float64   `json:"y,omitempty"`
	Labels []string    `json:"labels,omitempty"`
	Values []float64   `json:"values,omitempty"`
	Z      [][]float64 `json:"z,omitempty"`
	// Missing marks heatmap cells with no rows; Z holds 0 there
	Missing [][]bool `json:"missing,omitempty"`
	Mode    string   `json:"mode,omitempty"` // "markers", "lines"
	// Offset is the vertical baseline of a ridge trace
	Offset float64 `json:"offset,omitempty"`
}

// Annotation is a text label pinned to a heatmap cell
type Annotation struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

// Axis describes one axis
type Axis struct {
	Title      string   `json:"title,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// Spec is a declarative chart description consumed by the browser or the PNG renderer
type Spec struct {
	Slot        string       `json:"slot"`
	Kind        Kind         `json:"kind"`
	Title       string       `json:"title"`
	XAxis       Axis         `json:"x_axis"`
	YAxis       Axis         `json:"y_axis"`
	ColorBy     string       `json:"color_by,omitempty"`
	ColorScale  []string     `json:"color_scale,omitempty"`
	Traces      []Trace      `json:"traces"`
	Annotations []Annotation `json:"annotations,omitempty"`
	// Placeholder is set when there was no data to plot
	Placeholder bool `json:"placeholder"`
	Visible     bool `json:"visible"`
}

// Empty reports whether the spec carries no plottable points
func (s *Spec) Empty() bool {
	for _, t := range s.Traces {
		if len(t.Y) > 0 || len(t.Values) > 0 || len(t.Z) > 0 {
			return false
		}
	}
	return true
}
