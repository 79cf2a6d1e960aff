// Package render turns aggregation results into declarative chart specs. Every
// function is a one-shot pure transform; empty input yields a placeholder spec.
package render

import (
	"shoptrends/domain/chart"
	"shoptrends/internal/aggregate"
)

// NoDataTitle is the title of a placeholder chart
const NoDataTitle = "No data available for the selected filters"

// Placeholder returns an empty, visible spec of the given kind
func Placeholder(slot string, kind chart.Kind, title string) chart.Spec {
	if title == "" {
		title = NoDataTitle
	}
	return chart.Spec{
		Slot:        slot,
		Kind:        kind,
		Title:       title,
		Traces:      []chart.Trace{},
		Placeholder: true,
		Visible:     true,
	}
}

// Bar renders one bar per table row
func Bar(slot, title string, t aggregate.SummaryTable) chart.Spec {
	return categorical(slot, chart.KindBar, title, t, "")
}

// Line renders the table rows as a line in table order
func Line(slot, title string, t aggregate.SummaryTable) chart.Spec {
	return categorical(slot, chart.KindLine, title, t, "lines+markers")
}

func categorical(slot string, kind chart.Kind, title string, t aggregate.SummaryTable, mode string) chart.Spec {
	if t.Empty() {
		s := Placeholder(slot, kind, title)
		s.XAxis = chart.Axis{Title: t.Column}
		s.YAxis = chart.Axis{Title: t.Measure}
		return s
	}

	keys := t.Keys()
	x := make([]float64, len(keys))
	for i := range keys {
		x[i] = float64(i)
	}
	return chart.Spec{
		Slot:  slot,
		Kind:  kind,
		Title: title,
		XAxis: chart.Axis{Title: t.Column, Categories: keys},
		YAxis: chart.Axis{Title: t.Measure},
		Traces: []chart.Trace{{
			Name: t.Measure,
			X:    x,
			Y:    t.Values(),
			Mode: mode,
		}},
		Visible: true,
	}
}

// Pie renders one slice per table row. An empty table keeps the chart but swaps the
// title for NoDataTitle.
func Pie(slot, title string, t aggregate.SummaryTable) chart.Spec {
	if t.Empty() {
		return Placeholder(slot, chart.KindPie, NoDataTitle)
	}
	return chart.Spec{
		Slot:    slot,
		Kind:    chart.KindPie,
		Title:   title,
		ColorBy: t.Column,
		Traces: []chart.Trace{{
			Name:   t.Measure,
			Labels: t.Keys(),
			Values: t.Values(),
		}},
		Visible: true,
	}
}
