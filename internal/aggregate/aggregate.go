// Package aggregate holds the named, pure transforms from a filtered view to the
// small summary tables the charts plot. Every function returns an empty result for an
// empty view instead of failing.
package aggregate

import (
	"shoptrends/domain/dataset"

	"github.com/montanaflynn/stats"
)

// Row is one group of a SummaryTable
type Row struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// SummaryTable maps the values of one categorical column to the mean of a measure
type SummaryTable struct {
	Column  string `json:"column"`
	Measure string `json:"measure"`
	Rows    []Row  `json:"rows"`
}

// Empty reports whether the table has no groups
func (t SummaryTable) Empty() bool {
	return len(t.Rows) == 0
}

// Keys returns the group keys in table order
func (t SummaryTable) Keys() []string {
	keys := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		keys[i] = r.Key
	}
	return keys
}

// Values returns the group values in table order
func (t SummaryTable) Values() []float64 {
	values := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		values[i] = r.Value
	}
	return values
}

// Map returns key -> value
func (t SummaryTable) Map() map[string]float64 {
	m := make(map[string]float64, len(t.Rows))
	for _, r := range t.Rows {
		m[r.Key] = r.Value
	}
	return m
}

// MeanBy groups by col and averages Purchase_Amount_USD
func MeanBy(view *dataset.View, col string) SummaryTable {
	return MeanOfBy(view, col, dataset.ColPurchaseAmount)
}

// MeanOfBy groups by col and averages the numeric column measure
func MeanOfBy(view *dataset.View, col, measure string) SummaryTable {
	table := SummaryTable{Column: col, Measure: measure}
	groups := make(map[string]stats.Float64Data)
	view.Each(func(_ int, r *dataset.Record) {
		v, ok := r.Number(measure)
		if !ok {
			return
		}
		key, _ := r.Value(col)
		groups[key] = append(groups[key], v)
	})
	if len(groups) == 0 {
		return table
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	dataset.SortValues(col, keys)

	table.Rows = make([]Row, 0, len(keys))
	for _, k := range keys {
		mean, err := stats.Mean(groups[k])
		if err != nil {
			continue
		}
		table.Rows = append(table.Rows, Row{Key: k, Value: mean, Count: len(groups[k])})
	}
	return table
}

// OverallMean averages Purchase_Amount_USD over every row of the view. ok is false
// for an empty view.
func OverallMean(view *dataset.View) (mean float64, ok bool) {
	var values stats.Float64Data
	view.Each(func(_ int, r *dataset.Record) {
		values = append(values, r.PurchaseAmountUSD)
	})
	m, err := stats.Mean(values)
	if err != nil {
		return 0, false
	}
	return m, true
}
