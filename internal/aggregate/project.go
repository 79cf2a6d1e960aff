package aggregate

import (
	"shoptrends/domain/dataset"
	"shoptrends/internal/errors"

	"github.com/montanaflynn/stats"
)

// PointGroup is one color group of a scatter projection
type PointGroup struct {
	Name string    `json:"name"`
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
}

// Projection is a raw (x, y) projection of the view, optionally split by a column
type Projection struct {
	XColumn string       `json:"x_column"`
	YColumn string       `json:"y_column"`
	ColorBy string       `json:"color_by,omitempty"`
	Groups  []PointGroup `json:"groups"`
}

// Empty reports whether the projection has no points
func (p Projection) Empty() bool {
	for _, g := range p.Groups {
		if len(g.X) > 0 {
			return false
		}
	}
	return true
}

// Project takes (xCol, yCol) for every row. colorBy splits rows into groups; an empty
// colorBy gives a single unnamed group.
func Project(view *dataset.View, xCol, yCol, colorBy string) (Projection, error) {
	if !dataset.IsNumericColumn(xCol) || !dataset.IsNumericColumn(yCol) {
		return Projection{}, errors.InvalidInput("projection needs numeric columns, got " + xCol + " and " + yCol)
	}
	p := Projection{XColumn: xCol, YColumn: yCol, ColorBy: colorBy}

	index := make(map[string]int)
	view.Each(func(_ int, r *dataset.Record) {
		name := ""
		if colorBy != "" {
			name, _ = r.Value(colorBy)
		}
		i, ok := index[name]
		if !ok {
			i = len(p.Groups)
			index[name] = i
			p.Groups = append(p.Groups, PointGroup{Name: name})
		}
		x, _ := r.Number(xCol)
		y, _ := r.Number(yCol)
		p.Groups[i].X = append(p.Groups[i].X, x)
		p.Groups[i].Y = append(p.Groups[i].Y, y)
	})

	if colorBy != "" && len(p.Groups) > 1 {
		names := make([]string, len(p.Groups))
		for i, g := range p.Groups {
			names[i] = g.Name
		}
		dataset.SortValues(colorBy, names)
		ordered := make([]PointGroup, len(names))
		for i, n := range names {
			ordered[i] = p.Groups[index[n]]
		}
		p.Groups = ordered
	}
	return p, nil
}

// Groups holds one sample vector per value of a column
type Groups struct {
	Column  string      `json:"column"`
	Keys    []string    `json:"keys"`
	Samples [][]float64 `json:"samples"`
}

// Empty reports whether there are no samples
func (g Groups) Empty() bool {
	return len(g.Keys) == 0
}

// SamplesBy splits fn(row) by the value of col. Rows where fn reports false are skipped.
func SamplesBy(view *dataset.View, col string, fn func(r *dataset.Record) (float64, bool)) Groups {
	g := Groups{Column: col}
	byKey := make(map[string][]float64)
	view.Each(func(_ int, r *dataset.Record) {
		v, ok := fn(r)
		if !ok {
			return
		}
		key, _ := r.Value(col)
		byKey[key] = append(byKey[key], v)
	})
	for k := range byKey {
		g.Keys = append(g.Keys, k)
	}
	dataset.SortValues(col, g.Keys)
	for _, k := range g.Keys {
		g.Samples = append(g.Samples, byKey[k])
	}
	return g
}

// PreviousPurchaseRatio is Previous_Purchases / Purchase_Amount_USD; rows with a zero
// amount are skipped
func PreviousPurchaseRatio(r *dataset.Record) (float64, bool) {
	if r.PurchaseAmountUSD == 0 {
		return 0, false
	}
	return float64(r.PreviousPurchases) / r.PurchaseAmountUSD, true
}

// Metrics are the value-box figures for a view
type Metrics struct {
	Count          int     `json:"count"`
	MeanPurchase   float64 `json:"mean_purchase"`
	MedianPurchase float64 `json:"median_purchase"`
	MeanRating     float64 `json:"mean_rating"`
	// DiscountShare is the fraction of rows with a discount applied
	DiscountShare float64 `json:"discount_share"`
}

// ComputeMetrics summarises the view; an empty view gives zero Metrics
func ComputeMetrics(view *dataset.View) Metrics {
	var purchases, ratings stats.Float64Data
	discounted := 0
	view.Each(func(_ int, r *dataset.Record) {
		purchases = append(purchases, r.PurchaseAmountUSD)
		ratings = append(ratings, r.ReviewRating)
		if r.Discounted() {
			discounted++
		}
	})
	if len(purchases) == 0 {
		return Metrics{}
	}

	m := Metrics{Count: len(purchases)}
	m.MeanPurchase, _ = stats.Mean(purchases)
	m.MedianPurchase, _ = stats.Median(purchases)
	m.MeanRating, _ = stats.Mean(ratings)
	m.DiscountShare = float64(discounted) / float64(len(purchases))
	return m
}
