// Package insights writes the dashboard's text slots as Markdown and renders them to
// HTML with gomarkdown.
package insights

import (
	"fmt"
	"math"
	"strings"

	"shoptrends/domain/dataset"
	"shoptrends/internal/aggregate"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// NoMatches is the text shown when the filters leave no rows
const NoMatches = "No customers match the current filters."

// Text is a rendered text slot
type Text struct {
	Slot     string `json:"slot"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// NewText renders md. A fresh parser is needed per document.
func NewText(slot, md string) Text {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return Text{
		Slot:     slot,
		Markdown: md,
		HTML:     string(markdown.ToHTML([]byte(md), p, r)),
	}
}

// KeyFindings summarises spending across the filtered customers
func KeyFindings(view *dataset.View) string {
	m := aggregate.ComputeMetrics(view)
	if m.Count == 0 {
		return NoMatches
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- **%d** customers match the current filters.\n", m.Count)
	fmt.Fprintf(&b, "- Average purchase is **$%.2f** (median $%.2f); average review rating is %.2f.\n",
		m.MeanPurchase, m.MedianPurchase, m.MeanRating)

	if top, ok := highest(aggregate.MeanBy(view, dataset.ColCategory)); ok {
		fmt.Fprintf(&b, "- **%s** has the highest average spend at $%.2f.\n", top.Key, top.Value)
	}

	genders := aggregate.MeanBy(view, dataset.ColGender).Map()
	if male, ok := genders["Male"]; ok && male > 0 {
		if female, ok := genders["Female"]; ok {
			diff := (female - male) / male * 100
			word := "more"
			if diff < 0 {
				word = "less"
			}
			fmt.Fprintf(&b, "- Female customers spend %.1f%% %s than male customers on average.\n", math.Abs(diff), word)
		}
	}

	fmt.Fprintf(&b, "- A discount was applied to %.0f%% of purchases.\n", m.DiscountShare*100)

	discount := aggregate.MeanBy(view, dataset.ColDiscountApplied).Map()
	if yes, ok := discount["Yes"]; ok {
		if no, ok := discount["No"]; ok {
			fmt.Fprintf(&b, "- Discounted purchases average $%.2f against $%.2f without a discount.\n", yes, no)
		}
	}
	return b.String()
}

// CategorySeason describes the season x category spending matrix
func CategorySeason(view *dataset.View) string {
	matrix := aggregate.MeanByPair(view, dataset.ColSeason, dataset.ColCategory)
	if matrix.Empty() {
		return NoMatches
	}

	type cell struct {
		season, category string
		value            float64
	}
	var best, worst *cell
	for i, season := range matrix.RowKeys {
		for j, category := range matrix.ColKeys {
			if !matrix.Present[i][j] {
				continue
			}
			c := &cell{season, category, matrix.Cells[i][j]}
			if best == nil || c.value > best.value {
				best = c
			}
			if worst == nil || c.value < worst.value {
				worst = c
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- Strongest combination: **%s in %s** at $%.2f on average.\n", best.category, best.season, best.value)
	if worst != best {
		fmt.Fprintf(&b, "- Weakest combination: **%s in %s** at $%.2f on average.\n", worst.category, worst.season, worst.value)
	}

	if top, ok := highest(aggregate.MeanBy(view, dataset.ColSeason)); ok {
		fmt.Fprintf(&b, "- %s is the strongest season overall ($%.2f).\n", top.Key, top.Value)
	}

	for j, category := range matrix.ColKeys {
		bestSeason, bestValue := "", math.Inf(-1)
		for i, season := range matrix.RowKeys {
			if matrix.Present[i][j] && matrix.Cells[i][j] > bestValue {
				bestSeason, bestValue = season, matrix.Cells[i][j]
			}
		}
		if bestSeason != "" {
			fmt.Fprintf(&b, "- %s sells best in %s.\n", category, bestSeason)
		}
	}
	return b.String()
}

// highest returns the row with the largest value
func highest(t aggregate.SummaryTable) (aggregate.Row, bool) {
	if t.Empty() {
		return aggregate.Row{}, false
	}
	out := t.Rows[0]
	for _, r := range t.Rows[1:] {
		if r.Value > out.Value {
			out = r
		}
	}
	return out, true
}
