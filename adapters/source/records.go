package source

import (
	"math"
	"strconv"

	"shoptrends/domain/dataset"
)

// FillValue replaces missing cells: numbers become 0, text becomes "0"
const FillValue = "0"

// BuildResult is a typed dataset plus how many cells the null fill touched
type BuildResult struct {
	Dataset *dataset.Dataset
	Filled  int
}

// BuildDataset types a RawTable into Records. Empty or unparsable numeric cells and
// empty text cells take the zero fill; absent columns are filled the same way.
func BuildDataset(t *RawTable) BuildResult {
	columns := append([]string(nil), t.Headers...)
	present := make(map[string]bool, len(columns))
	for _, h := range columns {
		present[h] = true
	}
	for _, col := range dataset.CoreColumns {
		if !present[col] {
			columns = append(columns, col)
			present[col] = true
		}
	}

	core := make(map[string]bool, len(dataset.CoreColumns))
	for _, col := range dataset.CoreColumns {
		core[col] = true
	}

	filled := 0
	text := func(row RawRow, col string) string {
		v := row[col]
		if v == "" {
			filled++
			return FillValue
		}
		return v
	}
	number := func(row RawRow, col string) float64 {
		v, err := strconv.ParseFloat(row[col], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			filled++
			return 0
		}
		return v
	}

	records := make([]dataset.Record, len(t.Rows))
	for i, row := range t.Rows {
		r := dataset.Record{
			Age:                int(math.Round(number(row, dataset.ColAge))),
			Gender:             text(row, dataset.ColGender),
			PurchaseAmountUSD:  number(row, dataset.ColPurchaseAmount),
			Category:           text(row, dataset.ColCategory),
			Season:             text(row, dataset.ColSeason),
			PaymentMethod:      text(row, dataset.ColPaymentMethod),
			DiscountApplied:    text(row, dataset.ColDiscountApplied),
			SubscriptionStatus: text(row, dataset.ColSubscriptionStatus),
			ReviewRating:       number(row, dataset.ColReviewRating),
			PreviousPurchases:  int(math.Round(number(row, dataset.ColPreviousPurchases))),
			Location:           text(row, dataset.ColLocation),
			Color:              text(row, dataset.ColColor),
		}
		for _, col := range t.Headers {
			if col == "" || core[col] {
				continue
			}
			if r.Extra == nil {
				r.Extra = make(map[string]string)
			}
			r.Extra[col] = text(row, col)
		}
		records[i] = r
	}

	return BuildResult{Dataset: dataset.New(records, columns), Filled: filled}
}
