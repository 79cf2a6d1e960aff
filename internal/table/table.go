// Package table exposes the filtered rows as a gota DataFrame for the data grid,
// CSV export and column summaries.
package table

import (
	"io"

	"shoptrends/domain/dataset"
	"shoptrends/internal/errors"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Page is one window of the filtered rows
type Page struct {
	Offset  int                      `json:"offset"`
	Limit   int                      `json:"limit"`
	Total   int                      `json:"total"`
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
}

var columnTypes = map[string]series.Type{
	dataset.ColAge:               series.Int,
	dataset.ColPreviousPurchases: series.Int,
	dataset.ColPurchaseAmount:    series.Float,
	dataset.ColReviewRating:      series.Float,
}

// Frame builds a DataFrame of records using the dataset's column order
func Frame(ds *dataset.Dataset, records []dataset.Record) dataframe.DataFrame {
	columns := ds.Columns()
	data := make([][]string, 0, len(records)+1)
	data = append(data, columns)
	for i := range records {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j], _ = records[i].Value(col)
		}
		data = append(data, row)
	}

	types := make(map[string]series.Type, len(columns))
	for _, col := range columns {
		if t, ok := columnTypes[col]; ok {
			types[col] = t
		} else {
			types[col] = series.String
		}
	}
	return dataframe.LoadRecords(data,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(types),
	)
}

// ViewFrame is Frame over every row of the view
func ViewFrame(view *dataset.View) dataframe.DataFrame {
	return Frame(view.Dataset(), view.Records())
}

// PageOf returns limit rows of the view starting at offset. limit <= 0 selects
// DefaultPageSize; larger limits are capped at MaxPageSize.
func PageOf(view *dataset.View, offset, limit int) (Page, error) {
	if offset < 0 {
		return Page{}, errors.InvalidInput("offset must not be negative")
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	page := Page{
		Offset:  offset,
		Limit:   limit,
		Total:   view.Len(),
		Columns: view.Dataset().Columns(),
		Rows:    []map[string]interface{}{},
	}
	records := view.Slice(offset, limit)
	if len(records) == 0 {
		return page, nil
	}

	df := Frame(view.Dataset(), records)
	if df.Err != nil {
		return Page{}, errors.Wrap(df.Err, "failed to build table page")
	}
	page.Rows = df.Maps()
	return page, nil
}

// WriteCSV writes every row of the view with a header line
func WriteCSV(w io.Writer, view *dataset.View) error {
	df := ViewFrame(view)
	if df.Err != nil {
		return errors.Wrap(df.Err, "failed to build table")
	}
	if err := df.WriteCSV(w); err != nil {
		return errors.Wrap(err, "failed to write csv")
	}
	return nil
}

// Describe summarises the numeric columns of the view (mean, median, std, min, max,
// quartiles). An empty view gives an empty frame.
func Describe(view *dataset.View) dataframe.DataFrame {
	if view.Empty() {
		return dataframe.New()
	}
	return ViewFrame(view).Select(dataset.NumericColumns).Describe()
}
