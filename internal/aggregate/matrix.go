package aggregate

import (
	"shoptrends/domain/dataset"

	"github.com/montanaflynn/stats"
)

// Matrix is a group-by over two columns, unstacked: rows are the values of RowColumn,
// columns the values of ColColumn. Cells with no rows have Present false.
type Matrix struct {
	RowColumn string      `json:"row_column"`
	ColColumn string      `json:"col_column"`
	RowKeys   []string    `json:"row_keys"`
	ColKeys   []string    `json:"col_keys"`
	Cells     [][]float64 `json:"cells"`
	Present   [][]bool    `json:"present"`
}

// Empty reports whether the matrix has no cells
func (m Matrix) Empty() bool {
	return len(m.RowKeys) == 0 || len(m.ColKeys) == 0
}

// Cell returns the value at (rowKey, colKey)
func (m Matrix) Cell(rowKey, colKey string) (float64, bool) {
	for i, rk := range m.RowKeys {
		if rk != rowKey {
			continue
		}
		for j, ck := range m.ColKeys {
			if ck == colKey && m.Present[i][j] {
				return m.Cells[i][j], true
			}
		}
	}
	return 0, false
}

// MeanByPair groups by (rowCol, colCol), averages Purchase_Amount_USD and unstacks
// the result. Only key values seen in the view become rows or columns.
func MeanByPair(view *dataset.View, rowCol, colCol string) Matrix {
	m := Matrix{RowColumn: rowCol, ColColumn: colCol}

	type pair struct{ row, col string }
	groups := make(map[pair]stats.Float64Data)
	rowSeen := make(map[string]bool)
	colSeen := make(map[string]bool)

	view.Each(func(_ int, r *dataset.Record) {
		rk, _ := r.Value(rowCol)
		ck, _ := r.Value(colCol)
		p := pair{rk, ck}
		groups[p] = append(groups[p], r.PurchaseAmountUSD)
		rowSeen[rk] = true
		colSeen[ck] = true
	})
	if len(groups) == 0 {
		return m
	}

	for k := range rowSeen {
		m.RowKeys = append(m.RowKeys, k)
	}
	for k := range colSeen {
		m.ColKeys = append(m.ColKeys, k)
	}
	dataset.SortValues(rowCol, m.RowKeys)
	dataset.SortValues(colCol, m.ColKeys)

	m.Cells = make([][]float64, len(m.RowKeys))
	m.Present = make([][]bool, len(m.RowKeys))
	for i, rk := range m.RowKeys {
		m.Cells[i] = make([]float64, len(m.ColKeys))
		m.Present[i] = make([]bool, len(m.ColKeys))
		for j, ck := range m.ColKeys {
			values, ok := groups[pair{rk, ck}]
			if !ok {
				continue
			}
			if mean, err := stats.Mean(values); err == nil {
				m.Cells[i][j] = mean
				m.Present[i][j] = true
			}
		}
	}
	return m
}
