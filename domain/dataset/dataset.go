package dataset

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// knownOrder fixes the display order of the enumerated columns. Values not listed
// here sort after the known ones, ascending.
var knownOrder = map[string][]string{
	ColGender:             {"Male", "Female"},
	ColCategory:           {"Accessories", "Clothing", "Footwear", "Outerwear"},
	ColSeason:             {"Spring", "Summer", "Fall", "Winter"},
	ColPaymentMethod:      {"Credit Card", "Debit Card", "PayPal", "Venmo", "Cash", "Bank Transfer"},
	ColDiscountApplied:    {"No", "Yes"},
	ColSubscriptionStatus: {"No", "Yes"},
}

// Dataset is the loaded table. It is built once and only read afterwards, so a single
// instance is shared by every session without locking.
type Dataset struct {
	records []Record
	columns []string

	index    map[string]map[string]*roaring.Bitmap
	ageIndex map[int]*roaring.Bitmap
	all      *roaring.Bitmap

	ageMin, ageMax           int
	purchaseMin, purchaseMax float64
}

// New builds a Dataset and its column indexes. columns is the header order of the
// source; when empty the core columns are used.
func New(records []Record, columns []string) *Dataset {
	if len(columns) == 0 {
		columns = append([]string(nil), CoreColumns...)
	}
	d := &Dataset{
		records:  records,
		columns:  columns,
		index:    make(map[string]map[string]*roaring.Bitmap, len(CategoricalColumns)),
		ageIndex: make(map[int]*roaring.Bitmap),
		all:      roaring.New(),
	}
	for _, col := range CategoricalColumns {
		d.index[col] = make(map[string]*roaring.Bitmap)
	}

	d.ageMin, d.ageMax = math.MaxInt, math.MinInt
	d.purchaseMin, d.purchaseMax = math.Inf(1), math.Inf(-1)

	for i := range records {
		r := &records[i]
		row := uint32(i)
		for _, col := range CategoricalColumns {
			v, _ := r.Value(col)
			bm, ok := d.index[col][v]
			if !ok {
				bm = roaring.New()
				d.index[col][v] = bm
			}
			bm.Add(row)
		}
		bm, ok := d.ageIndex[r.Age]
		if !ok {
			bm = roaring.New()
			d.ageIndex[r.Age] = bm
		}
		bm.Add(row)

		if r.Age < d.ageMin {
			d.ageMin = r.Age
		}
		if r.Age > d.ageMax {
			d.ageMax = r.Age
		}
		if r.PurchaseAmountUSD < d.purchaseMin {
			d.purchaseMin = r.PurchaseAmountUSD
		}
		if r.PurchaseAmountUSD > d.purchaseMax {
			d.purchaseMax = r.PurchaseAmountUSD
		}
	}
	if len(records) == 0 {
		d.ageMin, d.ageMax = 0, 0
		d.purchaseMin, d.purchaseMax = 0, 0
	} else {
		d.all.AddRange(0, uint64(len(records)))
	}
	return d
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.records)
}

// Columns returns the header order of the source table
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// HasColumn reports whether the column exists in the source header or on Record
func (d *Dataset) HasColumn(col string) bool {
	for _, c := range d.columns {
		if c == col {
			return true
		}
	}
	for _, c := range CoreColumns {
		if c == col {
			return true
		}
	}
	return false
}

// Record returns row i. The pointer is into the shared table; callers must not modify it.
func (d *Dataset) Record(i int) *Record {
	return &d.records[i]
}

// AllRows returns a fresh bitmap holding every row id
func (d *Dataset) AllRows() *roaring.Bitmap {
	return d.all.Clone()
}

// Rows returns the rows whose categorical column equals value. The bitmap is shared;
// callers must not modify it. Unindexed columns or unseen values give an empty bitmap.
func (d *Dataset) Rows(col, value string) *roaring.Bitmap {
	if byValue, ok := d.index[col]; ok {
		if bm, ok := byValue[value]; ok {
			return bm
		}
	}
	return roaring.New()
}

// RowsIn returns a fresh bitmap of rows whose column value is any of values
func (d *Dataset) RowsIn(col string, values []string) *roaring.Bitmap {
	bms := make([]*roaring.Bitmap, 0, len(values))
	for _, v := range values {
		bms = append(bms, d.Rows(col, v))
	}
	if len(bms) == 0 {
		return roaring.New()
	}
	return roaring.FastOr(bms...)
}

// AgeRows returns a fresh bitmap of rows with lo <= Age <= hi
func (d *Dataset) AgeRows(lo, hi int) *roaring.Bitmap {
	bms := make([]*roaring.Bitmap, 0, len(d.ageIndex))
	for age, bm := range d.ageIndex {
		if age >= lo && age <= hi {
			bms = append(bms, bm)
		}
	}
	if len(bms) == 0 {
		return roaring.New()
	}
	return roaring.FastOr(bms...)
}

// AgeDomain returns the observed min and max age
func (d *Dataset) AgeDomain() (int, int) {
	return d.ageMin, d.ageMax
}

// PurchaseDomain returns the observed min and max purchase amount
func (d *Dataset) PurchaseDomain() (float64, float64) {
	return d.purchaseMin, d.purchaseMax
}

// Values returns the distinct values of a categorical column in display order
func (d *Dataset) Values(col string) []string {
	byValue, ok := d.index[col]
	if !ok {
		return nil
	}
	values := make([]string, 0, len(byValue))
	for v := range byValue {
		values = append(values, v)
	}
	SortValues(col, values)
	return values
}

// SortValues orders values of col: known enum order first, then ascending
func SortValues(col string, values []string) {
	rank := make(map[string]int)
	for i, v := range knownOrder[col] {
		rank[v] = i
	}
	sort.SliceStable(values, func(i, j int) bool {
		ri, iok := rank[values[i]]
		rj, jok := rank[values[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return values[i] < values[j]
		}
	})
}
