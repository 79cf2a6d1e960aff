package dataset

import (
	"github.com/RoaringBitmap/roaring"
)

// View is a subset of a Dataset's rows. It never copies records; iteration walks the
// row bitmap in ascending row order so results are deterministic.
type View struct {
	ds   *Dataset
	rows *roaring.Bitmap
}

// NewView wraps rows of ds. Row ids outside the dataset are dropped, so a View is
// always a subset of its Dataset.
func NewView(ds *Dataset, rows *roaring.Bitmap) *View {
	if rows == nil {
		rows = roaring.New()
	}
	if n := uint64(ds.Len()); !rows.IsEmpty() && uint64(rows.Maximum()) >= n {
		rows = roaring.And(rows, ds.all)
	}
	return &View{ds: ds, rows: rows}
}

// FullView returns a view over every row
func FullView(ds *Dataset) *View {
	return &View{ds: ds, rows: ds.AllRows()}
}

// Dataset returns the underlying table
func (v *View) Dataset() *Dataset {
	return v.ds
}

// Len returns the number of rows in the view
func (v *View) Len() int {
	return int(v.rows.GetCardinality())
}

// Empty reports whether the view has no rows
func (v *View) Empty() bool {
	return v.rows.IsEmpty()
}

// Contains reports whether row i is in the view
func (v *View) Contains(i int) bool {
	return i >= 0 && v.rows.Contains(uint32(i))
}

// RowIDs returns the row ids in ascending order
func (v *View) RowIDs() []uint32 {
	return v.rows.ToArray()
}

// Bitmap returns a copy of the row mask
func (v *View) Bitmap() *roaring.Bitmap {
	return v.rows.Clone()
}

// Each calls fn for every row in ascending order
func (v *View) Each(fn func(i int, r *Record)) {
	it := v.rows.Iterator()
	for it.HasNext() {
		i := int(it.Next())
		fn(i, v.ds.Record(i))
	}
}

// Records copies the rows of the view
func (v *View) Records() []Record {
	out := make([]Record, 0, v.Len())
	v.Each(func(_ int, r *Record) {
		out = append(out, *r)
	})
	return out
}

// Slice returns up to limit records starting at offset, in row order
func (v *View) Slice(offset, limit int) []Record {
	if offset < 0 {
		offset = 0
	}
	out := make([]Record, 0, limit)
	n := 0
	it := v.rows.Iterator()
	for it.HasNext() && len(out) < limit {
		i := int(it.Next())
		if n >= offset {
			out = append(out, *v.ds.Record(i))
		}
		n++
	}
	return out
}
