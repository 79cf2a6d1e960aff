package filter

import (
	"math"
	"strings"

	"shoptrends/domain/controls"
	"shoptrends/domain/dataset"

	"github.com/RoaringBitmap/roaring"
)

// Evaluator turns a FilterState into a row mask over one Dataset
type Evaluator struct {
	ds    *dataset.Dataset
	exprs *Expressions
}

// NewEvaluator prepares an evaluator for ds
func NewEvaluator(ds *dataset.Dataset) (*Evaluator, error) {
	exprs, err := NewExpressions(ds.Columns())
	if err != nil {
		return nil, err
	}
	return &Evaluator{ds: ds, exprs: exprs}, nil
}

// Dataset returns the table the evaluator filters
func (e *Evaluator) Dataset() *dataset.Dataset {
	return e.ds
}

// Evaluate ANDs the predicates in a fixed order: age, purchase amount, gender,
// category, season, payment method, expression. Empty multi-selects and the "All"
// sentinel pass every row through. Only an invalid expression is an error.
func (e *Evaluator) Evaluate(s controls.FilterState) (*dataset.View, error) {
	ds := e.ds
	rows := ds.AgeRows(int(math.Ceil(s.AgeRange.Lo)), int(math.Floor(s.AgeRange.Hi)))

	if lo, hi := ds.PurchaseDomain(); s.PurchaseRange.Lo > lo || s.PurchaseRange.Hi < hi {
		rows = keep(ds, rows, func(r *dataset.Record) bool {
			return s.PurchaseRange.Contains(r.PurchaseAmountUSD)
		})
	}

	if len(s.Genders) > 0 {
		rows.And(ds.RowsIn(dataset.ColGender, s.Genders))
	}
	if active(s.Category) {
		rows.And(ds.Rows(dataset.ColCategory, s.Category))
	}
	if active(s.Season) {
		rows.And(ds.Rows(dataset.ColSeason, s.Season))
	}
	if len(s.PaymentMethods) > 0 {
		rows.And(ds.RowsIn(dataset.ColPaymentMethod, s.PaymentMethods))
	}

	if expr := strings.TrimSpace(s.Expression); expr != "" {
		prg, err := e.exprs.Compile(expr)
		if err != nil {
			return nil, err
		}
		rows = keep(ds, rows, func(r *dataset.Record) bool {
			return Match(prg, r)
		})
	}

	return dataset.NewView(ds, rows), nil
}

// ValidateExpression compiles expr without evaluating it
func (e *Evaluator) ValidateExpression(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := e.exprs.Compile(expr)
	return err
}

func active(choice string) bool {
	return choice != "" && choice != controls.All
}

func keep(ds *dataset.Dataset, rows *roaring.Bitmap, pred func(r *dataset.Record) bool) *roaring.Bitmap {
	out := roaring.New()
	it := rows.Iterator()
	for it.HasNext() {
		i := it.Next()
		if pred(ds.Record(int(i))) {
			out.Add(i)
		}
	}
	return out
}
