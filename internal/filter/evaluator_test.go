package filter

import (
	"testing"

	"shoptrends/domain/controls"
	"shoptrends/domain/dataset"
	"shoptrends/internal/errors"
	"shoptrends/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultsFor(t *testing.T, ds *dataset.Dataset) controls.FilterState {
	t.Helper()
	catalog, err := controls.LoadCatalog()
	require.NoError(t, err)
	return catalog.Bind(ds).Defaults()
}

func fullState(t *testing.T, ds *dataset.Dataset) controls.FilterState {
	s := defaultsFor(t, ds)
	lo, hi := ds.AgeDomain()
	s.AgeRange = controls.Range{Lo: float64(lo), Hi: float64(hi)}
	return s
}

func TestScenarioBothRows(t *testing.T) {
	ds := testkit.ScenarioDataset()
	ev, err := NewEvaluator(ds)
	require.NoError(t, err)

	s := defaultsFor(t, ds)
	s.AgeRange = controls.Range{Lo: 18, Hi: 80}
	s.Genders = []string{"Male", "Female"}

	view, err := ev.Evaluate(s)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, view.RowIDs())
}

func TestScenarioAgeRange(t *testing.T) {
	ds := testkit.ScenarioDataset()
	ev, err := NewEvaluator(ds)
	require.NoError(t, err)

	s := defaultsFor(t, ds)
	s.AgeRange = controls.Range{Lo: 60, Hi: 80}

	view, err := ev.Evaluate(s)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, view.RowIDs())
}

func TestFullDomainKeepsEveryRow(t *testing.T) {
	ds := testkit.SyntheticDataset(500, 7)
	ev, err := NewEvaluator(ds)
	require.NoError(t, err)

	view, err := ev.Evaluate(fullState(t, ds))
	require.NoError(t, err)
	assert.Equal(t, ds.Len(), view.Len())
}

func TestEmptyMultiSelectPassesThrough(t *testing.T) {
	ds := testkit.ScenarioDataset()
	ev, err := NewEvaluator(ds)
	require.NoError(t, err)

	s := fullState(t, ds)
	s.Genders = nil
	s.PaymentMethods = []string{}

	view, err := ev.Evaluate(s)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Len())
}

func TestEachPredicate(t *testing.T) {
	ds := testkit.ScenarioDataset()
	ev, err := NewEvaluator(ds)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(s *controls.FilterState)
		want   []uint32
	}{
		{"gender", func(s *controls.FilterState) { s.Genders = []string{"Female"} }, []uint32{1}},
		{"category", func(s *controls.FilterState) { s.Category = "Clothing" }, []uint32{0}},
		{"season", func(s *controls.FilterState) { s.Season = "Winter" }, []uint32{1}},
		{"season no match", func(s *controls.FilterState) { s.Season = "Fall" }, []uint32{}},
		{"payment", func(s *controls.FilterState) { s.PaymentMethods = []string{"PayPal", "Cash"} }, []uint32{0}},
		{"purchase", func(s *controls.FilterState) { s.PurchaseRange = controls.Range{Lo: 60, Hi: 100} }, []uint32{1}},
		{"expression", func(s *controls.FilterState) { s.Expression = `Location == "Texas" && Review_Rating >= 4` }, []uint32{0}},
		{"age and category", func(s *controls.FilterState) {
			s.AgeRange = controls.Range{Lo: 60, Hi: 80}
			s.Category = "Clothing"
		}, []uint32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fullState(t, ds)
			tt.mutate(&s)
			view, err := ev.Evaluate(s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, view.RowIDs())
		})
	}
}

func TestInvalidExpression(t *testing.T) {
	ds := testkit.ScenarioDataset()
	ev, err := NewEvaluator(ds)
	require.NoError(t, err)

	for _, expr := range []string{"Age >", "Shoe_Size > 3", "Age + 1"} {
		s := fullState(t, ds)
		s.Expression = expr
		_, err := ev.Evaluate(s)
		require.Error(t, err, expr)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err), expr)
	}

	assert.NoError(t, ev.ValidateExpression(""))
	assert.NoError(t, ev.ValidateExpression("Previous_Purchases > 12"))
}

func TestExpressionCacheReusesPrograms(t *testing.T) {
	exprs, err := NewExpressions(dataset.CoreColumns)
	require.NoError(t, err)

	a, err := exprs.Compile("Age > 30")
	require.NoError(t, err)
	b, err := exprs.Compile("  Age > 30 ")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
