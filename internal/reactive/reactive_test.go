package reactive

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"testing"

	"shoptrends/adapters/cache"
	"shoptrends/domain/controls"
	"shoptrends/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *controls.Catalog {
	t.Helper()
	catalog, err := controls.LoadCatalog()
	require.NoError(t, err)
	return catalog
}

// counters records how often each node computed
type counters map[NodeID]*int32

func (c counters) inc(id NodeID) {
	atomic.AddInt32(c[id], 1)
}

func (c counters) get(id NodeID) int {
	return int(atomic.LoadInt32(c[id]))
}

func decodeString(data []byte) (interface{}, error) {
	var s string
	err := json.Unmarshal(data, &s)
	return s, err
}

// testGraph: view reads category and season; by_category and by_season read view;
// the scatter output reads the scatter_color control only
func testGraph(t *testing.T, catalog *controls.Catalog) (*Graph, counters) {
	t.Helper()
	calls := counters{"view": new(int32), "by_category": new(int32), "by_season": new(int32), "scatter": new(int32)}

	g, err := NewGraph(catalog.IDs(),
		Node{
			ID:       "by_category",
			Deps:     []NodeID{"view"},
			Controls: []string{controls.ShowDiscounts},
			Output:   true,
			Decode:   decodeString,
			Compute: func(_ context.Context, s controls.FilterState, deps Deps) (interface{}, error) {
				calls.inc("by_category")
				return fmt.Sprintf("category:%v:%v", deps["view"], s.ShowDiscounts), nil
			},
		},
		Node{
			ID:       "view",
			Controls: []string{controls.Category, controls.Season},
			Compute: func(_ context.Context, s controls.FilterState, _ Deps) (interface{}, error) {
				calls.inc("view")
				return s.Category + "/" + s.Season, nil
			},
		},
		Node{
			ID:     "by_season",
			Deps:   []NodeID{"view"},
			Output: true,
			Compute: func(_ context.Context, s controls.FilterState, deps Deps) (interface{}, error) {
				calls.inc("by_season")
				return fmt.Sprintf("season:%v", deps["view"]), nil
			},
		},
		Node{
			ID:       "scatter",
			Controls: []string{controls.ScatterColor},
			Output:   true,
			Compute: func(_ context.Context, s controls.FilterState, _ Deps) (interface{}, error) {
				calls.inc("scatter")
				return "scatter:" + s.ScatterColor, nil
			},
		},
	)
	require.NoError(t, err)
	return g, calls
}

func TestGraphOrderAndInputs(t *testing.T) {
	catalog := testCatalog(t)
	g, _ := testGraph(t, catalog)

	order := g.Order()
	require.Len(t, order, 4)
	assert.Equal(t, NodeID("view"), order[0], "dependencies come first")
	assert.Equal(t, []NodeID{"scatter", "by_category", "by_season"}, g.Outputs())

	assert.Equal(t, []string{controls.Category, controls.Season, controls.ShowDiscounts}, g.Inputs("by_category"))
	assert.Equal(t, []NodeID{"view", "by_category", "by_season"}, g.Affected(controls.Season))
	assert.Equal(t, []NodeID{"by_category"}, g.Affected(controls.ShowDiscounts))
	assert.Empty(t, g.Affected(controls.Gender))
}

func TestGraphRejectsBadDefinitions(t *testing.T) {
	noop := func(context.Context, controls.FilterState, Deps) (interface{}, error) { return nil, nil }
	ids := []string{controls.Category}

	tests := map[string][]Node{
		"unknown control": {{ID: "a", Controls: []string{"nope"}, Compute: noop}},
		"unknown dep":     {{ID: "a", Deps: []NodeID{"b"}, Compute: noop}},
		"duplicate":       {{ID: "a", Compute: noop}, {ID: "a", Compute: noop}},
		"cycle":           {{ID: "a", Deps: []NodeID{"b"}, Compute: noop}, {ID: "b", Deps: []NodeID{"a"}, Compute: noop}},
		"no compute":      {{ID: "a"}},
	}
	for name, nodes := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewGraph(ids, nodes...)
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestFirstTickComputesEverything(t *testing.T) {
	catalog := testCatalog(t)
	g, calls := testGraph(t, catalog)
	c := NewController(g, catalog)

	assert.Len(t, c.Dirty(), 4)
	update, err := c.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), update.Tick)
	assert.Equal(t, []NodeID{"scatter", "by_category", "by_season"}, update.Changed)
	assert.Equal(t, "season:All/All", update.Outputs["by_season"])
	assert.Equal(t, "scatter:Gender", update.Outputs["scatter"])
	assert.Equal(t, 1, calls.get("view"))
	assert.Empty(t, c.Dirty())
	assert.Equal(t, Clean, c.NodeState("view"))
}

func TestSetDirtiesOnlyDependents(t *testing.T) {
	catalog := testCatalog(t)
	g, calls := testGraph(t, catalog)
	c := NewController(g, catalog)
	_, err := c.Tick(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Set(controls.ScatterColor, "Season"))
	assert.Equal(t, []NodeID{"scatter"}, c.Dirty())
	assert.Equal(t, Dirty, c.NodeState("scatter"))
	assert.Equal(t, Clean, c.NodeState("view"))

	update, err := c.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []NodeID{"scatter"}, update.Changed)
	assert.Equal(t, 1, calls.get("view"))
	assert.Equal(t, 2, calls.get("scatter"))

	outputs := c.Outputs()
	assert.Len(t, outputs, 3, "outputs keep values from earlier ticks")
	assert.Equal(t, "scatter:Season", outputs["scatter"])
}

func TestSetSameValueIsNoop(t *testing.T) {
	catalog := testCatalog(t)
	g, _ := testGraph(t, catalog)
	c := NewController(g, catalog)
	_, err := c.Tick(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Set(controls.Category, "All"))
	assert.Empty(t, c.Dirty())
}

func TestSetRejectsUnknownChoice(t *testing.T) {
	catalog := testCatalog(t)
	g, _ := testGraph(t, catalog)
	c := NewController(g, catalog)

	err := c.Set(controls.Category, "Jewellery")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Equal(t, "All", c.State().Category)
}

func TestMemoServesRevisitedState(t *testing.T) {
	catalog := testCatalog(t)
	g, calls := testGraph(t, catalog)
	c := NewController(g, catalog)
	ctx := context.Background()
	_, err := c.Tick(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Set(controls.Category, "Footwear"))
	_, err = c.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, calls.get("view"))

	require.NoError(t, c.Set(controls.Category, "All"))
	update, err := c.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls.get("view"), "view for All/All comes from the memo")
	assert.Equal(t, 3, update.Memo)
	assert.Zero(t, update.Computed)
	assert.Equal(t, "season:All/All", update.Outputs["by_season"])
}

func TestResetRestoresDefaults(t *testing.T) {
	catalog := testCatalog(t)
	g, _ := testGraph(t, catalog)
	c := NewController(g, catalog)
	ctx := context.Background()

	require.NoError(t, c.Set(controls.Season, "Winter"))
	require.NoError(t, c.Set(controls.Gender, []string{"Female"}))
	require.NoError(t, c.Set(controls.ShowDiscounts, true))
	_, err := c.Tick(ctx)
	require.NoError(t, err)

	c.Reset()
	assert.True(t, c.State().Equal(catalog.Defaults()))
	assert.Len(t, c.Dirty(), 4)

	update, err := c.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, "season:All/All", update.Outputs["by_season"])
}

func TestValidatorBlocksState(t *testing.T) {
	catalog := testCatalog(t)
	g, _ := testGraph(t, catalog)
	c := NewController(g, catalog, WithValidator(func(s controls.FilterState) error {
		if s.Expression == "bad" {
			return errors.InvalidInput("bad expression")
		}
		return nil
	}))

	err := c.Set(controls.Expression, "bad")
	require.Error(t, err)
	assert.Equal(t, "", c.State().Expression)
	assert.NoError(t, c.Set(controls.Expression, "Age > 30"))
}

func TestFailedTickPublishesNothing(t *testing.T) {
	catalog := testCatalog(t)
	fail := false
	g, err := NewGraph(catalog.IDs(),
		Node{
			ID:       "first",
			Controls: []string{controls.Season},
			Output:   true,
			Compute: func(_ context.Context, s controls.FilterState, _ Deps) (interface{}, error) {
				return s.Season, nil
			},
		},
		Node{
			ID:       "second",
			Controls: []string{controls.Season},
			Output:   true,
			Compute: func(_ context.Context, s controls.FilterState, _ Deps) (interface{}, error) {
				if fail {
					return nil, stderrors.New("boom")
				}
				return s.Season, nil
			},
		},
	)
	require.NoError(t, err)
	c := NewController(g, catalog)
	ctx := context.Background()
	_, err = c.Tick(ctx)
	require.NoError(t, err)

	fail = true
	require.NoError(t, c.Set(controls.Season, "Fall"))
	_, err = c.Tick(ctx)
	require.Error(t, err)

	v, _ := c.Value("first")
	assert.Equal(t, "All", v, "first is not published when second fails")
	assert.Equal(t, []NodeID{"first", "second"}, c.Dirty())

	fail = false
	update, err := c.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Fall", update.Outputs["first"])
}

func TestSharedCacheAcrossSessions(t *testing.T) {
	catalog := testCatalog(t)
	g, calls := testGraph(t, catalog)
	shared := NewShared(cache.NewMemoryCache(64), 0, nil)
	ctx := context.Background()

	a := NewController(g, catalog, WithShared(shared, "test"))
	b := NewController(g, catalog, WithShared(shared, "test"))

	_, err := a.Tick(ctx)
	require.NoError(t, err)
	update, err := b.Tick(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, calls.get("by_category"), "second session reads the shared entry")
	assert.Equal(t, 1, update.Shared)
	assert.Equal(t, 2, calls.get("by_season"), "nodes without a decoder stay session-local")

	other := NewController(g, catalog, WithShared(shared, "other-dataset"))
	_, err = other.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls.get("by_category"), "namespaces do not share entries")
}
