package dashboard

import (
	"context"
	"encoding/json"
	"fmt"

	"shoptrends/domain/chart"
	"shoptrends/domain/controls"
	"shoptrends/domain/dataset"
	"shoptrends/internal/aggregate"
	"shoptrends/internal/errors"
	"shoptrends/internal/filter"
	"shoptrends/internal/insights"
	"shoptrends/internal/reactive"
	"shoptrends/internal/render"
)

// ValueBox is a headline figure
type ValueBox struct {
	Slot  string  `json:"slot"`
	Label string  `json:"label"`
	Value string  `json:"value"`
	Raw   float64 `json:"raw"`
}

// filterControls are the controls that decide which rows are in the view
var filterControls = []string{
	controls.AgeRange, controls.PurchaseRange, controls.Gender, controls.Category,
	controls.Season, controls.PaymentMethod, controls.Expression,
}

// buildGraph wires every slot to the filtered view and the controls it reads
func buildGraph(catalog *controls.Catalog, evaluator *filter.Evaluator) (*reactive.Graph, error) {
	viewNode := reactive.Node{
		ID:       NodeView,
		Controls: filterControls,
		Compute: func(_ context.Context, s controls.FilterState, _ reactive.Deps) (interface{}, error) {
			return evaluator.Evaluate(s)
		},
	}
	metricsNode := reactive.Node{
		ID:   NodeMetrics,
		Deps: []reactive.NodeID{NodeView},
		Compute: func(_ context.Context, _ controls.FilterState, deps reactive.Deps) (interface{}, error) {
			v, err := viewOf(deps)
			if err != nil {
				return nil, err
			}
			return aggregate.ComputeMetrics(v), nil
		},
	}

	nodes := []reactive.Node{
		viewNode,
		metricsNode,

		valueNode(SlotTotalCustomers, func(m aggregate.Metrics) (string, float64) {
			return fmt.Sprintf("%d", m.Count), float64(m.Count)
		}),
		valueNode(SlotAveragePurchase, func(m aggregate.Metrics) (string, float64) {
			if m.Count == 0 {
				return "-", 0
			}
			return fmt.Sprintf("$%.2f", m.MeanPurchase), m.MeanPurchase
		}),
		valueNode(SlotAverageRating, func(m aggregate.Metrics) (string, float64) {
			if m.Count == 0 {
				return "-", 0
			}
			return fmt.Sprintf("%.2f", m.MeanRating), m.MeanRating
		}),

		textNode(SlotKeyFindings, insights.KeyFindings),
		textNode(SlotCategoryInsights, insights.CategorySeason),

		chartNode(SlotScatter, []string{controls.ScatterColor}, func(v *dataset.View, s controls.FilterState) (chart.Spec, error) {
			colorBy := s.ScatterColor
			if colorBy == controls.None {
				colorBy = ""
			}
			p, err := aggregate.Project(v, dataset.ColAge, dataset.ColPurchaseAmount, colorBy)
			if err != nil {
				return chart.Spec{}, err
			}
			return render.Scatter(string(SlotScatter), title(SlotScatter), p), nil
		}),
		chartNode(SlotGender, nil, func(v *dataset.View, _ controls.FilterState) (chart.Spec, error) {
			return render.Bar(string(SlotGender), title(SlotGender), aggregate.MeanBy(v, dataset.ColGender)), nil
		}),
		chartNode(SlotCategory, nil, func(v *dataset.View, _ controls.FilterState) (chart.Spec, error) {
			return render.Bar(string(SlotCategory), title(SlotCategory), aggregate.MeanBy(v, dataset.ColCategory)), nil
		}),
		chartNode(SlotSeasonalHeatmap, nil, func(v *dataset.View, _ controls.FilterState) (chart.Spec, error) {
			overall, _ := aggregate.OverallMean(v)
			m := aggregate.MeanByPair(v, dataset.ColSeason, dataset.ColCategory)
			return render.DeviationHeatmap(string(SlotSeasonalHeatmap), title(SlotSeasonalHeatmap), m, overall), nil
		}),
		chartNode(SlotSeasonalTrends, nil, func(v *dataset.View, _ controls.FilterState) (chart.Spec, error) {
			return render.Line(string(SlotSeasonalTrends), title(SlotSeasonalTrends), aggregate.MeanBy(v, dataset.ColSeason)), nil
		}),
		chartNode(SlotPayment, nil, func(v *dataset.View, _ controls.FilterState) (chart.Spec, error) {
			return render.Pie(string(SlotPayment), title(SlotPayment), aggregate.MeanBy(v, dataset.ColPaymentMethod)), nil
		}),
		chartNode(SlotDiscount, []string{controls.ShowDiscounts}, func(v *dataset.View, s controls.FilterState) (chart.Spec, error) {
			if !s.ShowDiscounts {
				return chart.Spec{
					Slot:   string(SlotDiscount),
					Kind:   chart.KindBar,
					Title:  title(SlotDiscount),
					Traces: []chart.Trace{},
				}, nil
			}
			return render.Bar(string(SlotDiscount), title(SlotDiscount), aggregate.MeanBy(v, dataset.ColDiscountApplied)), nil
		}),
		chartNode(SlotSubscription, nil, func(v *dataset.View, _ controls.FilterState) (chart.Spec, error) {
			m := aggregate.MeanByPair(v, dataset.ColSubscriptionStatus, dataset.ColDiscountApplied)
			return render.Heatmap(string(SlotSubscription), title(SlotSubscription), m, nil), nil
		}),
		chartNode(SlotRidge, []string{controls.RidgeSplit}, func(v *dataset.View, s controls.FilterState) (chart.Spec, error) {
			g := aggregate.SamplesBy(v, s.RidgeSplit, aggregate.PreviousPurchaseRatio)
			return render.Ridge(string(SlotRidge), title(SlotRidge), g, render.RidgeBandwidth), nil
		}),
	}
	return reactive.NewGraph(catalog.IDs(), nodes...)
}

func viewOf(deps reactive.Deps) (*dataset.View, error) {
	v, ok := deps[NodeView].(*dataset.View)
	if !ok {
		return nil, errors.InternalError("filtered view is not available")
	}
	return v, nil
}

func chartNode(id reactive.NodeID, ctls []string, build func(*dataset.View, controls.FilterState) (chart.Spec, error)) reactive.Node {
	return reactive.Node{
		ID:       id,
		Controls: ctls,
		Deps:     []reactive.NodeID{NodeView},
		Output:   true,
		Decode:   decodeSpec,
		Compute: func(_ context.Context, s controls.FilterState, deps reactive.Deps) (interface{}, error) {
			v, err := viewOf(deps)
			if err != nil {
				return nil, err
			}
			return build(v, s)
		},
	}
}

func textNode(id reactive.NodeID, write func(*dataset.View) string) reactive.Node {
	return reactive.Node{
		ID:     id,
		Deps:   []reactive.NodeID{NodeView},
		Output: true,
		Decode: decodeText,
		Compute: func(_ context.Context, _ controls.FilterState, deps reactive.Deps) (interface{}, error) {
			v, err := viewOf(deps)
			if err != nil {
				return nil, err
			}
			return insights.NewText(string(id), write(v)), nil
		},
	}
}

func valueNode(id reactive.NodeID, format func(aggregate.Metrics) (string, float64)) reactive.Node {
	return reactive.Node{
		ID:     id,
		Deps:   []reactive.NodeID{NodeMetrics},
		Output: true,
		Compute: func(_ context.Context, _ controls.FilterState, deps reactive.Deps) (interface{}, error) {
			m, _ := deps[NodeMetrics].(aggregate.Metrics)
			text, raw := format(m)
			return ValueBox{Slot: string(id), Label: title(id), Value: text, Raw: raw}, nil
		},
	}
}

func decodeSpec(data []byte) (interface{}, error) {
	var s chart.Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeText(data []byte) (interface{}, error) {
	var t insights.Text
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return t, nil
}
