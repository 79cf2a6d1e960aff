package dashboard

import "shoptrends/internal/reactive"

// Output slot ids
const (
	SlotScatter          reactive.NodeID = "age_vs_spending_scatter"
	SlotGender           reactive.NodeID = "gender_spending_comparison"
	SlotCategory         reactive.NodeID = "category_spending_comparison"
	SlotSeasonalHeatmap  reactive.NodeID = "seasonal_category_heatmap"
	SlotSeasonalTrends   reactive.NodeID = "seasonal_spending_trends"
	SlotPayment          reactive.NodeID = "payment_method_comparison"
	SlotDiscount         reactive.NodeID = "discount_promo_impact"
	SlotSubscription     reactive.NodeID = "subscription_discount_correlation"
	SlotRidge            reactive.NodeID = "previous_purchase_ridge"
	SlotKeyFindings      reactive.NodeID = "key_findings_summary"
	SlotCategoryInsights reactive.NodeID = "category_season_insights"
	SlotTotalCustomers   reactive.NodeID = "total_customers"
	SlotAveragePurchase  reactive.NodeID = "average_purchase"
	SlotAverageRating    reactive.NodeID = "average_rating"

	// NodeView is the filtered view every slot reads
	NodeView reactive.NodeID = "filtered_view"
	// NodeMetrics feeds the value boxes
	NodeMetrics reactive.NodeID = "metrics"
)

// SlotKind is how the page displays a slot
type SlotKind string

const (
	KindChart SlotKind = "chart"
	KindText  SlotKind = "text"
	KindValue SlotKind = "value"
)

// SlotInfo places a slot on the page
type SlotInfo struct {
	ID    reactive.NodeID `json:"id"`
	Kind  SlotKind        `json:"kind"`
	Title string          `json:"title"`
	Tab   string          `json:"tab"`
}

const (
	TabOverview = "Overview"
	TabSeasonal = "Seasonal and Category Analysis"
	TabBehavior = "Customer Behavior"
	TabExplore  = "Explore"
)

// Tabs lists the page tabs in display order
var Tabs = []string{TabOverview, TabSeasonal, TabBehavior, TabExplore}

// Layout lists every output slot in page order
var Layout = []SlotInfo{
	{SlotTotalCustomers, KindValue, "Total customers", TabOverview},
	{SlotAveragePurchase, KindValue, "Average purchase", TabOverview},
	{SlotAverageRating, KindValue, "Average rating", TabOverview},
	{SlotKeyFindings, KindText, "Key findings", TabOverview},
	{SlotScatter, KindChart, "Age vs Spending", TabOverview},
	{SlotGender, KindChart, "Gender Spending Comparison", TabOverview},
	{SlotCategory, KindChart, "Category Spending Comparison", TabOverview},

	{SlotSeasonalHeatmap, KindChart, "Seasonal Category Spending Heatmap", TabSeasonal},
	{SlotSeasonalTrends, KindChart, "Seasonal Spending Trends", TabSeasonal},
	{SlotCategoryInsights, KindText, "Category and season insights", TabSeasonal},

	{SlotPayment, KindChart, "Payment Method Comparison", TabBehavior},
	{SlotDiscount, KindChart, "Discount/Promo Impact", TabBehavior},
	{SlotSubscription, KindChart, "Subscription Status vs Discount Correlation", TabBehavior},

	{SlotRidge, KindChart, "Previous Purchase percentage", TabExplore},
}

// LookupSlot finds a slot by id
func LookupSlot(id string) (SlotInfo, bool) {
	for _, s := range Layout {
		if string(s.ID) == id {
			return s, true
		}
	}
	return SlotInfo{}, false
}

func title(id reactive.NodeID) string {
	s, _ := LookupSlot(string(id))
	return s.Title
}
