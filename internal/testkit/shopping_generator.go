package testkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"shoptrends/domain/dataset"
)

// ShoppingGeneratorConfig configures the shopping data generator
type ShoppingGeneratorConfig struct {
	CustomerCount    int     `json:"customer_count"`
	MinAge           int     `json:"min_age"`
	MaxAge           int     `json:"max_age"`
	SubscriptionRate float64 `json:"subscription_rate"`
	// MissingRate blanks cells when writing CSV so loaders exercise the null fill
	MissingRate float64 `json:"missing_rate"`
	Seed        int64   `json:"seed"`
}

// DefaultShoppingConfig returns sensible defaults for shopping data generation
func DefaultShoppingConfig() ShoppingGeneratorConfig {
	return ShoppingGeneratorConfig{
		CustomerCount:    3900,
		MinAge:           18,
		MaxAge:           70,
		SubscriptionRate: 0.27,
		MissingRate:      0,
		Seed:             42,
	}
}

// ShoppingDataGenerator generates shopping trends rows with a few planted patterns:
// subscribers always get a discount, outerwear costs more, and winter/fall spend is higher.
type ShoppingDataGenerator struct {
	config ShoppingGeneratorConfig
	rng    *rand.Rand
}

// NewShoppingDataGenerator creates a new shopping data generator
func NewShoppingDataGenerator(config ShoppingGeneratorConfig) *ShoppingDataGenerator {
	if config.MaxAge <= config.MinAge {
		config.MinAge, config.MaxAge = 18, 70
	}
	return &ShoppingDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

var itemsByCategory = map[string][]string{
	"Accessories": {"Belt", "Handbag", "Hat", "Jewelry", "Scarf", "Sunglasses", "Backpack", "Gloves"},
	"Clothing":    {"Blouse", "Dress", "Hoodie", "Jeans", "Pants", "Shirt", "Shorts", "Skirt", "Sweater", "T-shirt", "Socks"},
	"Footwear":    {"Boots", "Sandals", "Shoes", "Sneakers"},
	"Outerwear":   {"Coat", "Jacket"},
}

var (
	categories = []string{"Clothing", "Accessories", "Footwear", "Outerwear"}
	seasons    = []string{"Spring", "Summer", "Fall", "Winter"}
	locations  = []string{
		"Alabama", "Alaska", "California", "Colorado", "Florida", "Idaho", "Illinois", "Kentucky",
		"Maine", "Massachusetts", "Montana", "Nevada", "New York", "Texas", "Vermont", "Washington",
	}
	colors = []string{
		"Beige", "Black", "Blue", "Charcoal", "Cyan", "Gray", "Green", "Indigo", "Lavender",
		"Maroon", "Olive", "Orange", "Peach", "Pink", "Red", "Silver", "Teal", "White", "Yellow",
	}
	frequencies = []string{"Weekly", "Fortnightly", "Bi-Weekly", "Monthly", "Quarterly", "Every 3 Months", "Annually"}
)

// GenerateRecords generates CustomerCount rows
func (g *ShoppingDataGenerator) GenerateRecords() []dataset.Record {
	records := make([]dataset.Record, 0, g.config.CustomerCount)
	for i := 0; i < g.config.CustomerCount; i++ {
		records = append(records, g.generateRecord(i+1))
	}
	return records
}

// GenerateDataset generates rows and indexes them
func (g *ShoppingDataGenerator) GenerateDataset() *dataset.Dataset {
	return dataset.New(g.GenerateRecords(), csvColumns())
}

func (g *ShoppingDataGenerator) generateRecord(id int) dataset.Record {
	category := g.weighted(categories, []float64{0.45, 0.32, 0.15, 0.08})
	season := seasons[g.rng.Intn(len(seasons))]
	items := itemsByCategory[category]

	// Base spend 20-100 with category and season lift
	amount := 20.0 + g.rng.Float64()*80.0
	switch category {
	case "Outerwear":
		amount += 8
	case "Accessories":
		amount -= 3
	}
	if season == "Fall" || season == "Winter" {
		amount += 4
	}
	amount = math.Max(20, math.Min(100, math.Round(amount)))

	subscribed := g.rng.Float64() < g.config.SubscriptionRate
	discounted := subscribed || g.rng.Float64() < 0.2

	r := dataset.Record{
		Age:                g.config.MinAge + g.rng.Intn(g.config.MaxAge-g.config.MinAge+1),
		Gender:             g.weighted([]string{"Male", "Female"}, []float64{0.68, 0.32}),
		PurchaseAmountUSD:  amount,
		Category:           category,
		Season:             season,
		PaymentMethod:      g.randomPaymentMethod(),
		DiscountApplied:    yesNo(discounted),
		SubscriptionStatus: yesNo(subscribed),
		ReviewRating:       math.Round((2.5+g.rng.Float64()*2.5)*10) / 10,
		PreviousPurchases:  1 + g.rng.Intn(50),
		Location:           locations[g.rng.Intn(len(locations))],
		Color:              colors[g.rng.Intn(len(colors))],
		Extra: map[string]string{
			dataset.ColCustomerID:    strconv.Itoa(id),
			dataset.ColItemPurchased: items[g.rng.Intn(len(items))],
			dataset.ColSize:          g.weighted([]string{"S", "M", "L", "XL"}, []float64{0.17, 0.45, 0.27, 0.11}),
			dataset.ColShippingType:  g.weighted([]string{"Free Shipping", "Standard", "Store Pickup", "Next Day Air", "Express", "2-Day Shipping"}, []float64{0.18, 0.17, 0.17, 0.16, 0.16, 0.16}),
			dataset.ColPromoCodeUsed: yesNo(discounted),
			dataset.ColFrequency:     frequencies[g.rng.Intn(len(frequencies))],
		},
	}
	return r
}

func (g *ShoppingDataGenerator) randomPaymentMethod() string {
	methods := []string{"Credit Card", "Debit Card", "PayPal", "Venmo", "Cash", "Bank Transfer"}
	weights := []float64{0.18, 0.16, 0.17, 0.16, 0.17, 0.16}
	return g.weighted(methods, weights)
}

func (g *ShoppingDataGenerator) weighted(values []string, weights []float64) string {
	r := g.rng.Float64()
	cumulative := 0.0
	for i, weight := range weights {
		cumulative += weight
		if r <= cumulative {
			return values[i]
		}
	}
	return values[0]
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// csvHeaders are the display headers of the public shopping trends file
var csvHeaders = []string{
	"Customer ID", "Age", "Gender", "Item Purchased", "Category", "Purchase Amount (USD)",
	"Location", "Size", "Color", "Season", "Review Rating", "Subscription Status",
	"Shipping Type", "Discount Applied", "Promo Code Used", "Previous Purchases",
	"Payment Method", "Frequency of Purchases",
}

func csvColumns() []string {
	return []string{
		dataset.ColCustomerID, dataset.ColAge, dataset.ColGender, dataset.ColItemPurchased,
		dataset.ColCategory, dataset.ColPurchaseAmount, dataset.ColLocation, dataset.ColSize,
		dataset.ColColor, dataset.ColSeason, dataset.ColReviewRating, dataset.ColSubscriptionStatus,
		dataset.ColShippingType, dataset.ColDiscountApplied, dataset.ColPromoCodeUsed,
		dataset.ColPreviousPurchases, dataset.ColPaymentMethod, dataset.ColFrequency,
	}
}

// WriteCSV writes records with the public file's display headers. Cells are blanked
// with probability MissingRate.
func (g *ShoppingDataGenerator) WriteCSV(w io.Writer, records []dataset.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	columns := csvColumns()
	row := make([]string, len(columns))
	for i := range records {
		for j, col := range columns {
			v, _ := records[i].Value(col)
			if g.config.MissingRate > 0 && g.rng.Float64() < g.config.MissingRate {
				v = ""
			}
			row[j] = v
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
