package testkit

import (
	"shoptrends/domain/dataset"
)

// ScenarioDataset is the two-row fixture used by the filter and aggregation scenarios
func ScenarioDataset() *dataset.Dataset {
	return dataset.New([]dataset.Record{
		{Age: 20, Gender: "Male", PurchaseAmountUSD: 50, Category: "Clothing", Season: "Summer", PaymentMethod: "PayPal",
			DiscountApplied: "Yes", SubscriptionStatus: "Yes", ReviewRating: 4.0, PreviousPurchases: 10, Location: "Texas", Color: "Blue"},
		{Age: 70, Gender: "Female", PurchaseAmountUSD: 100, Category: "Footwear", Season: "Winter", PaymentMethod: "Venmo",
			DiscountApplied: "No", SubscriptionStatus: "No", ReviewRating: 3.0, PreviousPurchases: 25, Location: "Maine", Color: "Red"},
	}, nil)
}

// SyntheticDataset generates n rows with a fixed seed
func SyntheticDataset(n int, seed int64) *dataset.Dataset {
	cfg := DefaultShoppingConfig()
	cfg.CustomerCount = n
	cfg.Seed = seed
	return NewShoppingDataGenerator(cfg).GenerateDataset()
}
