package testkit

import (
	"bytes"
	"encoding/csv"
	"testing"

	"shoptrends/domain/dataset"
)

func TestShoppingDataGenerator_Basic(t *testing.T) {
	config := DefaultShoppingConfig()
	config.CustomerCount = 200

	records := NewShoppingDataGenerator(config).GenerateRecords()
	if len(records) != 200 {
		t.Fatalf("Expected 200 records, got %d", len(records))
	}

	for i, r := range records {
		if r.Age < config.MinAge || r.Age > config.MaxAge {
			t.Errorf("Record %d has age %d outside [%d,%d]", i, r.Age, config.MinAge, config.MaxAge)
		}
		if r.PurchaseAmountUSD < 20 || r.PurchaseAmountUSD > 100 {
			t.Errorf("Record %d has purchase amount %v outside [20,100]", i, r.PurchaseAmountUSD)
		}
		if r.SubscriptionStatus == "Yes" && !r.Discounted() {
			t.Errorf("Record %d is subscribed without a discount", i)
		}
		if r.Extra[dataset.ColCustomerID] == "" {
			t.Errorf("Record %d has empty customer ID", i)
		}
	}
}

func TestShoppingDataGenerator_Deterministic(t *testing.T) {
	a := NewShoppingDataGenerator(DefaultShoppingConfig()).GenerateRecords()
	b := NewShoppingDataGenerator(DefaultShoppingConfig()).GenerateRecords()

	for i := range a {
		if a[i].Age != b[i].Age || a[i].PurchaseAmountUSD != b[i].PurchaseAmountUSD || a[i].Location != b[i].Location {
			t.Fatalf("Record %d differs between runs with the same seed", i)
		}
	}
}

func TestShoppingDataGenerator_WriteCSV(t *testing.T) {
	config := DefaultShoppingConfig()
	config.CustomerCount = 50
	config.MissingRate = 0.1
	generator := NewShoppingDataGenerator(config)

	var buf bytes.Buffer
	if err := generator.WriteCSV(&buf, generator.GenerateRecords()); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Generated CSV does not parse: %v", err)
	}
	if len(rows) != 51 {
		t.Fatalf("Expected header + 50 rows, got %d", len(rows))
	}
	if rows[0][5] != "Purchase Amount (USD)" {
		t.Errorf("Expected display header, got %q", rows[0][5])
	}

	blanks := 0
	for _, row := range rows[1:] {
		for _, cell := range row {
			if cell == "" {
				blanks++
			}
		}
	}
	if blanks == 0 {
		t.Error("Expected some blank cells with MissingRate 0.1")
	}
}

func TestShoppingData_Patterns(t *testing.T) {
	ds := SyntheticDataset(3000, 12345)

	mean := func(category string) float64 {
		sum, n := 0.0, 0
		for i := 0; i < ds.Len(); i++ {
			if r := ds.Record(i); r.Category == category {
				sum += r.PurchaseAmountUSD
				n++
			}
		}
		if n == 0 {
			t.Fatalf("No %s rows generated", category)
		}
		return sum / float64(n)
	}

	if mean("Outerwear") <= mean("Accessories") {
		t.Errorf("Expected outerwear to average above accessories")
	}
}
