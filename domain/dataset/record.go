package dataset

import (
	"strconv"
)

// Column names as they appear in the source table header (after normalisation)
const (
	ColCustomerID         = "Customer_ID"
	ColAge                = "Age"
	ColGender             = "Gender"
	ColItemPurchased      = "Item_Purchased"
	ColCategory           = "Category"
	ColPurchaseAmount     = "Purchase_Amount_USD"
	ColLocation           = "Location"
	ColSize               = "Size"
	ColColor              = "Color"
	ColSeason             = "Season"
	ColReviewRating       = "Review_Rating"
	ColSubscriptionStatus = "Subscription_Status"
	ColShippingType       = "Shipping_Type"
	ColDiscountApplied    = "Discount_Applied"
	ColPromoCodeUsed      = "Promo_Code_Used"
	ColPreviousPurchases  = "Previous_Purchases"
	ColPaymentMethod      = "Payment_Method"
	ColFrequency          = "Frequency_of_Purchases"
)

// CoreColumns are the columns every Record carries as typed fields
var CoreColumns = []string{
	ColAge, ColGender, ColPurchaseAmount, ColCategory, ColSeason, ColPaymentMethod,
	ColDiscountApplied, ColSubscriptionStatus, ColReviewRating, ColPreviousPurchases,
	ColLocation, ColColor,
}

// CategoricalColumns are indexed value -> rows at load time
var CategoricalColumns = []string{
	ColGender, ColCategory, ColSeason, ColPaymentMethod, ColDiscountApplied,
	ColSubscriptionStatus, ColLocation, ColColor,
}

// NumericColumns hold numbers; missing values load as 0
var NumericColumns = []string{
	ColAge, ColPurchaseAmount, ColReviewRating, ColPreviousPurchases,
}

// Record is one row of the shopping trends table
type Record struct {
	Age                int               `json:"Age"`
	Gender             string            `json:"Gender"`
	PurchaseAmountUSD  float64           `json:"Purchase_Amount_USD"`
	Category           string            `json:"Category"`
	Season             string            `json:"Season"`
	PaymentMethod      string            `json:"Payment_Method"`
	DiscountApplied    string            `json:"Discount_Applied"`
	SubscriptionStatus string            `json:"Subscription_Status"`
	ReviewRating       float64           `json:"Review_Rating"`
	PreviousPurchases  int               `json:"Previous_Purchases"`
	Location           string            `json:"Location"`
	Color              string            `json:"Color"`
	Extra              map[string]string `json:"extra,omitempty"`
}

// Discounted reports whether a discount was applied to the purchase
func (r *Record) Discounted() bool {
	switch r.DiscountApplied {
	case "Yes", "yes", "True", "true", "1":
		return true
	}
	return false
}

// Value returns the column's value as text. Unknown columns return "" and false.
func (r *Record) Value(col string) (string, bool) {
	switch col {
	case ColAge:
		return strconv.Itoa(r.Age), true
	case ColGender:
		return r.Gender, true
	case ColPurchaseAmount:
		return strconv.FormatFloat(r.PurchaseAmountUSD, 'f', -1, 64), true
	case ColCategory:
		return r.Category, true
	case ColSeason:
		return r.Season, true
	case ColPaymentMethod:
		return r.PaymentMethod, true
	case ColDiscountApplied:
		return r.DiscountApplied, true
	case ColSubscriptionStatus:
		return r.SubscriptionStatus, true
	case ColReviewRating:
		return strconv.FormatFloat(r.ReviewRating, 'f', -1, 64), true
	case ColPreviousPurchases:
		return strconv.Itoa(r.PreviousPurchases), true
	case ColLocation:
		return r.Location, true
	case ColColor:
		return r.Color, true
	}
	v, ok := r.Extra[col]
	return v, ok
}

// Number returns a numeric column as float64
func (r *Record) Number(col string) (float64, bool) {
	switch col {
	case ColAge:
		return float64(r.Age), true
	case ColPurchaseAmount:
		return r.PurchaseAmountUSD, true
	case ColReviewRating:
		return r.ReviewRating, true
	case ColPreviousPurchases:
		return float64(r.PreviousPurchases), true
	}
	return 0, false
}

// Fields flattens the record into a column -> value map, extras included.
// Numbers stay numeric so expression filters can compare them.
func (r *Record) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		ColAge:                int64(r.Age),
		ColGender:             r.Gender,
		ColPurchaseAmount:     r.PurchaseAmountUSD,
		ColCategory:           r.Category,
		ColSeason:             r.Season,
		ColPaymentMethod:      r.PaymentMethod,
		ColDiscountApplied:    r.DiscountApplied,
		ColSubscriptionStatus: r.SubscriptionStatus,
		ColReviewRating:       r.ReviewRating,
		ColPreviousPurchases:  int64(r.PreviousPurchases),
		ColLocation:           r.Location,
		ColColor:              r.Color,
	}
	for k, v := range r.Extra {
		fields[k] = v
	}
	return fields
}

// IsNumericColumn reports whether col is one of the numeric columns
func IsNumericColumn(col string) bool {
	for _, c := range NumericColumns {
		if c == col {
			return true
		}
	}
	return false
}
