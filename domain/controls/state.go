package controls

import (
	"math"
	"sort"
)

// Range is an inclusive [Lo, Hi] slider value
type Range struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Clamp orders the bounds and pulls them into [floor, ceil]. A zero domain
// (floor == ceil == 0) leaves the range unclamped.
func (r Range) Clamp(floor, ceil float64) Range {
	if r.Lo > r.Hi {
		r.Lo, r.Hi = r.Hi, r.Lo
	}
	if floor == 0 && ceil == 0 {
		return r
	}
	r.Lo = math.Max(floor, math.Min(r.Lo, ceil))
	r.Hi = math.Max(floor, math.Min(r.Hi, ceil))
	return r
}

// Contains reports lo <= v <= hi
func (r Range) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// FilterState is the full set of current control values for one session
type FilterState struct {
	AgeRange       Range    `json:"age_range"`
	PurchaseRange  Range    `json:"purchase_range"`
	Genders        []string `json:"gender"`
	Category       string   `json:"category"`
	Season         string   `json:"season"`
	PaymentMethods []string `json:"payment_method"`
	ShowDiscounts  bool     `json:"show_discounts"`
	ScatterColor   string   `json:"scatter_color"`
	RidgeSplit     string   `json:"ridge_split"`
	Expression     string   `json:"expression"`
}

// Value returns the current value of a control, or nil for an unknown id.
// Multi-select values are returned sorted so equal selections compare equal.
func (s FilterState) Value(id string) interface{} {
	switch id {
	case AgeRange:
		return s.AgeRange
	case PurchaseRange:
		return s.PurchaseRange
	case Gender:
		return sortedCopy(s.Genders)
	case Category:
		return s.Category
	case Season:
		return s.Season
	case PaymentMethod:
		return sortedCopy(s.PaymentMethods)
	case ShowDiscounts:
		return s.ShowDiscounts
	case ScatterColor:
		return s.ScatterColor
	case RidgeSplit:
		return s.RidgeSplit
	case Expression:
		return s.Expression
	}
	return nil
}

// With returns a copy of s with one control replaced. v must already be normalised.
func (s FilterState) With(id string, v interface{}) FilterState {
	next := s.Clone()
	next.set(id, v)
	return next
}

// Clone deep-copies the state
func (s FilterState) Clone() FilterState {
	s.Genders = append([]string{}, s.Genders...)
	s.PaymentMethods = append([]string{}, s.PaymentMethods...)
	return s
}

// Equal compares two states control by control
func (s FilterState) Equal(o FilterState) bool {
	if s.AgeRange != o.AgeRange || s.PurchaseRange != o.PurchaseRange ||
		s.Category != o.Category || s.Season != o.Season ||
		s.ShowDiscounts != o.ShowDiscounts || s.ScatterColor != o.ScatterColor ||
		s.RidgeSplit != o.RidgeSplit || s.Expression != o.Expression {
		return false
	}
	return sameSet(s.Genders, o.Genders) && sameSet(s.PaymentMethods, o.PaymentMethods)
}

func (s *FilterState) set(id string, v interface{}) {
	switch id {
	case AgeRange:
		s.AgeRange, _ = v.(Range)
	case PurchaseRange:
		s.PurchaseRange, _ = v.(Range)
	case Gender:
		s.Genders, _ = v.([]string)
	case Category:
		s.Category, _ = v.(string)
	case Season:
		s.Season, _ = v.(string)
	case PaymentMethod:
		s.PaymentMethods, _ = v.([]string)
	case ShowDiscounts:
		s.ShowDiscounts, _ = v.(bool)
	case ScatterColor:
		s.ScatterColor, _ = v.(string)
	case RidgeSplit:
		s.RidgeSplit, _ = v.(string)
	case Expression:
		s.Expression, _ = v.(string)
	}
}

func sortedCopy(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := sortedCopy(a), sortedCopy(b)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
