package controls

import (
	_ "embed"
	"fmt"
	"math"

	"shoptrends/domain/dataset"

	"gopkg.in/yaml.v3"
)

// Control ids
const (
	AgeRange      = "age_range"
	PurchaseRange = "purchase_range"
	Gender        = "gender"
	Category      = "category"
	Season        = "season"
	PaymentMethod = "payment_method"
	ShowDiscounts = "show_discounts"
	ScatterColor  = "scatter_color"
	RidgeSplit    = "ridge_split"
	Expression    = "expression"
)

// Sentinels meaning "no filter" / "no color encoding"
const (
	All  = "All"
	None = "None"
)

// Kind is the widget type of a control, which fixes the shape of its value
type Kind string

const (
	KindRange  Kind = "range"  // [lo, hi]
	KindMulti  Kind = "multi"  // set of choices
	KindSelect Kind = "select" // one choice
	KindRadio  Kind = "radio"  // one choice
	KindToggle Kind = "toggle" // bool
	KindText   Kind = "text"   // free string
)

//go:embed catalog.yaml
var catalogYAML []byte

// Control describes one input widget and the domain its value must stay within
type Control struct {
	ID         string      `yaml:"id" json:"id"`
	Label      string      `yaml:"label" json:"label"`
	Kind       Kind        `yaml:"kind" json:"kind"`
	Min        float64     `yaml:"min" json:"min,omitempty"`
	Max        float64     `yaml:"max" json:"max,omitempty"`
	Step       float64     `yaml:"step" json:"step,omitempty"`
	Choices    []string    `yaml:"choices" json:"choices,omitempty"`
	Default    interface{} `yaml:"default" json:"default"`
	DomainFrom string      `yaml:"domain_from" json:"-"`
	Help       string      `yaml:"help" json:"help,omitempty"`
}

// HasChoice reports whether v is one of the control's choices
func (c Control) HasChoice(v string) bool {
	for _, choice := range c.Choices {
		if choice == v {
			return true
		}
	}
	return false
}

// Catalog is the ordered set of controls
type Catalog struct {
	Controls []Control `yaml:"controls" json:"controls"`
	byID     map[string]int
}

// LoadCatalog parses the embedded control catalog
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog parses a YAML control catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse control catalog: %w", err)
	}
	c.reindex()
	for _, ctl := range c.Controls {
		switch ctl.Kind {
		case KindRange, KindMulti, KindSelect, KindRadio, KindToggle, KindText:
		default:
			return nil, fmt.Errorf("control %s: unknown kind %q", ctl.ID, ctl.Kind)
		}
		if (ctl.Kind == KindSelect || ctl.Kind == KindRadio) && len(ctl.Choices) == 0 {
			return nil, fmt.Errorf("control %s: %s needs choices", ctl.ID, ctl.Kind)
		}
	}
	return &c, nil
}

func (c *Catalog) reindex() {
	c.byID = make(map[string]int, len(c.Controls))
	for i, ctl := range c.Controls {
		c.byID[ctl.ID] = i
	}
}

// Get returns the control with the given id
func (c *Catalog) Get(id string) (Control, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Control{}, false
	}
	return c.Controls[i], true
}

// IDs returns control ids in catalog order
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Controls))
	for i, ctl := range c.Controls {
		ids[i] = ctl.ID
	}
	return ids
}

// Bind resolves data-derived domains against ds and returns a new catalog.
// Range controls take the observed min/max (rounded outwards) and default to the full
// span; choice controls append observed values missing from their list.
func (c *Catalog) Bind(ds *dataset.Dataset) *Catalog {
	bound := &Catalog{Controls: make([]Control, len(c.Controls))}
	for i, ctl := range c.Controls {
		ctl.Choices = append([]string(nil), ctl.Choices...)
		if ctl.DomainFrom != "" {
			switch ctl.Kind {
			case KindRange:
				lo, hi := columnDomain(ds, ctl.DomainFrom)
				ctl.Min, ctl.Max = math.Floor(lo), math.Ceil(hi)
				ctl.Default = []interface{}{ctl.Min, ctl.Max}
			case KindMulti, KindSelect, KindRadio:
				for _, v := range ds.Values(ctl.DomainFrom) {
					if v != "" && !ctl.HasChoice(v) {
						ctl.Choices = append(ctl.Choices, v)
					}
				}
			}
		}
		bound.Controls[i] = ctl
	}
	bound.reindex()
	return bound
}

func columnDomain(ds *dataset.Dataset, col string) (float64, float64) {
	switch col {
	case dataset.ColPurchaseAmount:
		return ds.PurchaseDomain()
	case dataset.ColAge:
		lo, hi := ds.AgeDomain()
		return float64(lo), float64(hi)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < ds.Len(); i++ {
		if v, ok := ds.Record(i).Number(col); ok {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

// Defaults returns the FilterState every session starts from and Reset restores
func (c *Catalog) Defaults() FilterState {
	var s FilterState
	for _, ctl := range c.Controls {
		v, err := coerce(ctl, ctl.Default)
		if err != nil {
			v = zeroValue(ctl.Kind)
		}
		s.set(ctl.ID, v)
	}
	return s
}

// Normalize checks v against the control's domain and returns the canonical value.
// Ranges are clamped into [Min, Max]; unknown choices are rejected.
func (c *Catalog) Normalize(id string, v interface{}) (interface{}, error) {
	ctl, ok := c.Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown control %q", id)
	}
	return coerce(ctl, v)
}

func zeroValue(kind Kind) interface{} {
	switch kind {
	case KindRange:
		return Range{}
	case KindMulti:
		return []string{}
	case KindToggle:
		return false
	}
	return ""
}

// coerce converts a decoded value (YAML or JSON shaped) into the control's typed value
func coerce(ctl Control, v interface{}) (interface{}, error) {
	switch ctl.Kind {
	case KindRange:
		r, err := toRange(v)
		if err != nil {
			return nil, fmt.Errorf("control %s: %w", ctl.ID, err)
		}
		return r.Clamp(ctl.Min, ctl.Max), nil

	case KindMulti:
		items, err := toStrings(v)
		if err != nil {
			return nil, fmt.Errorf("control %s: %w", ctl.ID, err)
		}
		seen := make(map[string]bool, len(items))
		out := make([]string, 0, len(items))
		for _, item := range items {
			if !ctl.HasChoice(item) {
				return nil, fmt.Errorf("control %s: %q is not a choice", ctl.ID, item)
			}
			if !seen[item] {
				seen[item] = true
				out = append(out, item)
			}
		}
		return out, nil

	case KindSelect, KindRadio:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("control %s: expected string, got %T", ctl.ID, v)
		}
		if !ctl.HasChoice(s) {
			return nil, fmt.Errorf("control %s: %q is not a choice", ctl.ID, s)
		}
		return s, nil

	case KindToggle:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("control %s: expected bool, got %T", ctl.ID, v)
		}
		return b, nil

	case KindText:
		if v == nil {
			return "", nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("control %s: expected string, got %T", ctl.ID, v)
		}
		return s, nil
	}
	return nil, fmt.Errorf("control %s: unknown kind %q", ctl.ID, ctl.Kind)
}

func toRange(v interface{}) (Range, error) {
	switch t := v.(type) {
	case Range:
		return t, nil
	case []float64:
		if len(t) != 2 {
			return Range{}, fmt.Errorf("range needs 2 values, got %d", len(t))
		}
		return Range{Lo: t[0], Hi: t[1]}, nil
	case []interface{}:
		if len(t) != 2 {
			return Range{}, fmt.Errorf("range needs 2 values, got %d", len(t))
		}
		lo, err := toFloat(t[0])
		if err != nil {
			return Range{}, err
		}
		hi, err := toFloat(t[1])
		if err != nil {
			return Range{}, err
		}
		return Range{Lo: lo, Hi: hi}, nil
	}
	return Range{}, fmt.Errorf("expected a [lo, hi] pair, got %T", v)
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

func toStrings(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return t, nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected strings, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of strings, got %T", v)
}
