package controls

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"shoptrends/internal/errors"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

const (
	eventSchemaURL   = "https://shoptrends.local/schemas/control-event.json"
	maxExpressionLen = 512
)

// Change is one validated control update: a known control id and a value already
// normalised into the control's domain.
type Change struct {
	Control string      `json:"control"`
	Value   interface{} `json:"value"`
}

// EventParser validates raw control events ({"control": id, "value": v}) against a JSON
// Schema generated from the catalog, then extracts the typed value.
type EventParser struct {
	catalog *Catalog
	schema  *jsonschema.Schema
}

// NewEventParser compiles the event schema for catalog
func NewEventParser(catalog *Catalog) (*EventParser, error) {
	raw, err := json.Marshal(eventSchema(catalog))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode control event schema")
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(eventSchemaURL, strings.NewReader(string(raw))); err != nil {
		return nil, errors.Wrap(err, "control event schema load failed")
	}
	schema, err := c.Compile(eventSchemaURL)
	if err != nil {
		return nil, errors.Wrap(err, "control event schema compile failed")
	}
	return &EventParser{catalog: catalog, schema: schema}, nil
}

// Parse validates body and returns the change it describes. Malformed bodies and values
// outside a choice domain are INVALID_INPUT; range values are clamped, not rejected.
func (p *EventParser) Parse(body []byte) (Change, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Change{}, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "control event is not valid JSON"))
	}
	if _, err := dec.Token(); err != io.EOF {
		return Change{}, errors.InvalidInput("control event has trailing data")
	}
	if err := p.schema.Validate(doc); err != nil {
		return Change{}, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "control event rejected"))
	}

	id := gjson.GetBytes(body, "control").String()
	ctl, ok := p.catalog.Get(id)
	if !ok {
		return Change{}, errors.InvalidInput("unknown control " + id)
	}

	value := gjson.GetBytes(body, "value")
	var raw interface{}
	switch ctl.Kind {
	case KindRange:
		pair := value.Array()
		raw = []interface{}{pair[0].Float(), pair[1].Float()}
	case KindMulti:
		items := make([]interface{}, 0)
		value.ForEach(func(_, item gjson.Result) bool {
			items = append(items, item.String())
			return true
		})
		raw = items
	case KindToggle:
		raw = value.Bool()
	default:
		raw = value.String()
	}

	normalised, err := p.catalog.Normalize(id, raw)
	if err != nil {
		return Change{}, errors.WithCode(errors.CodeInvalidInput, err)
	}
	return Change{Control: id, Value: normalised}, nil
}

// eventSchema builds a oneOf with one branch per control, each pinning the value shape
func eventSchema(catalog *Catalog) map[string]interface{} {
	branches := make([]interface{}, 0, len(catalog.Controls))
	for _, ctl := range catalog.Controls {
		branches = append(branches, map[string]interface{}{
			"properties": map[string]interface{}{
				"control": map[string]interface{}{"const": ctl.ID},
				"value":   valueSchema(ctl),
			},
		})
	}
	return map[string]interface{}{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"required":             []string{"control", "value"},
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"control": map[string]interface{}{"type": "string"},
			"value":   true,
		},
		"oneOf": branches,
	}
}

func valueSchema(ctl Control) map[string]interface{} {
	switch ctl.Kind {
	case KindRange:
		return map[string]interface{}{
			"type":     "array",
			"items":    map[string]interface{}{"type": "number"},
			"minItems": 2,
			"maxItems": 2,
		}
	case KindMulti:
		return map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string", "enum": ctl.Choices},
			"uniqueItems": true,
		}
	case KindSelect, KindRadio:
		return map[string]interface{}{"type": "string", "enum": ctl.Choices}
	case KindToggle:
		return map[string]interface{}{"type": "boolean"}
	default:
		return map[string]interface{}{"type": "string", "maxLength": maxExpressionLen}
	}
}
