package mindee

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Service keys of the receipt prediction schema. The parse package maps these
// onto canonical field names; everything else in the payload is ignored.
const (
	KeySupplierName = "supplier_name"
	KeyDate         = "date"
	KeyLocale       = "locale"
	KeyTotalNet     = "total_net"
	KeyTotalTax     = "total_tax"
	KeyTotalAmount  = "total_amount"
	KeyLineItems    = "line_items"
)

// Polygon is the bounding geometry of an extracted value, as a closed ring of
// page-relative [x, y] vertices.
type Polygon [][]float64

// RawField is one unvalidated value plus its confidence score, exactly as the
// prediction service returned it. Value is nil when the service saw nothing;
// numeric values keep their literal JSON text so no precision is lost before
// normalization.
type RawField struct {
	Value      *string
	Confidence float64
	Polygon    Polygon
}

func (f *RawField) UnmarshalJSON(b []byte) error {
	var env struct {
		Value      json.RawMessage `json:"value"`
		Confidence float64         `json:"confidence"`
		Polygon    Polygon         `json:"polygon"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	f.Value = rawValueText(env.Value)
	f.Confidence = env.Confidence
	f.Polygon = env.Polygon
	return nil
}

func (f RawField) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value      *string `json:"value"`
		Confidence float64 `json:"confidence"`
		Polygon    Polygon `json:"polygon,omitempty"`
	}{f.Value, f.Confidence, f.Polygon})
}

// rawValueText keeps strings unquoted and everything else (numbers, booleans)
// as its literal JSON text.
func rawValueText(raw json.RawMessage) *string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil
		}
		return &v
	}
	return &s
}

// RawLineItem is one predicted line item. All four sub-fields are mandatory in
// the payload shape; a line item without them is a structural failure, not a
// field-level warning.
type RawLineItem struct {
	Description RawField `json:"description"`
	Quantity    RawField `json:"quantity"`
	UnitPrice   RawField `json:"unit_price"`
	TotalAmount RawField `json:"total_amount"`
}

// Locale is the document-level locale detection, used to disambiguate dates.
type Locale struct {
	Language   string  `json:"language"`
	Country    string  `json:"country"`
	Currency   string  `json:"currency"`
	Confidence float64 `json:"confidence"`
}

// Prediction is the untrusted, possibly incomplete prediction object keyed by
// service field name. Absent keys behave as RawField{Value: nil, Confidence: 0}.
type Prediction struct {
	Fields    map[string]RawField
	LineItems []RawLineItem
	Locale    Locale
}

// DecodePrediction decodes the raw prediction JSON. Callers are expected to
// have shape-validated the payload first; decode errors here mean the payload
// is structurally unusable.
func DecodePrediction(raw []byte) (*Prediction, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}

	p := &Prediction{Fields: make(map[string]RawField, len(keys))}
	for key, val := range keys {
		switch key {
		case KeyLocale:
			if err := json.Unmarshal(val, &p.Locale); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
		case KeyLineItems:
			if err := json.Unmarshal(val, &p.LineItems); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
		default:
			var f RawField
			if err := json.Unmarshal(val, &f); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
			p.Fields[key] = f
		}
	}
	return p, nil
}

// Field returns the named scalar field, or an absent field when the service
// omitted the key.
func (p *Prediction) Field(key string) RawField {
	if f, ok := p.Fields[key]; ok {
		return f
	}
	return RawField{}
}
