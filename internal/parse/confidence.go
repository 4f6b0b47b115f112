package parse

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/EnkrateiaLucca/expense-report-automation/constants"
)

// normalizedFields is the full output of the normalization stage for one
// document. It exists only for the duration of a Parse call.
type normalizedFields struct {
	Vendor   Field[string]
	Date     Field[time.Time]
	Currency Field[string]
	Subtotal Field[decimal.Decimal]
	Tax      Field[decimal.Decimal]
	Total    Field[decimal.Decimal]
	Lines    []normalizedLine
}

type normalizedLine struct {
	Description Field[string]
	Quantity    Field[decimal.Decimal]
	UnitPrice   Field[decimal.Decimal]
	LineTotal   Field[decimal.Decimal]
}

// Confidence of a line item is the minimum over its component fields; a line
// item is only as trustworthy as its weakest attribute.
func (l normalizedLine) Confidence() float64 {
	min := l.Description.EffectiveConfidence()
	for _, c := range []float64{
		l.Quantity.EffectiveConfidence(),
		l.UnitPrice.EffectiveConfidence(),
		l.LineTotal.EffectiveConfidence(),
	} {
		if c < min {
			min = c
		}
	}
	return min
}

// fieldWeights biases the composite toward the identity fields a downstream
// accounting system cannot do without.
var fieldWeights = map[constants.FieldName]float64{
	constants.FieldVendorName:   2,
	constants.FieldDocumentDate: 2,
	constants.FieldCurrencyCode: 2,
	constants.FieldTotal:        2,
	constants.FieldSubtotal:     1,
	constants.FieldTax:          1,
}

// aggregate computes per-field effective confidences and the weighted
// composite for the whole record. Pure and deterministic; a field whose
// normalized value is nil contributes zero regardless of its raw score.
func aggregate(nf *normalizedFields) (map[constants.FieldName]float64, float64) {
	scores := map[constants.FieldName]float64{
		constants.FieldVendorName:   nf.Vendor.EffectiveConfidence(),
		constants.FieldDocumentDate: nf.Date.EffectiveConfidence(),
		constants.FieldCurrencyCode: nf.Currency.EffectiveConfidence(),
		constants.FieldSubtotal:     nf.Subtotal.EffectiveConfidence(),
		constants.FieldTax:          nf.Tax.EffectiveConfidence(),
		constants.FieldTotal:        nf.Total.EffectiveConfidence(),
	}

	var num, den float64
	for _, name := range constants.ScalarFields {
		w := fieldWeights[name]
		den += w
		num += w * scores[name]
	}
	if den == 0 {
		return scores, 0
	}
	return scores, num / den
}
