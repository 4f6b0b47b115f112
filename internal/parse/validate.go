package parse

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/EnkrateiaLucca/expense-report-automation/constants"
	"github.com/EnkrateiaLucca/expense-report-automation/internal/entity"
)

// correctedFields carries the validator's best-effort money values into the
// builder. Only subtotal is ever rewritten; total is never silently changed.
type correctedFields struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Dates outside this window are implausible for a submitted receipt.
var earliestPlausibleDate = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

const futureDateSlack = 48 * time.Hour

// validateFields cross-checks the normalized fields against each other and
// against the configured requirements. It never fails: the outcome is always
// a (possibly empty) warning list plus corrected values. Structural problems
// are caught before this stage ever runs.
func (p *Parser) validateFields(nf *normalizedFields, scores map[constants.FieldName]float64) ([]entity.Warning, correctedFields) {
	warnings := make([]entity.Warning, 0, 4)
	required := make(map[constants.FieldName]bool, len(p.cfg.RequiredFields))
	for _, name := range p.cfg.RequiredFields {
		required[name] = true
	}

	// Field-level issues, in canonical field order so repeated runs emit
	// identical warning lists.
	for _, name := range constants.ScalarFields {
		switch name {
		case constants.FieldDocumentDate:
			warnings = append(warnings, p.dateWarnings(nf.Date, required[name])...)
		case constants.FieldCurrencyCode:
			warnings = append(warnings, p.currencyWarnings(nf.Currency, required[name])...)
		default:
			if fieldMissing(nf, name) && required[name] {
				warnings = append(warnings, entity.MissingField(name))
			}
		}
		if score, ok := scores[name]; ok && !fieldMissing(nf, name) && score < p.cfg.LowConfidenceThreshold {
			warnings = append(warnings, entity.LowConfidence(name, score))
		}
	}

	// Totals reconciliation.
	var corrected correctedFields
	if nf.Tax.Value != nil {
		corrected.Tax = *nf.Tax.Value
	}
	if nf.Total.Value != nil {
		corrected.Total = *nf.Total.Value
	}

	currency := ""
	if nf.Currency.Value != nil {
		currency = *nf.Currency.Value
	}
	tol := toleranceFor(currency, p.cfg.CurrencyTolerance)

	lineSum := decimal.Zero
	haveLines := false
	for _, l := range nf.Lines {
		if l.LineTotal.Value != nil {
			lineSum = lineSum.Add(*l.LineTotal.Value)
			haveLines = true
		}
	}

	haveSubtotal := nf.Subtotal.Value != nil
	switch {
	case haveLines && haveSubtotal:
		stated := *nf.Subtotal.Value
		if lineSum.Sub(stated).Abs().GreaterThan(tol) {
			// Line-item detail is more granular and less error-prone than a
			// single summary number, so the sum wins.
			warnings = append(warnings, entity.InconsistentTotals(constants.FieldSubtotal, lineSum, stated))
			corrected.Subtotal = lineSum
		} else {
			corrected.Subtotal = stated
		}
	case haveLines:
		corrected.Subtotal = lineSum
	case haveSubtotal:
		corrected.Subtotal = *nf.Subtotal.Value
	default:
		// No line items and no stated subtotal: derive it so the record's
		// arithmetic invariant still holds.
		corrected.Subtotal = corrected.Total.Sub(corrected.Tax)
	}

	// Top-level check: surface both values, never overwrite the total.
	if nf.Total.Value != nil && (haveLines || haveSubtotal) {
		expected := corrected.Subtotal.Add(corrected.Tax)
		if expected.Sub(corrected.Total).Abs().GreaterThan(tol) {
			warnings = append(warnings, entity.InconsistentTotals(constants.FieldTotal, expected, corrected.Total))
		}
	}

	return warnings, corrected
}

func (p *Parser) dateWarnings(f Field[time.Time], required bool) []entity.Warning {
	raw := ""
	if f.Source.Value != nil {
		raw = *f.Source.Value
	}
	switch {
	case f.Value == nil && raw != "":
		return []entity.Warning{entity.InvalidDate(raw)}
	case f.Value == nil:
		if required {
			return []entity.Warning{entity.MissingField(constants.FieldDocumentDate)}
		}
		return nil
	case f.Ambiguous:
		return []entity.Warning{entity.InvalidDate(raw)}
	case f.Value.Before(earliestPlausibleDate) || f.Value.After(time.Now().Add(futureDateSlack)):
		return []entity.Warning{entity.InvalidDate(raw)}
	}
	return nil
}

func (p *Parser) currencyWarnings(f Field[string], required bool) []entity.Warning {
	raw := ""
	if f.Source.Value != nil {
		raw = *f.Source.Value
	}
	switch {
	case f.Value == nil && raw != "":
		return []entity.Warning{entity.InvalidCurrency(raw)}
	case f.Value == nil && required:
		return []entity.Warning{entity.MissingField(constants.FieldCurrencyCode)}
	}
	return nil
}

func fieldMissing(nf *normalizedFields, name constants.FieldName) bool {
	switch name {
	case constants.FieldVendorName:
		return nf.Vendor.Missing()
	case constants.FieldDocumentDate:
		return nf.Date.Missing()
	case constants.FieldCurrencyCode:
		return nf.Currency.Missing()
	case constants.FieldSubtotal:
		return nf.Subtotal.Missing()
	case constants.FieldTax:
		return nf.Tax.Missing()
	case constants.FieldTotal:
		return nf.Total.Missing()
	}
	return true
}
