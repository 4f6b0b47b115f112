package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/EnkrateiaLucca/expense-report-automation/constants"
)

// WarningCode tags the kind of field-level trust issue found on a record.
type WarningCode string

const (
	WarnMissingField       WarningCode = "MISSING_FIELD"
	WarnLowConfidence      WarningCode = "LOW_CONFIDENCE"
	WarnInconsistentTotals WarningCode = "INCONSISTENT_TOTALS"
	WarnInvalidDate        WarningCode = "INVALID_DATE"
	WarnInvalidCurrency    WarningCode = "INVALID_CURRENCY"
)

// Warning flags a trust issue on an otherwise-built record. The payload
// fields that apply depend on Code; the rest stay empty.
type Warning struct {
	Code     WarningCode `json:"code"`
	Field    string      `json:"field,omitempty"`
	Score    float64     `json:"score,omitempty"`
	Expected string      `json:"expected,omitempty"`
	Actual   string      `json:"actual,omitempty"`
	Raw      string      `json:"raw,omitempty"`
}

func MissingField(name constants.FieldName) Warning {
	return Warning{Code: WarnMissingField, Field: string(name)}
}

func LowConfidence(name constants.FieldName, score float64) Warning {
	return Warning{Code: WarnLowConfidence, Field: string(name), Score: score}
}

// InconsistentTotals reports a cross-check mismatch on the named field,
// carrying both sides so a reviewer can decide which to trust.
func InconsistentTotals(name constants.FieldName, expected, actual decimal.Decimal) Warning {
	return Warning{
		Code:     WarnInconsistentTotals,
		Field:    string(name),
		Expected: expected.String(),
		Actual:   actual.String(),
	}
}

func InvalidDate(raw string) Warning {
	return Warning{Code: WarnInvalidDate, Field: string(constants.FieldDocumentDate), Raw: raw}
}

func InvalidCurrency(raw string) Warning {
	return Warning{Code: WarnInvalidCurrency, Field: string(constants.FieldCurrencyCode), Raw: raw}
}

func (w Warning) String() string {
	switch w.Code {
	case WarnMissingField:
		return fmt.Sprintf("%s: %s", w.Code, w.Field)
	case WarnLowConfidence:
		return fmt.Sprintf("%s: %s (%.2f)", w.Code, w.Field, w.Score)
	case WarnInconsistentTotals:
		return fmt.Sprintf("%s: %s expected=%s actual=%s", w.Code, w.Field, w.Expected, w.Actual)
	case WarnInvalidDate, WarnInvalidCurrency:
		return fmt.Sprintf("%s: %q", w.Code, w.Raw)
	}
	return string(w.Code)
}

// LineItem is one purchased item in document order. A line item is only as
// trustworthy as its weakest attribute, so Confidence is the minimum over its
// component fields.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Confidence  float64         `json:"confidence"`
}

// ExpenseRecord is the final validated expense entity handed to the caller.
// Once built it is never mutated; the ID is assigned by the repository on save.
//
// When Warnings is empty, Total equals Subtotal+Tax and Subtotal equals the
// sum of line totals, within the currency's tolerance.
type ExpenseRecord struct {
	ID                uuid.UUID  `json:"id,omitempty"`
	VendorName        string     `json:"vendor_name"`
	DocumentDate      time.Time  `json:"document_date"`
	CurrencyCode      string     `json:"currency_code"`
	LineItems         []LineItem `json:"line_items"`

	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`

	OverallConfidence float64   `json:"overall_confidence"`
	Warnings          []Warning `json:"warnings"`
}

// HasWarning reports whether any warning with the given code is present.
func (r *ExpenseRecord) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// NeedsReview reports whether the record should be routed to a human:
// any warning, or composite confidence below the caller's threshold.
func (r *ExpenseRecord) NeedsReview(threshold float64) bool {
	return len(r.Warnings) > 0 || r.OverallConfidence < threshold
}

// ReviewStatus maps NeedsReview onto the stored status enum.
func (r *ExpenseRecord) ReviewStatus(threshold float64) constants.ReviewStatus {
	if r.NeedsReview(threshold) {
		return constants.ReviewStatusFlagged
	}
	return constants.ReviewStatusClean
}
