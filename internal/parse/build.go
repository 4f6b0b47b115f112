package parse

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/EnkrateiaLucca/expense-report-automation/internal/entity"
)

// buildRecord assembles the final entity. Pure construction: all validation
// and confidence math happened in the earlier stages, and repeated calls with
// the same inputs produce identical records.
func buildRecord(nf *normalizedFields, corrected correctedFields, warnings []entity.Warning, composite float64) *entity.ExpenseRecord {
	items := make([]entity.LineItem, 0, len(nf.Lines))
	for _, l := range nf.Lines {
		items = append(items, entity.LineItem{
			Description: textOr(l.Description, ""),
			Quantity:    decOr(l.Quantity),
			UnitPrice:   decOr(l.UnitPrice),
			LineTotal:   decOr(l.LineTotal),
			Confidence:  l.Confidence(),
		})
	}

	if warnings == nil {
		warnings = []entity.Warning{}
	}

	return &entity.ExpenseRecord{
		VendorName:        textOr(nf.Vendor, ""),
		DocumentDate:      dateOr(nf.Date),
		CurrencyCode:      textOr(nf.Currency, ""),
		LineItems:         items,
		Subtotal:          corrected.Subtotal,
		Tax:               corrected.Tax,
		Total:             corrected.Total,
		OverallConfidence: composite,
		Warnings:          warnings,
	}
}

func textOr(f Field[string], def string) string {
	if f.Value == nil {
		return def
	}
	return *f.Value
}

func dateOr(f Field[time.Time]) time.Time {
	if f.Value == nil {
		return time.Time{}
	}
	return *f.Value
}

func decOr(f Field[decimal.Decimal]) decimal.Decimal {
	if f.Value == nil {
		return decimal.Zero
	}
	return *f.Value
}
