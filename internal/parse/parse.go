package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/EnkrateiaLucca/expense-report-automation/constants"
	"github.com/EnkrateiaLucca/expense-report-automation/internal/entity"
	"github.com/EnkrateiaLucca/expense-report-automation/internal/mindee"
)

// Config holds thresholds and behavior knobs for the parse pipeline.
// The zero value is usable; withDefaults fills the gaps.
type Config struct {
	// LowConfidenceThreshold flags fields scored below it. Default 0.5.
	LowConfidenceThreshold float64

	// RequiredFields flag the record when absent. Default: vendor name,
	// document date, currency code, total.
	RequiredFields []constants.FieldName

	// CurrencyTolerance overrides the per-currency cross-check tolerance
	// (default: smallest currency unit).
	CurrencyTolerance map[string]decimal.Decimal
}

func (c Config) withDefaults() Config {
	if c.LowConfidenceThreshold <= 0 {
		c.LowConfidenceThreshold = 0.5
	}
	if len(c.RequiredFields) == 0 {
		c.RequiredFields = constants.DefaultRequiredFields()
	}
	return c
}

// ParseFailure means the raw prediction was not shaped as expected at all and
// no record could be meaningfully constructed. Field-level problems never
// produce one; they degrade to warnings on a built record. The offending
// payload travels along for diagnostics.
type ParseFailure struct {
	Reason   string
	Fragment json.RawMessage
}

func (f *ParseFailure) Error() string {
	return "parse failure: " + f.Reason
}

// Parser turns raw prediction JSON into validated expense records. It holds
// no per-document state, so one Parser may serve any number of concurrent
// Parse calls.
type Parser struct {
	cfg Config
	log *slog.Logger
}

func NewParser(cfg Config, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{cfg: cfg.withDefaults(), log: logger}
}

// Parse runs the full pipeline: shape check, normalize, aggregate, validate,
// build. It returns either a complete (possibly warning-annotated) record or
// a *ParseFailure; never a partially-constructed record.
func (p *Parser) Parse(raw []byte) (*entity.ExpenseRecord, error) {
	start := time.Now()

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &ParseFailure{Reason: "empty prediction payload"}
	}
	if err := validateShape(raw); err != nil {
		p.log.Error("parse.shape_invalid", "error", err, "payload_bytes", len(raw))
		return nil, &ParseFailure{Reason: err.Error(), Fragment: json.RawMessage(raw)}
	}

	pred, err := mindee.DecodePrediction(raw)
	if err != nil {
		p.log.Error("parse.decode_failed", "error", err)
		return nil, &ParseFailure{Reason: fmt.Sprintf("undecodable prediction: %v", err), Fragment: json.RawMessage(raw)}
	}

	nf := normalizeAll(pred)
	scores, composite := aggregate(nf)
	warnings, corrected := p.validateFields(nf, scores)
	rec := buildRecord(nf, corrected, warnings, composite)

	p.log.Info("parse.ok",
		"vendor", rec.VendorName,
		"currency", rec.CurrencyCode,
		"total", rec.Total.String(),
		"line_items", len(rec.LineItems),
		"warnings", len(rec.Warnings),
		"confidence", rec.OverallConfidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// normalizeAll maps the service's field keys onto canonical fields and runs
// the kind-appropriate normalizer on each.
func normalizeAll(pred *mindee.Prediction) *normalizedFields {
	nf := &normalizedFields{
		Vendor:   NormalizeText(pred.Field(mindee.KeySupplierName)),
		Date:     NormalizeDate(pred.Field(mindee.KeyDate), pred.Locale),
		Currency: NormalizeCurrency(currencyField(pred)),
		Subtotal: NormalizeMoney(pred.Field(mindee.KeyTotalNet)),
		Tax:      NormalizeMoney(pred.Field(mindee.KeyTotalTax)),
		Total:    NormalizeMoney(pred.Field(mindee.KeyTotalAmount)),
	}

	nf.Lines = make([]normalizedLine, 0, len(pred.LineItems))
	for _, li := range pred.LineItems {
		nf.Lines = append(nf.Lines, normalizedLine{
			Description: NormalizeText(li.Description),
			Quantity:    NormalizeQuantity(li.Quantity),
			UnitPrice:   NormalizeMoney(li.UnitPrice),
			LineTotal:   NormalizeMoney(li.TotalAmount),
		})
	}
	return nf
}

// currencyField sources the currency from an explicit currency_code field
// when the service sent one, else from the document locale detection.
func currencyField(pred *mindee.Prediction) mindee.RawField {
	if f, ok := pred.Fields["currency_code"]; ok {
		return f
	}
	if pred.Locale.Currency == "" {
		return mindee.RawField{}
	}
	cur := pred.Locale.Currency
	return mindee.RawField{Value: &cur, Confidence: pred.Locale.Confidence}
}
