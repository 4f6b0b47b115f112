package parse

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/EnkrateiaLucca/expense-report-automation/internal/mindee"
)

// Field is a normalized field: a canonical typed value (nil when normalization
// failed), the confidence carried over from the raw field, and the raw source.
// Normalization never errors; malformed input yields a nil value and leaves
// the materiality call to later stages.
type Field[T any] struct {
	Value      *T
	Confidence float64
	Source     mindee.RawField

	// Ambiguous marks a value that parsed but admits more than one reading
	// (e.g. 03/04/2024 with no locale hint). Carried forward so the
	// validator can surface it.
	Ambiguous bool
}

// Missing reports whether normalization produced no usable value.
func (f Field[T]) Missing() bool { return f.Value == nil }

// EffectiveConfidence is the confidence downstream stages should use: a field
// without a value contributes zero trust regardless of its raw score.
func (f Field[T]) EffectiveConfidence() float64 {
	if f.Value == nil {
		return 0
	}
	return f.Confidence
}

// NormalizeText trims the raw value; whitespace-only input counts as missing.
func NormalizeText(raw mindee.RawField) Field[string] {
	f := Field[string]{Confidence: raw.Confidence, Source: raw}
	if raw.Value == nil {
		return f
	}
	s := strings.TrimSpace(*raw.Value)
	if s == "" {
		return f
	}
	f.Value = &s
	return f
}

// NormalizeMoney parses a decimal amount honoring locale separators
// ("1,234.56", "1.234,56", "1 234,56"). Strings with multiple decimal
// separators or non-numeric tokens yield a nil value.
func NormalizeMoney(raw mindee.RawField) Field[decimal.Decimal] {
	f := Field[decimal.Decimal]{Confidence: raw.Confidence, Source: raw}
	if raw.Value == nil {
		return f
	}
	if d, ok := parseLocalizedDecimal(*raw.Value); ok {
		f.Value = &d
	}
	return f
}

// NormalizeQuantity parses like money; quantities share the same separator
// conventions on printed receipts.
func NormalizeQuantity(raw mindee.RawField) Field[decimal.Decimal] {
	return NormalizeMoney(raw)
}

// NormalizeCurrency uppercases and validates against the ISO-4217 set.
// Unknown codes yield a nil value; the raw text stays on Source for warnings.
func NormalizeCurrency(raw mindee.RawField) Field[string] {
	f := Field[string]{Confidence: raw.Confidence, Source: raw}
	if raw.Value == nil {
		return f
	}
	code := strings.ToUpper(strings.TrimSpace(*raw.Value))
	if _, ok := iso4217[code]; !ok {
		return f
	}
	f.Value = &code
	return f
}

// dateOrder is how a locale writes slashed dates.
type dateOrder int

const (
	orderUnknown dateOrder = iota
	orderDayFirst
	orderMonthFirst
)

// localeDateOrder resolves a country code to its conventional day/month order.
var localeDateOrder = map[string]dateOrder{
	"US": orderMonthFirst, "PH": orderMonthFirst,
	"GB": orderDayFirst, "IE": orderDayFirst, "AU": orderDayFirst,
	"NZ": orderDayFirst, "IN": orderDayFirst, "ZA": orderDayFirst,
	"DE": orderDayFirst, "FR": orderDayFirst, "ES": orderDayFirst,
	"IT": orderDayFirst, "PT": orderDayFirst, "NL": orderDayFirst,
	"BE": orderDayFirst, "AT": orderDayFirst, "CH": orderDayFirst,
	"BR": orderDayFirst, "MX": orderDayFirst, "AR": orderDayFirst,
}

// currencyDateOrder is the fallback when the country is missing but the
// detected currency pins the region well enough.
var currencyDateOrder = map[string]dateOrder{
	"USD": orderMonthFirst,
	"GBP": orderDayFirst, "EUR": orderDayFirst, "AUD": orderDayFirst,
	"NZD": orderDayFirst, "INR": orderDayFirst, "BRL": orderDayFirst,
}

// NormalizeDate accepts ISO-8601 plus the slashed and dashed day/month
// permutations the service is known to emit. Ambiguous day/month readings are
// resolved with the document locale when its date order is known; otherwise
// the day-first reading wins and the field is marked Ambiguous.
func NormalizeDate(raw mindee.RawField, loc mindee.Locale) Field[time.Time] {
	f := Field[time.Time]{Confidence: raw.Confidence, Source: raw}
	if raw.Value == nil {
		return f
	}
	s := strings.TrimSpace(*raw.Value)
	if s == "" {
		return f
	}

	if t, ok := parseISODate(s); ok {
		f.Value = &t
		return f
	}

	t, ambiguous, ok := parseSlashedDate(s, resolveDateOrder(loc))
	if !ok {
		return f
	}
	f.Value = &t
	f.Ambiguous = ambiguous
	return f
}

func resolveDateOrder(loc mindee.Locale) dateOrder {
	if o, ok := localeDateOrder[strings.ToUpper(loc.Country)]; ok {
		return o
	}
	if o, ok := currencyDateOrder[strings.ToUpper(loc.Currency)]; ok {
		return o
	}
	return orderUnknown
}

func parseISODate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseSlashedDate handles d/m/y and m/d/y permutations (slash, dash or dot
// separated). Returns ambiguous=true when both readings are valid and the
// locale did not settle which one applies.
func parseSlashedDate(s string, order dateOrder) (time.Time, bool, bool) {
	sep := ""
	for _, c := range []string{"/", "-", "."} {
		if strings.Contains(s, c) {
			sep = c
			break
		}
	}
	if sep == "" {
		return time.Time{}, false, false
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return time.Time{}, false, false
	}

	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	y, errY := strconv.Atoi(parts[2])
	if errA != nil || errB != nil || errY != nil {
		return time.Time{}, false, false
	}
	if y < 100 {
		y += 2000
	}

	dayFirst := calendarDate(y, b, a)   // a = day, b = month
	monthFirst := calendarDate(y, a, b) // a = month, b = day

	switch {
	case dayFirst == nil && monthFirst == nil:
		return time.Time{}, false, false
	case dayFirst != nil && monthFirst == nil:
		return *dayFirst, false, true
	case dayFirst == nil && monthFirst != nil:
		return *monthFirst, false, true
	case a == b:
		return *dayFirst, false, true
	}

	// Both readings valid: defer to the locale, else day-first and flag it.
	switch order {
	case orderMonthFirst:
		return *monthFirst, false, true
	case orderDayFirst:
		return *dayFirst, false, true
	default:
		return *dayFirst, true, true
	}
}

// calendarDate builds a date and rejects overflow like 31/02.
func calendarDate(y, m, d int) *time.Time {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return nil
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != time.Month(m) || t.Day() != d {
		return nil
	}
	return &t
}

// parseLocalizedDecimal parses an amount whose decimal separator may be '.'
// or ',' and whose digits may be grouped by the other one (or by spaces).
func parseLocalizedDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', '¥', ' ', ' ', ' ':
			return -1
		}
		return r
	}, s)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return decimal.Decimal{}, false
	}

	var dots, commas []int
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots = append(dots, i)
		case r == ',':
			commas = append(commas, i)
		default:
			return decimal.Decimal{}, false
		}
	}

	decSep, ok := pickDecimalSeparator(s, dots, commas)
	if !ok {
		return decimal.Decimal{}, false
	}

	var b strings.Builder
	for _, r := range s {
		switch r {
		case '.', ',':
			if byte(r) == decSep {
				b.WriteByte('.')
			}
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || out == "." {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(out)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

// pickDecimalSeparator decides which separator (if any) is the decimal point.
// Returns ok=false for strings with conflicting separators, e.g. "1.2.3".
func pickDecimalSeparator(s string, dots, commas []int) (byte, bool) {
	switch {
	case len(dots) == 0 && len(commas) == 0:
		return 0, true

	case len(dots) > 0 && len(commas) > 0:
		// The later kind is the decimal separator; the earlier kind must be
		// valid grouping up to it, and the decimal separator must be unique.
		var decSep byte
		var decPos int
		var group []int
		if dots[len(dots)-1] > commas[len(commas)-1] {
			decSep, decPos, group = '.', dots[len(dots)-1], commas
			if len(dots) > 1 {
				return 0, false
			}
		} else {
			decSep, decPos, group = ',', commas[len(commas)-1], dots
			if len(commas) > 1 {
				return 0, false
			}
		}
		if !validGrouping(s[:decPos], group) {
			return 0, false
		}
		return decSep, true

	default:
		seps := dots
		sep := byte('.')
		if len(commas) > 0 {
			seps, sep = commas, ','
		}
		if len(seps) > 1 {
			// Repeated single separator is only legal as grouping: 1.234.567
			if !validGrouping(s, seps) {
				return 0, false
			}
			return 0, true
		}
		// One occurrence: groups of exactly three digits after a non-zero
		// integer part read as grouping ("1,234"); anything else is decimal.
		after := len(s) - seps[0] - 1
		before := s[:seps[0]]
		if after == 3 && before != "" && before != "0" {
			return 0, true
		}
		return sep, true
	}
}

// validGrouping checks that every separator splits off a group of exactly
// three digits up to the next separator (or end of string).
func validGrouping(s string, seps []int) bool {
	if seps[0] == 0 {
		return false
	}
	for i, pos := range seps {
		end := len(s)
		if i+1 < len(seps) {
			end = seps[i+1]
		}
		if end-pos-1 != 3 {
			return false
		}
	}
	return true
}
