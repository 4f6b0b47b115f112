package parse

import "github.com/shopspring/decimal"

// iso4217 is the set of active ISO-4217 currency codes the normalizer accepts.
var iso4217 = map[string]struct{}{
	"AED": {}, "ARS": {}, "AUD": {}, "BGN": {}, "BHD": {}, "BIF": {},
	"BOB": {}, "BRL": {}, "CAD": {}, "CHF": {}, "CLP": {}, "CNY": {},
	"COP": {}, "CRC": {}, "CZK": {}, "DJF": {}, "DKK": {}, "DOP": {},
	"DZD": {}, "EGP": {}, "EUR": {}, "GBP": {}, "GNF": {}, "GTQ": {},
	"HKD": {}, "HUF": {}, "IDR": {}, "ILS": {}, "INR": {}, "ISK": {},
	"JOD": {}, "JPY": {}, "KES": {}, "KMF": {}, "KRW": {}, "KWD": {},
	"LKR": {}, "MAD": {}, "MXN": {}, "MYR": {}, "NGN": {}, "NOK": {},
	"NZD": {}, "OMR": {}, "PEN": {}, "PHP": {}, "PKR": {}, "PLN": {},
	"PYG": {}, "QAR": {}, "RON": {}, "RSD": {}, "RWF": {}, "SAR": {},
	"SEK": {}, "SGD": {}, "THB": {}, "TND": {}, "TRY": {}, "TWD": {},
	"TZS": {}, "UAH": {}, "UGX": {}, "USD": {}, "UYU": {}, "VND": {},
	"VUV": {}, "XAF": {}, "XOF": {}, "XPF": {}, "ZAR": {},
}

// zeroDecimalCurrencies have no minor unit; their tolerance is exact.
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "ISK": {}, "JPY": {},
	"KMF": {}, "KRW": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {},
	"VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

var centTolerance = decimal.New(1, -2) // 0.01

// toleranceFor returns the smallest currency unit for cross-total checks:
// 0.01 for two-decimal currencies, 0 for zero-decimal ones. An unknown or
// missing code falls back to the two-decimal tolerance.
func toleranceFor(code string, overrides map[string]decimal.Decimal) decimal.Decimal {
	if t, ok := overrides[code]; ok {
		return t
	}
	if _, ok := zeroDecimalCurrencies[code]; ok {
		return decimal.Zero
	}
	return centTolerance
}
