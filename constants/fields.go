package constants

// FieldName is the canonical name for an extractable receipt attribute.
// These exact strings appear in warnings, logs and stored records.
type FieldName string

const (
	FieldVendorName   FieldName = "vendor_name"
	FieldDocumentDate FieldName = "document_date"
	FieldCurrencyCode FieldName = "currency_code"
	FieldSubtotal     FieldName = "subtotal"
	FieldTax          FieldName = "tax"
	FieldTotal        FieldName = "total"
)

// FieldKind declares how a raw prediction value is normalized.
type FieldKind string

const (
	KindText         FieldKind = "TEXT"
	KindDate         FieldKind = "DATE"
	KindMoney        FieldKind = "MONEY"
	KindQuantity     FieldKind = "QUANTITY"
	KindCurrencyCode FieldKind = "CURRENCY_CODE"
)

// ScalarFields lists every scalar field the pipeline extracts, in a stable order.
var ScalarFields = []FieldName{
	FieldVendorName,
	FieldDocumentDate,
	FieldCurrencyCode,
	FieldSubtotal,
	FieldTax,
	FieldTotal,
}

// KindOf maps each scalar field to its normalization kind.
var KindOf = map[FieldName]FieldKind{
	FieldVendorName:   KindText,
	FieldDocumentDate: KindDate,
	FieldCurrencyCode: KindCurrencyCode,
	FieldSubtotal:     KindMoney,
	FieldTax:          KindMoney,
	FieldTotal:        KindMoney,
}

// DefaultRequiredFields returns the fields a trustworthy record must carry.
// A missing required field flags the record but never aborts the parse.
func DefaultRequiredFields() []FieldName {
	return []FieldName{
		FieldVendorName,
		FieldDocumentDate,
		FieldCurrencyCode,
		FieldTotal,
	}
}
