package parse

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/EnkrateiaLucca/expense-report-automation/constants"
	"github.com/EnkrateiaLucca/expense-report-automation/internal/entity"
)

var _ = Describe("validateFields", func() {
	var (
		parser    *Parser
		nf        *normalizedFields
		warnings  []entity.Warning
		corrected correctedFields
	)

	BeforeEach(func() {
		parser = NewParser(Config{}, nil)
		nf = fullyConfidentFields()
	})

	JustBeforeEach(func() {
		scores, _ := aggregate(nf)
		warnings, corrected = parser.validateFields(nf, scores)
	})

	When("the record is internally consistent", func() {
		It("emits no warnings", func() {
			Expect(warnings).To(BeEmpty())
		})

		It("keeps the stated amounts", func() {
			Expect(corrected.Subtotal.String()).To(Equal("10"))
			Expect(corrected.Tax.String()).To(Equal("0.83"))
			Expect(corrected.Total.String()).To(Equal("10.83"))
		})
	})

	When("line totals disagree with the stated subtotal", func() {
		BeforeEach(func() {
			nf.Subtotal = moneyField("95.00", 1)
			nf.Tax = moneyField("5.00", 1)
			nf.Total = moneyField("105.50", 1)
			nf.Lines = []normalizedLine{
				{Description: textField("Widget", 1), Quantity: moneyField("1", 1),
					UnitPrice: moneyField("30.00", 1), LineTotal: moneyField("30.00", 1)},
				{Description: textField("Gadget", 1), Quantity: moneyField("1", 1),
					UnitPrice: moneyField("70.50", 1), LineTotal: moneyField("70.50", 1)},
			}
		})

		It("prefers the line-item sum", func() {
			Expect(corrected.Subtotal.String()).To(Equal("100.5"))
		})

		It("records both values in the warning", func() {
			Expect(warnings).To(ContainElement(
				entity.InconsistentTotals(constants.FieldSubtotal,
					decimal.RequireFromString("100.50"),
					decimal.RequireFromString("95.00"))))
		})

		It("accepts the total once the corrected subtotal reconciles it", func() {
			for _, w := range warnings {
				if w.Code == entity.WarnInconsistentTotals {
					Expect(w.Field).NotTo(Equal(string(constants.FieldTotal)))
				}
			}
		})
	})

	When("the amounts disagree beyond the currency tolerance", func() {
		BeforeEach(func() {
			nf.Total = moneyField("11.00", 1)
		})

		It("flags the total but does not rewrite it", func() {
			Expect(warnings).To(ContainElement(
				entity.InconsistentTotals(constants.FieldTotal,
					decimal.RequireFromString("10.83"),
					decimal.RequireFromString("11.00"))))
			Expect(corrected.Total.String()).To(Equal("11"))
		})
	})

	When("the amounts disagree within the currency tolerance", func() {
		BeforeEach(func() {
			nf.Total = moneyField("10.84", 1)
		})

		It("emits no warning", func() {
			Expect(warnings).To(BeEmpty())
		})
	})

	When("the currency has no minor unit", func() {
		BeforeEach(func() {
			nf.Currency = textField("JPY", 1)
			nf.Subtotal = moneyField("1000", 1)
			nf.Tax = moneyField("100", 1)
			nf.Total = moneyField("1101", 1)
		})

		It("applies an exact tolerance", func() {
			Expect(warnings).To(ContainElement(
				entity.InconsistentTotals(constants.FieldTotal,
					decimal.RequireFromString("1100"),
					decimal.RequireFromString("1101"))))
		})
	})

	When("a required field is missing", func() {
		BeforeEach(func() {
			nf.Vendor = Field[string]{}
		})

		It("warns and still produces corrected amounts", func() {
			Expect(warnings).To(ContainElement(entity.MissingField(constants.FieldVendorName)))
			Expect(corrected.Total.String()).To(Equal("10.83"))
		})
	})

	When("an optional field is missing", func() {
		BeforeEach(func() {
			nf.Tax = Field[decimal.Decimal]{}
			nf.Subtotal = moneyField("10.83", 1)
		})

		It("emits no warning", func() {
			Expect(warnings).To(BeEmpty())
		})
	})

	When("neither line items nor a subtotal are present", func() {
		BeforeEach(func() {
			nf.Subtotal = Field[decimal.Decimal]{}
		})

		It("derives the subtotal from total and tax", func() {
			Expect(corrected.Subtotal.String()).To(Equal("10"))
			Expect(warnings).To(BeEmpty())
		})
	})

	When("a present field scores below the threshold", func() {
		BeforeEach(func() {
			nf.Vendor = textField("Starbucks", 0.3)
		})

		It("flags low confidence", func() {
			Expect(warnings).To(ContainElement(entity.LowConfidence(constants.FieldVendorName, 0.3)))
		})
	})

	When("the date was present but unparseable", func() {
		BeforeEach(func() {
			raw := rawField("sometime in april", 0.9)
			nf.Date = Field[time.Time]{Confidence: 0.9, Source: raw}
		})

		It("flags an invalid date rather than a missing one", func() {
			Expect(warnings).To(ContainElement(entity.InvalidDate("sometime in april")))
			for _, w := range warnings {
				Expect(w).NotTo(Equal(entity.MissingField(constants.FieldDocumentDate)))
			}
		})
	})

	When("the date is ambiguous", func() {
		BeforeEach(func() {
			raw := rawField("03/04/2024", 0.9)
			d := time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)
			nf.Date = Field[time.Time]{Value: &d, Confidence: 0.9, Source: raw, Ambiguous: true}
		})

		It("flags the raw text", func() {
			Expect(warnings).To(ContainElement(entity.InvalidDate("03/04/2024")))
		})
	})

	When("the date is implausibly old", func() {
		BeforeEach(func() {
			raw := rawField("1987-06-01", 0.9)
			d := time.Date(1987, 6, 1, 0, 0, 0, 0, time.UTC)
			nf.Date = Field[time.Time]{Value: &d, Confidence: 0.9, Source: raw}
		})

		It("flags an invalid date", func() {
			Expect(warnings).To(ContainElement(entity.InvalidDate("1987-06-01")))
		})
	})

	When("the currency was present but unknown", func() {
		BeforeEach(func() {
			raw := rawField("XYZ", 0.9)
			nf.Currency = Field[string]{Confidence: 0.9, Source: raw}
		})

		It("flags an invalid currency", func() {
			Expect(warnings).To(ContainElement(entity.InvalidCurrency("XYZ")))
		})
	})

	It("emits warnings in a stable order across runs", func() {
		nf.Vendor = Field[string]{}
		nf.Currency = Field[string]{}
		scores, _ := aggregate(nf)
		first, _ := parser.validateFields(nf, scores)
		second, _ := parser.validateFields(nf, scores)
		Expect(first).To(Equal(second))
	})
})
