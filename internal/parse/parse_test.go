package parse

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/EnkrateiaLucca/expense-report-automation/constants"
	"github.com/EnkrateiaLucca/expense-report-automation/internal/entity"
)

const cleanPayload = `{
	"supplier_name": {"value": "Starbucks", "confidence": 0.98},
	"date": {"value": "2024-04-03", "confidence": 0.97},
	"locale": {"language": "en", "country": "US", "currency": "USD", "confidence": 0.99},
	"total_net": {"value": 10.00, "confidence": 0.95},
	"total_tax": {"value": 0.83, "confidence": 0.94},
	"total_amount": {"value": 10.83, "confidence": 0.96},
	"line_items": [
		{
			"description": {"value": "Latte", "confidence": 0.92},
			"quantity": {"value": 2, "confidence": 0.9},
			"unit_price": {"value": 5.00, "confidence": 0.91},
			"total_amount": {"value": 10.00, "confidence": 0.93}
		}
	]
}`

var _ = Describe("Parser.Parse", func() {
	var parser *Parser

	BeforeEach(func() {
		parser = NewParser(Config{}, nil)
	})

	When("the payload is complete and consistent", func() {
		var rec *entity.ExpenseRecord

		JustBeforeEach(func() {
			var err error
			rec, err = parser.Parse([]byte(cleanPayload))
			Expect(err).NotTo(HaveOccurred())
		})

		It("maps every scalar field", func() {
			Expect(rec.VendorName).To(Equal("Starbucks"))
			Expect(rec.DocumentDate).To(Equal(time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)))
			Expect(rec.CurrencyCode).To(Equal("USD"))
			Expect(rec.Subtotal.String()).To(Equal("10"))
			Expect(rec.Tax.String()).To(Equal("0.83"))
			Expect(rec.Total.String()).To(Equal("10.83"))
		})

		It("maps the line items in document order", func() {
			Expect(rec.LineItems).To(HaveLen(1))
			Expect(rec.LineItems[0].Description).To(Equal("Latte"))
			Expect(rec.LineItems[0].Quantity.String()).To(Equal("2"))
			Expect(rec.LineItems[0].UnitPrice.String()).To(Equal("5"))
			Expect(rec.LineItems[0].LineTotal.String()).To(Equal("10"))
		})

		It("produces no warnings", func() {
			Expect(rec.Warnings).To(BeEmpty())
		})

		It("satisfies the arithmetic invariant", func() {
			Expect(rec.Subtotal.Add(rec.Tax)).To(Equal(rec.Total))
		})

		It("is not flagged for review", func() {
			Expect(rec.ReviewStatus(0.5)).To(Equal(constants.ReviewStatusClean))
		})

		It("is deterministic across repeated calls", func() {
			again, err := parser.Parse([]byte(cleanPayload))
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(rec))
		})
	})

	When("the total is absent", func() {
		const payload = `{
			"supplier_name": {"value": "Starbucks", "confidence": 0.98},
			"date": {"value": "2024-04-03", "confidence": 0.97},
			"locale": {"country": "US", "currency": "USD", "confidence": 0.99},
			"total_amount": {"value": null, "confidence": 0.0}
		}`

		It("still builds a record and flags the missing field", func() {
			rec, err := parser.Parse([]byte(payload))
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Total.IsZero()).To(BeTrue())
			Expect(rec.Warnings).To(ContainElement(entity.MissingField(constants.FieldTotal)))
		})

		It("penalizes the composite confidence", func() {
			rec, err := parser.Parse([]byte(payload))
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.OverallConfidence).To(BeNumerically("<", 0.8))
		})

		It("routes the record to review", func() {
			rec, err := parser.Parse([]byte(payload))
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.ReviewStatus(0.5)).To(Equal(constants.ReviewStatusFlagged))
		})
	})

	When("a field holds junk text", func() {
		const payload = `{
			"supplier_name": {"value": "Starbucks", "confidence": 0.98},
			"date": {"value": "sometime in april", "confidence": 0.41},
			"locale": {"country": "US", "currency": "USD", "confidence": 0.99},
			"total_amount": {"value": "ten dollars", "confidence": 0.5}
		}`

		It("degrades to warnings instead of failing", func() {
			rec, err := parser.Parse([]byte(payload))
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Warnings).To(ContainElement(entity.InvalidDate("sometime in april")))
			Expect(rec.Warnings).To(ContainElement(entity.MissingField(constants.FieldTotal)))
		})
	})

	When("the payload is structurally unusable", func() {
		It("fails on an empty payload", func() {
			_, err := parser.Parse([]byte("   "))
			Expect(err).To(BeAssignableToTypeOf(&ParseFailure{}))
		})

		It("fails on non-JSON text", func() {
			_, err := parser.Parse([]byte("not json at all"))
			Expect(err).To(BeAssignableToTypeOf(&ParseFailure{}))
		})

		It("fails on a non-object payload", func() {
			_, err := parser.Parse([]byte(`[1, 2, 3]`))
			Expect(err).To(BeAssignableToTypeOf(&ParseFailure{}))
		})

		It("fails on an empty object", func() {
			_, err := parser.Parse([]byte(`{}`))
			Expect(err).To(BeAssignableToTypeOf(&ParseFailure{}))
		})

		It("fails on a line item missing mandatory sub-fields", func() {
			_, err := parser.Parse([]byte(`{
				"supplier_name": {"value": "Starbucks", "confidence": 0.98},
				"line_items": [{"description": {"value": "Latte", "confidence": 0.9}}]
			}`))
			Expect(err).To(BeAssignableToTypeOf(&ParseFailure{}))
		})

		It("carries the offending payload on the failure", func() {
			_, err := parser.Parse([]byte(`[1, 2, 3]`))
			pf, ok := err.(*ParseFailure)
			Expect(ok).To(BeTrue())
			Expect(string(pf.Fragment)).To(Equal(`[1, 2, 3]`))
		})
	})

	When("the required set is customized", func() {
		It("only flags the configured fields", func() {
			parser = NewParser(Config{
				RequiredFields: []constants.FieldName{constants.FieldTotal},
			}, nil)
			rec, err := parser.Parse([]byte(`{
				"total_amount": {"value": 5.00, "confidence": 0.9},
				"locale": {"country": "US", "currency": "USD", "confidence": 0.9}
			}`))
			Expect(err).NotTo(HaveOccurred())
			for _, w := range rec.Warnings {
				Expect(w.Code).NotTo(Equal(entity.WarnMissingField))
			}
		})
	})
})
