package parse

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/EnkrateiaLucca/expense-report-automation/constants"
)

func textField(v string, conf float64) Field[string] {
	return Field[string]{Value: &v, Confidence: conf}
}

func dateField(t time.Time, conf float64) Field[time.Time] {
	return Field[time.Time]{Value: &t, Confidence: conf}
}

func moneyField(s string, conf float64) Field[decimal.Decimal] {
	d := decimal.RequireFromString(s)
	return Field[decimal.Decimal]{Value: &d, Confidence: conf}
}

func fullyConfidentFields() *normalizedFields {
	return &normalizedFields{
		Vendor:   textField("Starbucks", 1),
		Date:     dateField(time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC), 1),
		Currency: textField("USD", 1),
		Subtotal: moneyField("10.00", 1),
		Tax:      moneyField("0.83", 1),
		Total:    moneyField("10.83", 1),
	}
}

var _ = Describe("aggregate", func() {
	It("returns 1.0 when every field is fully trusted", func() {
		scores, composite := aggregate(fullyConfidentFields())
		Expect(composite).To(Equal(1.0))
		for _, name := range constants.ScalarFields {
			Expect(scores[name]).To(Equal(1.0))
		}
	})

	It("scores a missing field as zero regardless of its raw confidence", func() {
		nf := fullyConfidentFields()
		nf.Total = Field[decimal.Decimal]{Confidence: 0.97}
		scores, composite := aggregate(nf)
		Expect(scores[constants.FieldTotal]).To(BeZero())
		Expect(composite).To(BeNumerically("~", 0.8, 1e-9))
	})

	It("weighs identity fields heavier than the optional amounts", func() {
		missingVendor := fullyConfidentFields()
		missingVendor.Vendor = Field[string]{}
		missingTax := fullyConfidentFields()
		missingTax.Tax = Field[decimal.Decimal]{}

		_, withoutVendor := aggregate(missingVendor)
		_, withoutTax := aggregate(missingTax)
		Expect(withoutVendor).To(BeNumerically("<", withoutTax))
	})

	It("never increases when a field's confidence drops", func() {
		nf := fullyConfidentFields()
		_, before := aggregate(nf)
		nf.Date.Confidence = 0.4
		_, after := aggregate(nf)
		Expect(after).To(BeNumerically("<", before))
	})
})

var _ = Describe("normalizedLine confidence", func() {
	It("is the minimum over the component fields", func() {
		l := normalizedLine{
			Description: textField("Latte", 0.9),
			Quantity:    moneyField("1", 0.95),
			UnitPrice:   moneyField("4.50", 0.3),
			LineTotal:   moneyField("4.50", 0.85),
		}
		Expect(l.Confidence()).To(Equal(0.3))
	})

	It("is zero when any component failed to normalize", func() {
		l := normalizedLine{
			Description: textField("Latte", 0.9),
			Quantity:    Field[decimal.Decimal]{Confidence: 0.9},
			UnitPrice:   moneyField("4.50", 0.9),
			LineTotal:   moneyField("4.50", 0.9),
		}
		Expect(l.Confidence()).To(BeZero())
	})
})
