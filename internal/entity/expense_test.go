package entity

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/EnkrateiaLucca/expense-report-automation/constants"
)

func TestEntity(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Entity Suite")
}

var _ = Describe("ExpenseRecord review routing", func() {
	var rec *ExpenseRecord

	BeforeEach(func() {
		rec = &ExpenseRecord{OverallConfidence: 0.9, Warnings: []Warning{}}
	})

	It("is clean when confident and warning-free", func() {
		Expect(rec.NeedsReview(0.5)).To(BeFalse())
		Expect(rec.ReviewStatus(0.5)).To(Equal(constants.ReviewStatusClean))
	})

	It("is flagged by any warning", func() {
		rec.Warnings = append(rec.Warnings, MissingField(constants.FieldTax))
		Expect(rec.NeedsReview(0.5)).To(BeTrue())
		Expect(rec.ReviewStatus(0.5)).To(Equal(constants.ReviewStatusFlagged))
	})

	It("is flagged below the confidence threshold", func() {
		rec.OverallConfidence = 0.4
		Expect(rec.NeedsReview(0.5)).To(BeTrue())
	})

	It("reports warning presence by code", func() {
		rec.Warnings = append(rec.Warnings, LowConfidence(constants.FieldVendorName, 0.2))
		Expect(rec.HasWarning(WarnLowConfidence)).To(BeTrue())
		Expect(rec.HasWarning(WarnInvalidDate)).To(BeFalse())
	})
})
