package invoice

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DecodeBatch", func() {
	var (
		input   string
		records []Record
		err     error
	)

	JustBeforeEach(func() {
		records, err = DecodeBatch([]byte(input))
	})

	When("the batch is a list of records", func() {
		BeforeEach(func() {
			input = `[
				{"invoice_number": "INV-1", "invoice_date": "2024-01-01", "seller_name": "Acme",
				 "currency": "eur", "net_total": 100, "tax_amount": "19,00", "gross_total": null,
				 "line_items": [{"description": "Widget", "quantity": 2, "unit_price": 50, "line_total": 100}]},
				{"invoice_number": null}
			]`
		})

		It("decodes every record", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
		})

		It("keeps the interchange field values", func() {
			Expect(records[0].InvoiceNumber).To(Equal("INV-1"))
			Expect(records[0].InvoiceDate.ISO()).To(Equal("2024-01-01"))
			Expect(records[0].TaxAmount.Equal(MustAmount("19.00"))).To(BeTrue())
			Expect(records[0].GrossTotal.IsAbsent()).To(BeTrue())
			Expect(records[0].LineItems).To(HaveLen(1))
		})

		It("normalizes null identity fields to absent", func() {
			Expect(records[1].InvoiceNumber).To(BeEmpty())
		})
	})

	When("the input is a single object", func() {
		BeforeEach(func() {
			input = `{"invoice_number": "INV-9"}`
		})

		It("wraps it in a batch of one", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].InvoiceNumber).To(Equal("INV-9"))
		})
	})

	When("the input is not a batch", func() {
		BeforeEach(func() {
			input = `"just a string"`
		})

		It("fails with ErrInvalidBatch", func() {
			Expect(err).To(MatchError(ErrInvalidBatch))
		})
	})

	When("a field has the wrong kind", func() {
		BeforeEach(func() {
			input = `[{"invoice_number": 42, "line_items": "none"}]`
		})

		It("fails with ErrInvalidBatch", func() {
			Expect(err).To(MatchError(ErrInvalidBatch))
		})
	})

	When("the input is not JSON", func() {
		BeforeEach(func() {
			input = `not json`
		})

		It("fails with ErrInvalidBatch", func() {
			Expect(err).To(MatchError(ErrInvalidBatch))
		})
	})

	When("the input is empty", func() {
		BeforeEach(func() {
			input = "  "
		})

		It("fails with ErrInvalidBatch", func() {
			Expect(err).To(MatchError(ErrInvalidBatch))
		})
	})
})
