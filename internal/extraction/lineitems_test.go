package extraction_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/invoice-qc/internal/extraction"
	"github.com/zombor/invoice-qc/internal/invoice"
)

var _ = Describe("ExtractLineItems", func() {
	var (
		region string
		items  []invoice.LineItem
	)

	JustBeforeEach(func() {
		items = extraction.ExtractLineItems(region)
	})

	When("a row has quantity, unit price and total", func() {
		BeforeEach(func() {
			region = "Widget A 2 10.00 20.00"
		})

		It("should read the numbers from the right", func() {
			Expect(items).To(HaveLen(1))
			Expect(items[0].Description).To(Equal("Widget A"))
			expectAmount(items[0].Quantity, "2")
			expectAmount(items[0].UnitPrice, "10.00")
			expectAmount(items[0].LineTotal, "20.00")
		})
	})

	When("a row has only a price and a total", func() {
		BeforeEach(func() {
			region = "Service fee 25.00 25.00"
		})

		It("should default the quantity to one", func() {
			Expect(items).To(HaveLen(1))
			Expect(items[0].Description).To(Equal("Service fee"))
			expectAmount(items[0].Quantity, "1")
		})
	})

	When("a row has a single amount", func() {
		BeforeEach(func() {
			region = "Shipping 10,00"
		})

		It("should discard it", func() {
			Expect(items).To(BeEmpty())
		})
	})

	When("a description wraps onto an earlier line", func() {
		BeforeEach(func() {
			region = "Premium widget\nwith extended warranty 3 4.50 13.50"
		})

		It("should join the lines into one description", func() {
			Expect(items).To(HaveLen(1))
			Expect(items[0].Description).To(Equal("Premium widget with extended warranty"))
			expectAmount(items[0].LineTotal, "13.50")
		})
	})

	When("rows carry a position number and currency codes", func() {
		BeforeEach(func() {
			region = "3 Cable 4 EUR 2,50 EUR 10,00\n4 Machine 1 1.234,56 1.234,56"
		})

		It("should drop the position and the codes", func() {
			Expect(items).To(HaveLen(2))
			Expect(items[0].Description).To(Equal("Cable"))
			expectAmount(items[0].Quantity, "4")
			expectAmount(items[0].UnitPrice, "2.50")
			Expect(items[1].Description).To(Equal("Machine"))
			expectAmount(items[1].LineTotal, "1234.56")
		})
	})

	DescribeTable("a unit word between quantity and unit price",
		func(row, description, quantity, unitPrice, lineTotal string) {
			items := extraction.ExtractLineItems(row)
			Expect(items).To(HaveLen(1))
			Expect(items[0].Description).To(Equal(description))
			expectAmount(items[0].Quantity, quantity)
			expectAmount(items[0].UnitPrice, unitPrice)
			expectAmount(items[0].LineTotal, lineTotal)
		},
		Entry("english pieces", "Widget 2 pcs 10.00 20.00", "Widget", "2", "10.00", "20.00"),
		Entry("german Stk.", "Widget 2 Stk. 10,00 20,00", "Widget", "2", "10.00", "20.00"),
		Entry("german Stk. with position", "1 Handschuhe Nitril 3 Stk 20,00 60,00", "Handschuhe Nitril", "3", "20.00", "60.00"),
		Entry("model number without a unit", "Router X 300 Pro 10.00 20.00", "Router X 300 Pro", "1", "10.00", "20.00"),
	)

	When("trailing text has no amounts", func() {
		BeforeEach(func() {
			region = "Widget 1 5.00 5.00\nThank you for your business"
		})

		It("should ignore it", func() {
			Expect(items).To(HaveLen(1))
		})
	})

	When("the region is empty", func() {
		BeforeEach(func() {
			region = ""
		})

		It("should return no items", func() {
			Expect(items).To(BeEmpty())
		})
	})
})
