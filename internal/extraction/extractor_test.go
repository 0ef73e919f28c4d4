package extraction_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/invoice-qc/internal/extraction"
	"github.com/zombor/invoice-qc/internal/invoice"
	"github.com/zombor/invoice-qc/internal/patterns"
)

var _ = Describe("Extractor", func() {
	var (
		extractor  *extraction.Extractor
		text       string
		lang       patterns.Language
		record     invoice.Record
		unresolved extraction.Unresolved
		err        error
	)

	BeforeEach(func() {
		extractor = extraction.New(nil)
	})

	JustBeforeEach(func() {
		record, unresolved, err = extractor.Extract(text, lang)
	})

	When("reading a German invoice", func() {
		BeforeEach(func() {
			text = germanInvoice
			lang = patterns.German
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should read the identity fields", func() {
			Expect(record.InvoiceNumber).To(Equal("34343"))
			Expect(record.CustomerNumber).To(Equal("12345"))
			Expect(record.PurchaseOrderNumber).To(Equal("AUFNR34343"))
		})

		It("should parse the invoice date", func() {
			Expect(record.InvoiceDate.Raw).To(Equal("22.05.2024"))
			Expect(record.InvoiceDate.ISO()).To(Equal("2024-05-22"))
		})

		It("should read the terms", func() {
			Expect(record.PaymentTerms).To(Equal("30 Tage netto"))
			Expect(record.DeliveryTerms).To(Equal("frei Haus"))
		})

		It("should read comma-decimal totals", func() {
			Expect(record.Currency).To(Equal("EUR"))
			expectAmount(record.NetTotal, "70.00")
			expectAmount(record.TaxRate, "19")
			expectAmount(record.TaxAmount, "13.30")
			expectAmount(record.GrossTotal, "83.30")
		})

		It("should split the party blocks into name and address", func() {
			Expect(record.SellerName).To(Equal("Beispielname Unternehmen GmbH"))
			Expect(record.SellerAddress).To(Equal("Musterstraße 1, 12345 Musterstadt"))
			Expect(record.BuyerName).To(Equal("Muster Klinik AG"))
			Expect(record.BuyerAddress).To(Equal("Klinikweg 5, 54321 Beispielstadt"))
		})

		It("should read the table rows", func() {
			Expect(record.LineItems).To(HaveLen(2))
			Expect(record.LineItems[0].Description).To(Equal("Sterilisationsmittel"))
			expectAmount(record.LineItems[0].Quantity, "2")
			expectAmount(record.LineItems[0].UnitPrice, "5.00")
			expectAmount(record.LineItems[0].LineTotal, "10.00")
			Expect(record.LineItems[1].Description).To(Equal("Handschuhe Nitril"))
			expectAmount(record.LineItems[1].LineTotal, "60.00")
		})

		It("should tag the record with its language", func() {
			Expect(record.Language).To(Equal("de"))
		})

		It("should report only the fields the document lacks", func() {
			Expect(unresolved.Fields()).To(ConsistOf(
				invoice.FieldDueDate,
				invoice.FieldDeliveryDate,
				invoice.FieldEndCustomerNumber,
			))
		})
	})

	When("reading an English invoice", func() {
		BeforeEach(func() {
			text = englishInvoice
			lang = patterns.English
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should read the identity fields", func() {
			Expect(record.InvoiceNumber).To(Equal("INV-2024-001"))
			Expect(record.CustomerNumber).To(Equal("C-778"))
			Expect(record.PurchaseOrderNumber).To(Equal("PO-5521"))
			Expect(record.PaymentTerms).To(Equal("Net 30"))
		})

		It("should parse both dates", func() {
			Expect(record.InvoiceDate.ISO()).To(Equal("2024-03-15"))
			Expect(record.DueDate.ISO()).To(Equal("2024-04-14"))
		})

		It("should read dot-decimal totals", func() {
			Expect(record.Currency).To(Equal("USD"))
			expectAmount(record.NetTotal, "50.00")
			expectAmount(record.TaxRate, "10")
			expectAmount(record.TaxAmount, "5.00")
			expectAmount(record.GrossTotal, "55.00")
		})

		It("should read the parties", func() {
			Expect(record.SellerName).To(Equal("Acme Supplies Ltd"))
			Expect(record.SellerAddress).To(Equal("12 High Street, London EC1A 1BB"))
			Expect(record.BuyerName).To(Equal("Globex Corporation"))
			Expect(record.BuyerAddress).To(Equal("500 Oak Avenue, Springfield, IL 62704"))
		})

		It("should read the table rows", func() {
			Expect(record.LineItems).To(HaveLen(2))
			Expect(record.LineItems[0].Description).To(Equal("Widget A"))
			expectAmount(record.LineItems[0].Quantity, "2")
			expectAmount(record.LineItems[1].LineTotal, "30.00")
		})
	})

	When("the text holds no invoice fields", func() {
		BeforeEach(func() {
			text = "lorem ipsum dolor sit amet"
			lang = patterns.English
		})

		It("should still return a record", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(record.InvoiceNumber).To(BeEmpty())
			Expect(record.NetTotal.IsAbsent()).To(BeTrue())
			Expect(record.LineItems).To(BeEmpty())
		})

		It("should mark every field unresolved", func() {
			Expect(unresolved.Has(invoice.FieldInvoiceNumber)).To(BeTrue())
			Expect(unresolved.Has(invoice.FieldGrossTotal)).To(BeTrue())
			Expect(unresolved.Has(invoice.FieldLineItems)).To(BeTrue())
			Expect(unresolved[invoice.FieldInvoiceNumber]).To(BeEmpty())
		})
	})

	When("an amount cannot be read", func() {
		BeforeEach(func() {
			text = "Invoice Number: X1\nSubtotal: 12.34.56,7,8\n"
			lang = patterns.English
		})

		It("should keep the raw text as an unparseable amount", func() {
			Expect(record.NetTotal.IsUnparseable()).To(BeTrue())
			Expect(record.NetTotal.Raw()).To(Equal("12.34.56,7,8"))
		})

		It("should note the raw text as unresolved", func() {
			Expect(unresolved[invoice.FieldNetTotal]).To(Equal("12.34.56,7,8"))
		})
	})

	When("the currency is not recognized", func() {
		BeforeEach(func() {
			text = "Invoice Number: X1\nTotal GBP 10.00\n"
			lang = patterns.English
		})

		It("should leave the currency absent", func() {
			Expect(record.Currency).To(BeEmpty())
			Expect(unresolved[invoice.FieldCurrency]).To(Equal("GBP"))
		})
	})

	When("the currency is written in lower case", func() {
		BeforeEach(func() {
			text = "Currency: usd\n"
			lang = patterns.English
		})

		It("should store it upper-cased", func() {
			Expect(record.Currency).To(Equal("USD"))
		})
	})

	When("the language has no pattern set", func() {
		BeforeEach(func() {
			text = germanInvoice
			lang = patterns.Language("fr")
		})

		It("should return ErrUnsupportedLanguage", func() {
			Expect(err).To(MatchError(patterns.ErrUnsupportedLanguage))
		})
	})
})

var _ = Describe("ExtractAuto", func() {
	It("should pick the German pattern set for German text", func() {
		record, _, err := extraction.New(nil).ExtractAuto(germanInvoice)
		Expect(err).NotTo(HaveOccurred())
		Expect(record.Language).To(Equal("de"))
		Expect(record.InvoiceNumber).To(Equal("34343"))
	})

	It("should pick the English pattern set for English text", func() {
		record, _, err := extraction.New(nil).ExtractAuto(englishInvoice)
		Expect(err).NotTo(HaveOccurred())
		Expect(record.Language).To(Equal("en"))
		Expect(record.InvoiceNumber).To(Equal("INV-2024-001"))
	})
})

var _ = Describe("ExtractAuto without an English pattern set", func() {
	It("should return ErrUnsupportedLanguage", func() {
		lib, err := patterns.Parse([]byte("languages:\n  fr:\n    rules:\n      - field: invoice_number\n        pattern: 'Facture\\s+(\\S+)'\n"))
		Expect(err).NotTo(HaveOccurred())

		_, _, err = extraction.New(lib).ExtractAuto(englishInvoice)
		Expect(err).To(MatchError(patterns.ErrUnsupportedLanguage))
	})
})

var _ = Describe("German thousands separators", func() {
	It("should read a lone dot before three digits as a thousands separator", func() {
		text := `Rechnungsnummer 555
Pos. Artikelbeschreibung Menge Preis Bestellwert in EUR
1 Behandlungsliege 1 1.500 1.500
Gesamtwert EUR 1.500
MwSt. 19% EUR 285,00
Gesamtwert inkl. MwSt. EUR 1.785
`
		record, _, err := extraction.New(nil).Extract(text, patterns.German)
		Expect(err).NotTo(HaveOccurred())
		expectAmount(record.NetTotal, "1500")
		expectAmount(record.TaxAmount, "285.00")
		expectAmount(record.GrossTotal, "1785")
		Expect(record.LineItems).To(HaveLen(1))
		expectAmount(record.LineItems[0].UnitPrice, "1500")
		expectAmount(record.LineItems[0].LineTotal, "1500")
	})

	It("should keep reading a lone dot as a decimal point in English", func() {
		record, _, err := extraction.New(nil).Extract("Subtotal 1.500\n", patterns.English)
		Expect(err).NotTo(HaveOccurred())
		expectAmount(record.NetTotal, "1.5")
	})
})

var _ = Describe("DetectLanguage", func() {
	It("should default to English for empty text", func() {
		Expect(extraction.DetectLanguage("  ")).To(Equal(patterns.English))
	})

	It("should recognize German invoice labels", func() {
		Expect(extraction.DetectLanguage(germanInvoice)).To(Equal(patterns.German))
	})
})

var _ = Describe("Unresolved", func() {
	It("should list fields in sorted order", func() {
		u := extraction.Unresolved{"tax_amount": "", "currency": "GBP", "due_date": ""}
		Expect(u.Fields()).To(Equal([]string{"currency", "due_date", "tax_amount"}))
	})
})
