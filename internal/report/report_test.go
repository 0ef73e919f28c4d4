package report_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/zombor/invoice-qc/internal/invoice"
	"github.com/zombor/invoice-qc/internal/report"
)

var _ = Describe("Report", func() {
	var rep report.Report

	BeforeEach(func() {
		rep = sampleReport()
	})

	It("should not be valid when a record fails", func() {
		Expect(rep.Valid()).To(BeFalse())
	})

	Describe("WriteJSON", func() {
		var decoded map[string]any

		JustBeforeEach(func() {
			var buf bytes.Buffer
			Expect(report.WriteJSON(&buf, rep)).To(Succeed())
			Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
		})

		It("should write the summary counts", func() {
			summary := decoded["summary"].(map[string]any)
			Expect(summary["total_invoices"]).To(BeEquivalentTo(2))
			Expect(summary["valid_invoices"]).To(BeEquivalentTo(1))
			Expect(summary["invalid_invoices"]).To(BeEquivalentTo(1))
		})

		It("should write per-record results", func() {
			results := decoded["results"].([]any)
			Expect(results).To(HaveLen(2))
			first := results[0].(map[string]any)
			Expect(first["invoice_id"]).To(Equal("INV-1"))
			Expect(first["is_valid"]).To(BeTrue())
			second := results[1].(map[string]any)
			Expect(second["invoice_id"]).To(Equal("bad.pdf"))
		})

		It("should write amounts as numbers", func() {
			invoices := decoded["invoices"].([]any)
			Expect(invoices[0].(map[string]any)["gross_total"]).To(BeEquivalentTo(119))
		})
	})

	Describe("WriteRecords", func() {
		It("should round-trip through the batch decoder", func() {
			var buf bytes.Buffer
			Expect(report.WriteRecords(&buf, rep.Invoices)).To(Succeed())

			records, err := invoice.DecodeBatch(buf.Bytes())
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			Expect(records[1].GrossTotal.Equal(invoice.MustAmount("-119.00"))).To(BeTrue())
		})

		It("should write an empty array for no records", func() {
			var buf bytes.Buffer
			Expect(report.WriteRecords(&buf, nil)).To(Succeed())
			Expect(buf.String()).To(Equal("[]\n"))
		})
	})

	Describe("WriteXLSX", func() {
		var f *excelize.File

		JustBeforeEach(func() {
			var buf bytes.Buffer
			Expect(report.WriteXLSX(&buf, rep)).To(Succeed())
			var err error
			f, err = excelize.OpenReader(&buf)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(f.Close)
		})

		It("should hold the three sheets", func() {
			Expect(f.GetSheetList()).To(Equal([]string{"Summary", "Invoices", "Findings"}))
		})

		It("should write the totals on the summary sheet", func() {
			rows, err := f.GetRows("Summary")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows[0]).To(Equal([]string{"Report ID", "rep-1"}))
			Expect(rows[2]).To(Equal([]string{"Total invoices", "2"}))
			Expect(rows[4]).To(Equal([]string{"Invalid", "1"}))
		})

		It("should write one row per invoice", func() {
			rows, err := f.GetRows("Invoices")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(3))
			Expect(rows[1][1]).To(Equal("INV-1"))
			Expect(rows[1][2]).To(Equal("yes"))
			Expect(rows[2][2]).To(Equal("no"))
		})

		It("should write every finding", func() {
			rows, err := f.GetRows("Findings")
			Expect(err).NotTo(HaveOccurred())
			var codes []string
			for _, row := range rows[1:] {
				codes = append(codes, row[5])
			}
			Expect(codes).To(ContainElements("missing_field", "negative_amount", "totals_mismatch"))
		})
	})

	Describe("RenderSummary", func() {
		It("should show the counts and error labels", func() {
			out := report.RenderSummary("Validation Summary", rep)
			Expect(out).To(ContainSubstring("Validation Summary"))
			Expect(out).To(ContainSubstring("Total invoices"))
			Expect(out).To(ContainSubstring("missing_field: invoice_number: 1"))
			Expect(out).To(ContainSubstring("negative_amount: gross_total: 1"))
		})
	})
})
