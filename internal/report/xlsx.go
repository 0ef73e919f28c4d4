package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/zombor/invoice-qc/internal/invoice"
	"github.com/zombor/invoice-qc/internal/validation"
)

const (
	sheetSummary  = "Summary"
	sheetInvoices = "Invoices"
	sheetFindings = "Findings"
)

// sheetWriter appends rows to one sheet
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (s *sheetWriter) write(values ...any) {
	if s.err != nil {
		return
	}
	s.row++
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			s.err = err
			return
		}
		if err := s.f.SetCellValue(s.sheet, cell, v); err != nil {
			s.err = fmt.Errorf("%s!%s: %w", s.sheet, cell, err)
			return
		}
	}
}

// WriteXLSX writes the report as a workbook with Summary, Invoices and Findings sheets
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	for _, name := range []string{sheetInvoices, sheetFindings} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("adding sheet %s: %w", name, err)
		}
	}

	for _, write := range []func(*excelize.File, Report) error{writeSummary, writeInvoices, writeFindings} {
		if err := write(f, r); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(sheetSummary, "A", "A", 36)
	_ = f.SetColWidth(sheetInvoices, "B", "B", 20)
	_ = f.SetColWidth(sheetInvoices, "G", "H", 32)
	_ = f.SetColWidth(sheetFindings, "B", "B", 20)
	_ = f.SetColWidth(sheetFindings, "E", "F", 28)
	_ = f.SetColWidth(sheetFindings, "G", "G", 72)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, r Report) error {
	s := &sheetWriter{f: f, sheet: sheetSummary}
	s.write("Report ID", r.ID)
	s.write("Created", r.CreatedAt.UTC().Format(time.RFC3339))
	s.write("Total invoices", r.Summary.TotalInvoices)
	s.write("Valid", r.Summary.ValidInvoices)
	s.write("Invalid", r.Summary.InvalidInvoices)

	s.row++
	s.write("Rule group", "Errors", "Warnings")
	for _, g := range validation.Groups {
		c := r.Summary.Groups[g]
		s.write(string(g), c.Errors, c.Warnings)
	}

	s.row++
	s.write("Error", "Count")
	labels := make([]string, 0, len(r.Summary.ErrorCounts))
	for label := range r.Summary.ErrorCounts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		s.write(label, r.Summary.ErrorCounts[label])
	}

	if len(r.Summary.DuplicateKeys) > 0 {
		s.row++
		s.write("Duplicate keys")
		for _, key := range r.Summary.DuplicateKeys {
			s.write(key)
		}
	}
	return s.err
}

func writeInvoices(f *excelize.File, r Report) error {
	s := &sheetWriter{f: f, sheet: sheetInvoices}
	s.write("Index", "Invoice ID", "Valid", "Invoice Number", "Invoice Date", "Due Date",
		"Seller", "Buyer", "Currency", "Net Total", "Tax Rate", "Tax Amount", "Gross Total",
		"Line Items", "Errors", "Warnings", "Source File")

	for i, rec := range r.Invoices {
		id, valid, errs, warns := rec.ID(i), "", 0, 0
		if i < len(r.Results) {
			res := r.Results[i]
			id = res.InvoiceID
			valid = yesNo(res.IsValid)
			errs, warns = len(res.Errors()), len(res.Warnings())
		}
		s.write(i, id, valid, rec.InvoiceNumber, rec.InvoiceDate.ISO(), rec.DueDate.ISO(),
			rec.SellerName, rec.BuyerName, rec.Currency,
			cellAmount(rec.NetTotal), cellAmount(rec.TaxRate), cellAmount(rec.TaxAmount), cellAmount(rec.GrossTotal),
			len(rec.LineItems), errs, warns, rec.SourceFile)
	}
	return s.err
}

func writeFindings(f *excelize.File, r Report) error {
	s := &sheetWriter{f: f, sheet: sheetFindings}
	s.write("Index", "Invoice ID", "Rule Group", "Severity", "Field", "Code", "Message")
	for _, res := range r.Results {
		for _, fd := range res.Findings {
			s.write(res.Index, res.InvoiceID, string(fd.RuleGroup), string(fd.Severity), fd.Field, fd.Code, fd.Message)
		}
	}
	return s.err
}

// cellAmount renders present amounts as numbers and unparseable ones as their raw text
func cellAmount(a invoice.Amount) any {
	if v, ok := a.Value(); ok {
		return v.InexactFloat64()
	}
	return a.Raw()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
