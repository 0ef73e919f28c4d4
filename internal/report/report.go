// Package report serializes extraction and validation output as JSON, XLSX and
// a styled terminal summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/zombor/invoice-qc/internal/extraction"
	"github.com/zombor/invoice-qc/internal/invoice"
	"github.com/zombor/invoice-qc/internal/validation"
)

// Report is the outcome of one run over a batch
type Report struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	// Files are the stored source documents, in record order; empty for JSON input
	Files []string `json:"files,omitempty"`

	Summary    validation.Summary      `json:"summary"`
	Results    []validation.Result     `json:"results"`
	Invoices   []invoice.Record        `json:"invoices"`
	Unresolved []extraction.Unresolved `json:"unresolved,omitempty"`
}

// New assembles a report. unresolved may be nil when the records did not come from extraction.
func New(id string, createdAt time.Time, records []invoice.Record, unresolved []extraction.Unresolved, results []validation.Result, summary validation.Summary) Report {
	if records == nil {
		records = []invoice.Record{}
	}
	if results == nil {
		results = []validation.Result{}
	}
	return Report{
		ID:         id,
		CreatedAt:  createdAt,
		Summary:    summary,
		Results:    results,
		Invoices:   records,
		Unresolved: unresolved,
	}
}

// Valid reports whether every record passed
func (r Report) Valid() bool {
	return r.Summary.InvalidInvoices == 0
}

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, r Report) error {
	return writeIndented(w, r)
}

// WriteRecords writes extracted records in the interchange format
func WriteRecords(w io.Writer, records []invoice.Record) error {
	if records == nil {
		records = []invoice.Record{}
	}
	return writeIndented(w, records)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}
