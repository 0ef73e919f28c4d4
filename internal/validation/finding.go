package validation

import (
	"github.com/zombor/invoice-qc/internal/invoice"
)

// Group names a family of rules
type Group string

const (
	Completeness Group = "completeness"
	Format       Group = "format"
	Business     Group = "business"
	Anomaly      Group = "anomaly"
)

// Groups lists the rule groups in the order they run
var Groups = []Group{Completeness, Format, Business, Anomaly}

// Severity of a finding. Only errors make a record invalid.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding codes
const (
	CodeMissingField        = "missing_field"
	CodeMissingCurrency     = "missing_currency"
	CodeUnsupportedCurrency = "unsupported_currency"
	CodeNotNumeric          = "not_numeric"
	CodeInvalidDate         = "invalid_date"
	CodeLineItemsMismatch   = "net_total_mismatch_line_items"
	CodeTotalsMismatch      = "totals_mismatch"
	CodeLineTotalMismatch   = "line_total_mismatch"
	CodeTaxRateMismatch     = "tax_rate_mismatch"
	CodeDueBeforeInvoice    = "due_before_invoice"
	CodeNegativeAmount      = "negative_amount"
	CodeDuplicateInvoice    = "duplicate_invoice"
)

// FieldRecord is the field name used by findings about the record as a whole
const FieldRecord = "record"

// Finding is one rule outcome for one record
type Finding struct {
	RuleGroup Group    `json:"rule_group"`
	Field     string   `json:"field"`
	Severity  Severity `json:"severity"`
	Code      string   `json:"code"`
	Message   string   `json:"message"`
}

// Label is the key a finding is counted under in the batch summary
func (f Finding) Label() string {
	return f.Code + ": " + f.Field
}

// Result is the outcome of validating one record
type Result struct {
	InvoiceID string    `json:"invoice_id"`
	Index     int       `json:"index"`
	IsValid   bool      `json:"is_valid"`
	Findings  []Finding `json:"findings"`

	record invoice.Record
}

// Record returns the record the result was computed from
func (r Result) Record() invoice.Record {
	return r.record
}

// Errors returns the findings with error severity
func (r Result) Errors() []Finding {
	return r.filter(SeverityError)
}

// Warnings returns the findings with warning severity
func (r Result) Warnings() []Finding {
	return r.filter(SeverityWarning)
}

func (r Result) filter(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// GroupCounts tallies findings of one rule group
type GroupCounts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// Summary aggregates the results of a batch
type Summary struct {
	TotalInvoices   int                   `json:"total_invoices"`
	ValidInvoices   int                   `json:"valid_invoices"`
	InvalidInvoices int                   `json:"invalid_invoices"`
	Groups          map[Group]GroupCounts `json:"groups"`
	ErrorCounts     map[string]int        `json:"error_counts"`
	DuplicateKeys   []string              `json:"duplicate_keys"`
}
