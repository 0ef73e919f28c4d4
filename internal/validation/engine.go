// Package validation checks invoice records against completeness, format,
// business and anomaly rules and summarizes a batch.
package validation

import (
	"log/slog"
	"runtime"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/invoice-qc/internal/invoice"
)

// Config tunes the rule engine
type Config struct {
	// Tolerance is the absolute difference allowed between amounts that should agree
	Tolerance decimal.Decimal
	// Currencies is the accepted set of currency codes
	Currencies []string
	// Workers bounds how many records are checked at once; zero means GOMAXPROCS
	Workers int
}

// DefaultConfig returns a tolerance of 0.01 and the recognized currencies
func DefaultConfig() Config {
	return Config{
		Tolerance:  decimal.New(1, -2),
		Currencies: invoice.RecognizedCurrencies,
	}
}

// Engine validates batches of records. It holds only configuration and is safe
// for concurrent use.
type Engine struct {
	tolerance  decimal.Decimal
	currencies map[string]bool
	workers    int
}

// NewEngine creates an Engine from cfg
func NewEngine(cfg Config) *Engine {
	if len(cfg.Currencies) == 0 {
		cfg.Currencies = invoice.RecognizedCurrencies
	}
	currencies := make(map[string]bool, len(cfg.Currencies))
	for _, c := range cfg.Currencies {
		currencies[strings.ToUpper(strings.TrimSpace(c))] = true
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{
		tolerance:  cfg.Tolerance.Abs(),
		currencies: currencies,
		workers:    workers,
	}
}

// Validate checks every record and summarizes the batch. Results keep input order.
// Records are checked independently and in parallel; duplicate detection runs
// once all of them are done.
func (e *Engine) Validate(records []invoice.Record) ([]Result, Summary) {
	results := make([]Result, len(records))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, rec := range records {
		g.Go(func() error {
			results[i] = e.check(i, rec)
			return nil
		})
	}
	_ = g.Wait()

	duplicateKeys := markDuplicates(results)
	for i := range results {
		results[i].IsValid = len(results[i].Errors()) == 0
	}

	summary := summarize(results, duplicateKeys)
	slog.Debug("Validated batch",
		"total", summary.TotalInvoices,
		"valid", summary.ValidInvoices,
		"invalid", summary.InvalidInvoices,
		"duplicates", len(duplicateKeys))
	return results, summary
}

// check runs the per-record rule groups in order without short-circuiting
func (e *Engine) check(index int, rec invoice.Record) Result {
	findings := make([]Finding, 0)
	findings = append(findings, completeness(rec)...)
	findings = append(findings, e.format(rec)...)
	findings = append(findings, e.business(rec)...)
	findings = append(findings, negativeAmounts(rec)...)

	return Result{
		InvoiceID: rec.ID(index),
		Index:     index,
		Findings:  findings,
		record:    rec,
	}
}

func summarize(results []Result, duplicateKeys []string) Summary {
	s := Summary{
		TotalInvoices: len(results),
		Groups:        make(map[Group]GroupCounts, len(Groups)),
		ErrorCounts:   make(map[string]int),
		DuplicateKeys: duplicateKeys,
	}
	for _, g := range Groups {
		s.Groups[g] = GroupCounts{}
	}

	for _, r := range results {
		if r.IsValid {
			s.ValidInvoices++
		}
		for _, f := range r.Findings {
			counts := s.Groups[f.RuleGroup]
			if f.Severity == SeverityError {
				counts.Errors++
				s.ErrorCounts[f.Label()]++
			} else {
				counts.Warnings++
			}
			s.Groups[f.RuleGroup] = counts
		}
	}
	s.InvalidInvoices = s.TotalInvoices - s.ValidInvoices
	sort.Strings(s.DuplicateKeys)
	return s
}
