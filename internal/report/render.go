package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zombor/invoice-qc/internal/validation"
)

var (
	accent  = lipgloss.Color("#D97706")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	warning = lipgloss.Color("#F59E0B")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle = lipgloss.NewStyle().Foreground(dim).Width(18)
	passStyle  = lipgloss.NewStyle().Foreground(success).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(warning)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)
)

// RenderSummary formats the batch summary for a terminal. Colors degrade to
// plain text when the output is not a TTY.
func RenderSummary(title string, r Report) string {
	s := r.Summary
	var b strings.Builder

	line := func(label string, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	line("Total invoices", fmt.Sprint(s.TotalInvoices))
	line("Valid", passStyle.Render(fmt.Sprint(s.ValidInvoices)))
	invalid := fmt.Sprint(s.InvalidInvoices)
	if s.InvalidInvoices > 0 {
		invalid = failStyle.Render(invalid)
	}
	line("Invalid", invalid)

	b.WriteString("\n")
	for _, g := range validation.Groups {
		c := s.Groups[g]
		if c.Errors == 0 && c.Warnings == 0 {
			continue
		}
		line(string(g), fmt.Sprintf("%s errors, %s warnings",
			failStyle.Render(fmt.Sprint(c.Errors)), warnStyle.Render(fmt.Sprint(c.Warnings))))
	}

	if len(s.ErrorCounts) > 0 {
		b.WriteString("\nError counts:\n")
		labels := make([]string, 0, len(s.ErrorCounts))
		for label := range s.ErrorCounts {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Fprintf(&b, "  %s: %d\n", label, s.ErrorCounts[label])
		}
	}

	if len(s.DuplicateKeys) > 0 {
		b.WriteString("\nDuplicates:\n")
		for _, key := range s.DuplicateKeys {
			fmt.Fprintf(&b, "  %s\n", warnStyle.Render(key))
		}
	}

	return boxStyle.Render(titleStyle.Render(title) + "\n\n" + strings.TrimRight(b.String(), "\n"))
}
