package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zombor/invoice-qc/internal/invoice"
)

var hundred = decimal.NewFromInt(100)

func errorf(group Group, field, code, format string, args ...any) Finding {
	return Finding{RuleGroup: group, Field: field, Severity: SeverityError, Code: code, Message: fmt.Sprintf(format, args...)}
}

func warnf(group Group, field, code, format string, args ...any) Finding {
	return Finding{RuleGroup: group, Field: field, Severity: SeverityWarning, Code: code, Message: fmt.Sprintf(format, args...)}
}

// completeness requires the mandatory fields. An unparseable amount counts as
// present here; the format group reports it.
func completeness(rec invoice.Record) []Finding {
	var out []Finding
	missing := func(field string) {
		out = append(out, errorf(Completeness, field, CodeMissingField, "%s is missing", field))
	}

	for _, f := range []struct {
		field string
		value string
	}{
		{invoice.FieldInvoiceNumber, rec.InvoiceNumber},
		{invoice.FieldInvoiceDate, rec.InvoiceDate.Raw},
		{invoice.FieldSellerName, rec.SellerName},
		{invoice.FieldBuyerName, rec.BuyerName},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing(f.field)
		}
	}

	for _, a := range []invoice.NamedAmount{
		{Field: invoice.FieldNetTotal, Amount: rec.NetTotal},
		{Field: invoice.FieldTaxAmount, Amount: rec.TaxAmount},
		{Field: invoice.FieldGrossTotal, Amount: rec.GrossTotal},
	} {
		if a.Amount.IsAbsent() {
			missing(a.Field)
		}
	}
	return out
}

func (e *Engine) format(rec invoice.Record) []Finding {
	var out []Finding

	currency := strings.ToUpper(strings.TrimSpace(rec.Currency))
	switch {
	case currency == "":
		out = append(out, errorf(Format, invoice.FieldCurrency, CodeMissingCurrency, "currency is missing"))
	case !e.currencies[currency]:
		out = append(out, errorf(Format, invoice.FieldCurrency, CodeUnsupportedCurrency, "currency %q is not supported", rec.Currency))
	}

	for _, a := range rec.Amounts() {
		if a.Amount.IsUnparseable() {
			out = append(out, errorf(Format, a.Field, CodeNotNumeric, "%s %q is not a number", a.Field, a.Amount.Raw()))
		}
	}

	for _, d := range []struct {
		field string
		date  invoice.Date
	}{
		{invoice.FieldInvoiceDate, rec.InvoiceDate},
		{invoice.FieldDueDate, rec.DueDate},
		{invoice.FieldDeliveryDate, rec.DeliveryDate},
	} {
		if !d.date.IsAbsent() && !d.date.Valid() {
			out = append(out, errorf(Format, d.field, CodeInvalidDate, "%s %q is not a recognized date", d.field, d.date.Raw))
		}
	}

	for i, item := range rec.LineItems {
		for _, a := range lineAmounts(item) {
			if a.Amount.IsUnparseable() {
				field := fmt.Sprintf("%s[%d].%s", invoice.FieldLineItems, i, a.Field)
				out = append(out, errorf(Format, field, CodeNotNumeric, "%s %q is not a number", field, a.Amount.Raw()))
			}
		}
	}
	return out
}

func lineAmounts(item invoice.LineItem) []invoice.NamedAmount {
	return []invoice.NamedAmount{
		{Field: "quantity", Amount: item.Quantity},
		{Field: "unit_price", Amount: item.UnitPrice},
		{Field: "line_total", Amount: item.LineTotal},
	}
}

// business checks arithmetic consistency. A check is skipped when any of its
// operands is not present.
func (e *Engine) business(rec invoice.Record) []Finding {
	var out []Finding
	net, hasNet := rec.NetTotal.Value()
	tax, hasTax := rec.TaxAmount.Value()
	gross, hasGross := rec.GrossTotal.Value()

	if sum, ok := lineTotalSum(rec.LineItems); ok && hasNet && !e.within(sum, net) {
		out = append(out, errorf(Business, invoice.FieldNetTotal, CodeLineItemsMismatch,
			"line items sum to %s but net_total is %s", sum, net))
	}

	if hasNet && hasTax && hasGross && !e.within(net.Add(tax), gross) {
		out = append(out, errorf(Business, invoice.FieldGrossTotal, CodeTotalsMismatch,
			"net_total %s plus tax_amount %s is %s but gross_total is %s", net, tax, net.Add(tax), gross))
	}

	for i, item := range rec.LineItems {
		qty, okQty := item.Quantity.Value()
		price, okPrice := item.UnitPrice.Value()
		total, okTotal := item.LineTotal.Value()
		if okQty && okPrice && okTotal && !e.within(qty.Mul(price), total) {
			field := fmt.Sprintf("%s[%d].line_total", invoice.FieldLineItems, i)
			out = append(out, warnf(Business, field, CodeLineTotalMismatch,
				"quantity %s times unit price %s is %s but line total is %s", qty, price, qty.Mul(price), total))
		}
	}

	if rate, ok := rec.TaxRate.Value(); ok && hasNet && hasTax {
		expected := net.Mul(rate).Div(hundred)
		if !e.within(expected, tax) {
			out = append(out, warnf(Business, invoice.FieldTaxAmount, CodeTaxRateMismatch,
				"%s%% of net_total %s is %s but tax_amount is %s", rate, net, expected.Round(2), tax))
		}
	}

	if rec.InvoiceDate.Valid() && rec.DueDate.Valid() && rec.DueDate.Parsed.Before(rec.InvoiceDate.Parsed) {
		out = append(out, warnf(Business, invoice.FieldDueDate, CodeDueBeforeInvoice,
			"due_date %s is before invoice_date %s", rec.DueDate.ISO(), rec.InvoiceDate.ISO()))
	}
	return out
}

// lineTotalSum adds the line totals; it reports false when there are no items
// or any item lacks a readable total
func lineTotalSum(items []invoice.LineItem) (decimal.Decimal, bool) {
	if len(items) == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for _, item := range items {
		v, ok := item.LineTotal.Value()
		if !ok {
			return decimal.Zero, false
		}
		sum = sum.Add(v)
	}
	return sum, true
}

func (e *Engine) within(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(e.tolerance)
}

func negativeAmounts(rec invoice.Record) []Finding {
	var out []Finding
	for _, a := range []invoice.NamedAmount{
		{Field: invoice.FieldNetTotal, Amount: rec.NetTotal},
		{Field: invoice.FieldTaxAmount, Amount: rec.TaxAmount},
		{Field: invoice.FieldGrossTotal, Amount: rec.GrossTotal},
	} {
		if v, ok := a.Amount.Value(); ok && v.IsNegative() {
			out = append(out, errorf(Anomaly, a.Field, CodeNegativeAmount, "%s %s is negative", a.Field, v))
		}
	}
	return out
}
