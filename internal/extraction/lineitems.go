package extraction

import (
	"regexp"
	"strings"

	"github.com/zombor/invoice-qc/internal/invoice"
)

var (
	numericToken  = regexp.MustCompile(`^[-+]?[€$₹£]?\d[\d.,']*-?$`)
	moneyToken    = regexp.MustCompile(`^[-+]?[€$₹£]?\d[\d.,']*[.,]\d{2}-?$`)
	positionToken = regexp.MustCompile(`^\d{1,4}\.?$`)
)

// unitTokens may sit between a quantity and the unit price, as in "2 pcs 10.00"
var unitTokens = map[string]bool{
	"pc": true, "pcs": true, "piece": true, "pieces": true, "ea": true, "each": true,
	"unit": true, "units": true, "x": true, "h": true, "hrs": true, "hours": true,
	"kg": true, "m": true, "l": true,
	"stk": true, "stück": true, "st": true, "std": true, "pkg": true, "pack": true,
}

func isUnit(token string) bool {
	return unitTokens[strings.ToLower(strings.TrimSuffix(token, "."))]
}

var currencyTokens = map[string]bool{
	"EUR": true, "USD": true, "INR": true, "GBP": true, "CHF": true,
	"€": true, "$": true, "₹": true, "£": true,
}

// ExtractLineItems parses a table region into line items. A row ends at a line
// whose tail carries amounts; lines without them are joined to the next row's
// description. Each row is read from the right: line total, unit price, quantity.
// A unit word such as "pcs" or "Stk." may follow the quantity. Rows with fewer
// than two trailing numeric tokens are dropped.
func ExtractLineItems(region string) []invoice.LineItem {
	return extractLineItems(region, false)
}

// extractLineItems is ExtractLineItems with the document's decimal convention
func extractLineItems(region string, decimalComma bool) []invoice.LineItem {
	var (
		items   []invoice.LineItem
		pending []string
	)
	for _, line := range strings.Split(region, "\n") {
		tokens := rowTokens(line)
		if len(tokens) == 0 {
			continue
		}
		pending = append(pending, tokens...)
		if !endsRow(tokens) {
			continue
		}
		if item, ok := parseRow(pending, decimalComma); ok {
			items = append(items, item)
		}
		pending = nil
	}
	return items
}

// rowTokens splits a line into whitespace tokens without currency markers
func rowTokens(line string) []string {
	fields := strings.Fields(line)
	tokens := fields[:0]
	for _, f := range fields {
		if currencyTokens[strings.ToUpper(f)] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func endsRow(tokens []string) bool {
	return trailingNumerics(tokens) >= 2 || moneyToken.MatchString(tokens[len(tokens)-1])
}

func isNumeric(token string) bool {
	if !numericToken.MatchString(token) {
		return false
	}
	_, err := invoice.ParseAmount(token)
	return err == nil
}

func trailingNumerics(tokens []string) int {
	n := 0
	for i := len(tokens) - 1; i >= 0 && isNumeric(tokens[i]); i-- {
		n++
	}
	return n
}

func parseRow(tokens []string, decimalComma bool) (invoice.LineItem, bool) {
	run := trailingNumerics(tokens)
	if run < 2 {
		return invoice.LineItem{}, false
	}
	take := min(run, 3)
	nums := tokens[len(tokens)-take:]
	desc := tokens[:len(tokens)-take]

	item := invoice.LineItem{
		Quantity:  invoice.DefaultQuantity,
		LineTotal: tokenAmount(nums[len(nums)-1], decimalComma),
		UnitPrice: tokenAmount(nums[len(nums)-2], decimalComma),
	}
	switch {
	case take == 3:
		item.Quantity = tokenAmount(nums[0], decimalComma)
	case len(desc) >= 2 && isUnit(desc[len(desc)-1]) && isNumeric(desc[len(desc)-2]):
		// "2 Stk." before the price: the unit word separates quantity and price
		item.Quantity = tokenAmount(desc[len(desc)-2], decimalComma)
		desc = desc[:len(desc)-2]
	}

	numerics := 0
	for _, t := range tokens {
		if isNumeric(t) {
			numerics++
		}
	}
	if numerics > 3 && len(desc) > 0 && positionToken.MatchString(desc[0]) {
		desc = desc[1:]
	}

	item.Description = strings.Join(desc, " ")
	return item, true
}

func tokenAmount(token string, decimalComma bool) invoice.Amount {
	d, err := parseAmount(token, decimalComma)
	if err != nil {
		return invoice.UnparseableAmount(token)
	}
	return invoice.NewAmount(d)
}
