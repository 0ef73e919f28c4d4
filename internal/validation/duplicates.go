package validation

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/zombor/invoice-qc/internal/invoice"
)

// duplicateKey normalizes (invoice_number, invoice_date, seller_name). Records
// without an invoice number have no key.
func duplicateKey(fold cases.Caser, rec invoice.Record) (string, bool) {
	number := fold.String(strings.TrimSpace(rec.InvoiceNumber))
	if number == "" {
		return "", false
	}
	date := rec.InvoiceDate.ISO()
	if !rec.InvoiceDate.Valid() {
		date = fold.String(strings.TrimSpace(date))
	}
	seller := fold.String(strings.Join(strings.Fields(rec.SellerName), " "))
	return number + "|" + date + "|" + seller, true
}

// markDuplicates adds a warning to every member of a group of records sharing a
// key and returns the keys of those groups
func markDuplicates(results []Result) []string {
	fold := cases.Fold()
	groups := make(map[string][]int)
	for i, r := range results {
		if key, ok := duplicateKey(fold, r.record); ok {
			groups[key] = append(groups[key], i)
		}
	}

	keys := make([]string, 0)
	for key, members := range groups {
		if len(members) < 2 {
			continue
		}
		keys = append(keys, key)
		for _, i := range members {
			others := make([]string, 0, len(members)-1)
			for _, j := range members {
				if j != i {
					others = append(others, strconv.Itoa(results[j].Index))
				}
			}
			results[i].Findings = append(results[i].Findings, warnf(Anomaly, FieldRecord, CodeDuplicateInvoice,
				"duplicate of record(s) at index %s", strings.Join(others, ", ")))
		}
	}
	sort.Strings(keys)
	return keys
}
