package extraction

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zombor/invoice-qc/internal/invoice"
	"github.com/zombor/invoice-qc/internal/patterns"
)

// Pattern fields that capture a region rather than a single value
const (
	fieldSellerBlock = "seller_block"
	fieldBuyerBlock  = "buyer_block"
)

// Unresolved maps each field the extractor could not populate to the raw text it
// found for it. The text is empty when no pattern matched at all.
type Unresolved map[string]string

// Fields returns the unresolved field names in sorted order
func (u Unresolved) Fields() []string {
	fields := make([]string, 0, len(u))
	for f := range u {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Has reports whether field is unresolved
func (u Unresolved) Has(field string) bool {
	_, ok := u[field]
	return ok
}

// Extractor turns document text into invoice records using a pattern library.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	library *patterns.Library
}

// New creates an Extractor over library. A nil library means the embedded default.
func New(library *patterns.Library) *Extractor {
	if library == nil {
		library = patterns.Default()
	}
	return &Extractor{library: library}
}

// Library returns the pattern library the extractor applies
func (e *Extractor) Library() *patterns.Library {
	return e.library
}

// Extract builds a record from text using the pattern set for lang. Fields that
// cannot be found or read are left absent and listed in the returned Unresolved;
// the only error is patterns.ErrUnsupportedLanguage.
func (e *Extractor) Extract(text string, lang patterns.Language) (invoice.Record, Unresolved, error) {
	rules, err := e.library.Lookup(lang)
	if err != nil {
		return invoice.Record{}, nil, err
	}

	found := make(map[string]string)
	for _, rule := range rules {
		if _, done := found[rule.Field]; done {
			continue
		}
		if v, ok := rule.Find(text); ok {
			found[rule.Field] = v
		}
	}

	b := recordBuilder{found: found, unresolved: make(Unresolved), decimalComma: lang == patterns.German}
	rec := invoice.Record{
		InvoiceNumber:       b.text(invoice.FieldInvoiceNumber),
		PurchaseOrderNumber: b.text(invoice.FieldPurchaseOrderNumber),
		CustomerNumber:      b.text(invoice.FieldCustomerNumber),
		EndCustomerNumber:   b.text(invoice.FieldEndCustomerNumber),
		InvoiceDate:         b.date(invoice.FieldInvoiceDate),
		DueDate:             b.date(invoice.FieldDueDate),
		DeliveryDate:        b.date(invoice.FieldDeliveryDate),
		PaymentTerms:        b.text(invoice.FieldPaymentTerms),
		DeliveryTerms:       b.text(invoice.FieldDeliveryTerms),
		Currency:            b.currency(),
		NetTotal:            b.amount(invoice.FieldNetTotal),
		TaxRate:             b.amount(invoice.FieldTaxRate),
		TaxAmount:           b.amount(invoice.FieldTaxAmount),
		GrossTotal:          b.amount(invoice.FieldGrossTotal),
		Language:            string(lang),
	}
	rec.SellerName, rec.SellerAddress = b.party(fieldSellerBlock, invoice.FieldSellerName, invoice.FieldSellerAddress)
	rec.BuyerName, rec.BuyerAddress = b.party(fieldBuyerBlock, invoice.FieldBuyerName, invoice.FieldBuyerAddress)

	if region, ok := found[invoice.FieldLineItems]; ok {
		rec.LineItems = extractLineItems(region, b.decimalComma)
	}
	if len(rec.LineItems) == 0 {
		b.unresolved[invoice.FieldLineItems] = found[invoice.FieldLineItems]
	}

	return rec, b.unresolved, nil
}

// ExtractAuto detects the document language and extracts with its pattern set,
// falling back to English when the library has no rules for the detected one.
// It fails with patterns.ErrUnsupportedLanguage only when English is missing too.
func (e *Extractor) ExtractAuto(text string) (invoice.Record, Unresolved, error) {
	lang := DetectLanguage(text)
	if _, err := e.library.Lookup(lang); err != nil {
		lang = patterns.English
	}
	return e.Extract(text, lang)
}

// recordBuilder coerces matched text into typed fields and notes what it could not
type recordBuilder struct {
	found      map[string]string
	unresolved Unresolved
	// decimalComma reads "1.500" as fifteen hundred
	decimalComma bool
}

func (b recordBuilder) text(field string) string {
	v := collapseSpaces(b.found[field])
	if v == "" {
		b.unresolved[field] = ""
	}
	return v
}

func (b recordBuilder) date(field string) invoice.Date {
	d := invoice.ParseDate(b.found[field])
	if !d.Valid() {
		b.unresolved[field] = d.Raw
	}
	return d
}

func (b recordBuilder) amount(field string) invoice.Amount {
	raw, ok := b.found[field]
	if !ok {
		b.unresolved[field] = ""
		return invoice.Amount{}
	}
	d, err := parseAmount(raw, b.decimalComma)
	if err != nil {
		b.unresolved[field] = raw
		return invoice.UnparseableAmount(raw)
	}
	return invoice.NewAmount(d)
}

// currency keeps only recognized codes; anything else is left absent
func (b recordBuilder) currency() string {
	raw := strings.TrimSpace(b.found[invoice.FieldCurrency])
	if !invoice.IsRecognizedCurrency(raw) {
		b.unresolved[invoice.FieldCurrency] = raw
		return ""
	}
	return strings.ToUpper(raw)
}

// party splits a captured block into a name (first line) and an address (the rest)
func (b recordBuilder) party(blockField, nameField, addressField string) (string, string) {
	var lines []string
	for _, l := range strings.Split(b.found[blockField], "\n") {
		if l = collapseSpaces(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		b.unresolved[nameField] = ""
		b.unresolved[addressField] = ""
		return "", ""
	}
	address := strings.Join(lines[1:], ", ")
	if address == "" {
		b.unresolved[addressField] = ""
	}
	return lines[0], address
}

func parseAmount(s string, decimalComma bool) (decimal.Decimal, error) {
	if decimalComma {
		return invoice.ParseDecimalCommaAmount(s)
	}
	return invoice.ParseAmount(s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
