package invoice

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RecognizedCurrencies are the currency codes the extractor accepts and the validator allows by default
var RecognizedCurrencies = []string{"EUR", "USD", "INR"}

// IsRecognizedCurrency compares code case-insensitively against RecognizedCurrencies
func IsRecognizedCurrency(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range RecognizedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// LineItem is one row of the invoice table
type LineItem struct {
	Description string `json:"description"`
	Quantity    Amount `json:"quantity"`
	UnitPrice   Amount `json:"unit_price"`
	LineTotal   Amount `json:"line_total"`
}

// DefaultQuantity is used for line items that state no quantity
var DefaultQuantity = NewAmount(decimal.NewFromInt(1))

// Record is one extracted invoice. Empty strings mean the field is absent.
// A Record is built once by extraction and only read afterwards.
type Record struct {
	InvoiceNumber       string `json:"invoice_number"`
	PurchaseOrderNumber string `json:"purchase_order_number"`
	CustomerNumber      string `json:"customer_number"`
	EndCustomerNumber   string `json:"end_customer_number"`

	InvoiceDate  Date `json:"invoice_date"`
	DueDate      Date `json:"due_date"`
	DeliveryDate Date `json:"delivery_date"`

	SellerName    string `json:"seller_name"`
	SellerAddress string `json:"seller_address"`
	BuyerName     string `json:"buyer_name"`
	BuyerAddress  string `json:"buyer_address"`

	PaymentTerms  string `json:"payment_terms"`
	DeliveryTerms string `json:"delivery_terms"`

	Currency   string `json:"currency"`
	NetTotal   Amount `json:"net_total"`
	TaxRate    Amount `json:"tax_rate"`
	TaxAmount  Amount `json:"tax_amount"`
	GrossTotal Amount `json:"gross_total"`

	LineItems []LineItem `json:"line_items"`

	Language   string `json:"language,omitempty"`
	SourceFile string `json:"source_file,omitempty"`
}

// Field names as they appear in the interchange format
const (
	FieldInvoiceNumber       = "invoice_number"
	FieldPurchaseOrderNumber = "purchase_order_number"
	FieldCustomerNumber      = "customer_number"
	FieldEndCustomerNumber   = "end_customer_number"
	FieldInvoiceDate         = "invoice_date"
	FieldDueDate             = "due_date"
	FieldDeliveryDate        = "delivery_date"
	FieldSellerName          = "seller_name"
	FieldSellerAddress       = "seller_address"
	FieldBuyerName           = "buyer_name"
	FieldBuyerAddress        = "buyer_address"
	FieldPaymentTerms        = "payment_terms"
	FieldDeliveryTerms       = "delivery_terms"
	FieldCurrency            = "currency"
	FieldNetTotal            = "net_total"
	FieldTaxRate             = "tax_rate"
	FieldTaxAmount           = "tax_amount"
	FieldGrossTotal          = "gross_total"
	FieldLineItems           = "line_items"
)

// Amounts returns the monetary totals keyed by field name, in a fixed order
func (r Record) Amounts() []NamedAmount {
	return []NamedAmount{
		{FieldNetTotal, r.NetTotal},
		{FieldTaxRate, r.TaxRate},
		{FieldTaxAmount, r.TaxAmount},
		{FieldGrossTotal, r.GrossTotal},
	}
}

// NamedAmount pairs an amount with its field name
type NamedAmount struct {
	Field  string
	Amount Amount
}

// ID identifies the record in reports: the invoice number, else the source file
func (r Record) ID(index int) string {
	if id := strings.TrimSpace(r.InvoiceNumber); id != "" {
		return id
	}
	if r.SourceFile != "" {
		return r.SourceFile
	}
	return fmt.Sprintf("record-%d", index)
}
