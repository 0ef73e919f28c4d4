package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountState tells apart a missing amount from one that was found but could not be read
type AmountState int

const (
	Absent AmountState = iota
	Unparseable
	Present
)

func (s AmountState) String() string {
	switch s {
	case Present:
		return "present"
	case Unparseable:
		return "unparseable"
	default:
		return "absent"
	}
}

// Amount is an optional monetary value. The zero value is Absent.
type Amount struct {
	state AmountState
	value decimal.Decimal
	raw   string
}

// NewAmount returns a present amount
func NewAmount(d decimal.Decimal) Amount {
	return Amount{state: Present, value: d, raw: d.String()}
}

// UnparseableAmount records text that was found where an amount was expected
func UnparseableAmount(raw string) Amount {
	return Amount{state: Unparseable, raw: raw}
}

// MustAmount parses s with ParseAmount and panics on failure. Intended for tests and literals.
func MustAmount(s string) Amount {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return NewAmount(d)
}

func (a Amount) State() AmountState { return a.state }
func (a Amount) IsAbsent() bool      { return a.state == Absent }
func (a Amount) IsPresent() bool     { return a.state == Present }
func (a Amount) IsUnparseable() bool { return a.state == Unparseable }

// Raw returns the source text for present and unparseable amounts
func (a Amount) Raw() string { return a.raw }

// Value returns the decimal value and whether the amount is present
func (a Amount) Value() (decimal.Decimal, bool) {
	if a.state != Present {
		return decimal.Zero, false
	}
	return a.value, true
}

func (a Amount) String() string {
	switch a.state {
	case Present:
		return a.value.String()
	case Unparseable:
		return fmt.Sprintf("unparseable(%q)", a.raw)
	default:
		return "absent"
	}
}

// Equal compares state and value; raw text is ignored for present amounts
func (a Amount) Equal(b Amount) bool {
	if a.state != b.state {
		return false
	}
	switch a.state {
	case Present:
		return a.value.Equal(b.value)
	case Unparseable:
		return a.raw == b.raw
	}
	return true
}

// MarshalJSON encodes present amounts as numbers, absent as null and unparseable as the raw string
func (a Amount) MarshalJSON() ([]byte, error) {
	switch a.state {
	case Present:
		return []byte(a.value.String()), nil
	case Unparseable:
		return json.Marshal(a.raw)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts numbers, numeric strings in either decimal convention and null.
// Any other string is kept as an unparseable amount so validation can report it.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*a = Amount{}
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decoding amount: %w", err)
		}
		if strings.TrimSpace(raw) == "" {
			*a = Amount{}
			return nil
		}
		d, err := ParseAmount(raw)
		if err != nil {
			*a = UnparseableAmount(raw)
			return nil
		}
		*a = NewAmount(d)
		return nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		*a = UnparseableAmount(s)
		return nil
	}
	*a = NewAmount(d)
	return nil
}

// ErrNotNumeric is returned by ParseAmount when the text does not hold a number
var ErrNotNumeric = errors.New("not a numeric amount")

var (
	currencyNoise = regexp.MustCompile(`(?i)\b(EUR|USD|INR|GBP|CHF)\b|[€$₹£\s\x{00a0}']`)
	plainNumber   = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
)

// ParseAmount reads a monetary amount written with either comma or dot decimals,
// e.g. "1.234,56", "1,234.56", "€ 12,50" or "-19.00 EUR".
func ParseAmount(s string) (decimal.Decimal, error) {
	return parseAmount(s, false)
}

// ParseDecimalCommaAmount reads s like ParseAmount for documents that write the
// comma as decimal mark, so a lone dot before three digits groups thousands
// ("1.500" is 1500).
func ParseDecimalCommaAmount(s string) (decimal.Decimal, error) {
	return parseAmount(s, true)
}

func parseAmount(s string, decimalComma bool) (decimal.Decimal, error) {
	cleaned := currencyNoise.ReplaceAllString(s, "")
	cleaned = strings.TrimRight(cleaned, ".,")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}

	negative := false
	switch {
	case strings.HasPrefix(cleaned, "-"):
		negative = true
		cleaned = cleaned[1:]
	case strings.HasSuffix(cleaned, "-"):
		negative = true
		cleaned = strings.TrimSuffix(cleaned, "-")
	case strings.HasPrefix(cleaned, "+"):
		cleaned = cleaned[1:]
	}

	cleaned = normalizeSeparators(cleaned, decimalComma)
	if !plainNumber.MatchString(cleaned) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// normalizeSeparators rewrites a number to use "." as the only decimal separator.
// With both separators present the rightmost one is the decimal mark. A lone comma
// followed by exactly three digits is read as a thousands separator, and so is a
// lone dot when decimalComma is set.
func normalizeSeparators(s string, decimalComma bool) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-lastComma-1 == 3 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1, decimalComma && lastDot >= 0 && len(s)-lastDot-1 == 3:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}
