package invoice

import (
	"encoding/json"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

// dateLayouts are the recognized invoice date formats, tried in order
var dateLayouts = []string{
	isoLayout,
	"02.01.2006",
	"2.1.2006",
	"02.01.06",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan. 2, 2006",
}

// Date keeps the text found in the document next to the parsed value.
// Parsed is zero when the raw text did not match a recognized format.
type Date struct {
	Raw    string
	Parsed time.Time
}

// ParseDate trims raw and attempts every recognized layout
func ParseDate(raw string) Date {
	raw = strings.TrimSpace(raw)
	d := Date{Raw: raw}
	if raw == "" {
		return d
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Parsed = t
			return d
		}
	}
	return d
}

// IsAbsent reports whether no date text was found
func (d Date) IsAbsent() bool { return d.Raw == "" }

// Valid reports whether the raw text matched a recognized date format
func (d Date) Valid() bool { return !d.Parsed.IsZero() }

// ISO returns the date as YYYY-MM-DD, or the raw text when it could not be parsed
func (d Date) ISO() string {
	if d.Valid() {
		return d.Parsed.Format(isoLayout)
	}
	return d.Raw
}

func (d Date) String() string { return d.Raw }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsAbsent() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Raw)
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*d = Date{}
		return nil
	}
	*d = ParseDate(*raw)
	return nil
}
