// Package pdftext turns PDF documents into plain text for extraction. Only the
// text layer is read; scanned images without one yield ErrNoText.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

var (
	// ErrNoText is returned for documents without a text layer
	ErrNoText = errors.New("document has no text layer")
	// ErrUnknownEngine is returned by New for an unsupported engine name
	ErrUnknownEngine = errors.New("unknown pdf engine")
)

// Engine names accepted by New
const (
	EngineFitz = "fitz"
	EnginePure = "pure"
)

// Converter extracts the text of a PDF document, pages separated by newlines
type Converter interface {
	Convert(data []byte) (string, error)
}

// New returns the converter for engine. An empty name selects fitz.
func New(engine string) (Converter, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineFitz:
		return Fitz{}, nil
	case EnginePure:
		return Pure{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// Fitz reads text with MuPDF
type Fitz struct{}

func (Fitz) Convert(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", i+1, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return nonEmpty(b.String())
}

// Pure reads text without cgo. Words are regrouped by row, so column layouts
// come out one table row per line.
type Pure struct{}

func (Pure) Convert(data []byte) (text string, err error) {
	// the reader panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", i, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteString("\n")
		}
	}
	return nonEmpty(b.String())
}

func nonEmpty(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}
