package qc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/zombor/invoice-qc/internal/extraction"
	"github.com/zombor/invoice-qc/internal/invoice"
	"github.com/zombor/invoice-qc/internal/patterns"
	"github.com/zombor/invoice-qc/internal/pdftext"
	"github.com/zombor/invoice-qc/internal/validation"
)

// Document is one source file to extract
type Document struct {
	Name string
	Data []byte
}

// LoadDocuments reads every PDF in dir, sorted by name
func LoadDocuments(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading pdf directory: %w", err)
	}

	var docs []Document
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		docs = append(docs, Document{Name: e.Name(), Data: data})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// Pipeline runs PDF-to-text, extraction and validation over a batch
type Pipeline struct {
	converter pdftext.Converter
	extractor *extraction.Extractor
	engine    *validation.Engine
	language  patterns.Language
	workers   int
}

// NewPipeline wires the stages together. An empty language detects it per document.
func NewPipeline(converter pdftext.Converter, extractor *extraction.Extractor, engine *validation.Engine, language patterns.Language, workers int) *Pipeline {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{
		converter: converter,
		extractor: extractor,
		engine:    engine,
		language:  language,
		workers:   workers,
	}
}

// Extract turns documents into records, in document order. A document that cannot
// be read yields a record with only its source file set, so one bad file does not
// stop the batch. The only error is the context's.
func (p *Pipeline) Extract(ctx context.Context, docs []Document) ([]invoice.Record, []extraction.Unresolved, error) {
	records := make([]invoice.Record, len(docs))
	unresolved := make([]extraction.Unresolved, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records[i], unresolved[i] = p.extractOne(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("extracting documents: %w", err)
	}
	return records, unresolved, nil
}

func (p *Pipeline) extractOne(doc Document) (invoice.Record, extraction.Unresolved) {
	text, err := p.converter.Convert(doc.Data)
	if err != nil {
		slog.Warn("Could not read document", "file", doc.Name, "error", err)
		return invoice.Record{SourceFile: doc.Name}, extraction.Unresolved{}
	}

	var (
		rec        invoice.Record
		unresolved extraction.Unresolved
	)
	if p.language == "" {
		rec, unresolved, err = p.extractor.ExtractAuto(text)
	} else {
		rec, unresolved, err = p.extractor.Extract(text, p.language)
	}
	if err != nil {
		slog.Warn("Could not extract document", "file", doc.Name, "error", err)
		return invoice.Record{SourceFile: doc.Name}, extraction.Unresolved{}
	}
	rec.SourceFile = doc.Name

	slog.Debug("Extracted document",
		"file", doc.Name,
		"language", rec.Language,
		"invoice_number", rec.InvoiceNumber,
		"unresolved", len(unresolved))
	return rec, unresolved
}

// Validate runs the rule engine over records
func (p *Pipeline) Validate(records []invoice.Record) ([]validation.Result, validation.Summary) {
	return p.engine.Validate(records)
}
