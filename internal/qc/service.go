package qc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/invoice-qc/internal/extraction"
	"github.com/zombor/invoice-qc/internal/invoice"
	"github.com/zombor/invoice-qc/internal/report"
)

// IDGenerator generates unique IDs for reports
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service runs batches through the pipeline and archives the reports
type Service struct {
	db          DB
	storage     Storage
	pipeline    *Pipeline
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with UUID report IDs and the wall clock
func NewService(db DB, storage Storage, pipeline *Pipeline) *Service {
	return NewServiceWithDeps(db, storage, pipeline, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, pipeline *Pipeline, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		pipeline:    pipeline,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_.]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename keeps a short, safe version of an uploaded file name
func sanitizeFilename(filename string) string {
	filename = path.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.Trim(base, " .")

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "invoice"
	}
	return base + strings.ToLower(unsafeFilenameChars.ReplaceAllString(ext, ""))
}

// uniqueNames sanitizes names and suffixes repeats so each stored file is distinct.
// A suffixed name that is already taken moves on to the next suffix.
func uniqueNames(docs []Document) []string {
	used := make(map[string]bool, len(docs))
	names := make([]string, len(docs))
	for i, doc := range docs {
		name := sanitizeFilename(doc.Name)
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s-%d%s", base, n, ext)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// ProcessDocuments stores the uploaded documents, extracts and validates them and
// archives the report
func (s *Service) ProcessDocuments(ctx context.Context, docs []Document) (*report.Report, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	names := uniqueNames(docs)
	stored := make([]Document, len(docs))
	files := make([]string, 0, len(docs))
	for i, doc := range docs {
		savedPath, err := s.storage.Save(path.Join(id, names[i]), doc.Data)
		if err != nil {
			s.removeFiles(files)
			return nil, fmt.Errorf("saving %s: %w", doc.Name, err)
		}
		files = append(files, savedPath)
		stored[i] = Document{Name: names[i], Data: doc.Data}
	}

	records, unresolved, err := s.pipeline.Extract(ctx, stored)
	if err != nil {
		s.removeFiles(files)
		return nil, err
	}

	rep := s.buildReport(id, now, records, unresolved)
	rep.Files = names
	if err := s.db.SaveReport(&rep); err != nil {
		s.removeFiles(files)
		return nil, fmt.Errorf("saving report: %w", err)
	}

	slog.Info("Processed documents",
		"report", id,
		"documents", len(docs),
		"valid", rep.Summary.ValidInvoices,
		"invalid", rep.Summary.InvalidInvoices)
	return &rep, nil
}

// ValidateRecords validates already extracted records and archives the report
func (s *Service) ValidateRecords(records []invoice.Record) (*report.Report, error) {
	rep := s.buildReport(s.idGenerator.Generate(), s.timeSource.Now(), records, nil)
	if err := s.db.SaveReport(&rep); err != nil {
		return nil, fmt.Errorf("saving report: %w", err)
	}

	slog.Info("Validated records",
		"report", rep.ID,
		"records", len(records),
		"valid", rep.Summary.ValidInvoices,
		"invalid", rep.Summary.InvalidInvoices)
	return &rep, nil
}

func (s *Service) buildReport(id string, now time.Time, records []invoice.Record, unresolved []extraction.Unresolved) report.Report {
	results, summary := s.pipeline.Validate(records)
	return report.New(id, now, records, unresolved, results, summary)
}

func (s *Service) removeFiles(files []string) {
	for _, f := range files {
		if err := s.storage.Delete(f); err != nil {
			slog.Warn("Failed to delete file", "filename", f, "error", err)
		}
	}
}

// GetReport retrieves a report by ID
func (s *Service) GetReport(id string) (*report.Report, error) {
	rep, err := s.db.GetReport(id)
	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}
	return rep, nil
}

// ListReports returns all reports, newest first
func (s *Service) ListReports() ([]*report.Report, error) {
	reports, err := s.db.ListReports()
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return reports, nil
}

// ReportXLSX renders an archived report as a workbook
func (s *Service) ReportXLSX(id string) ([]byte, error) {
	rep, err := s.GetReport(id)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, *rep); err != nil {
		return nil, fmt.Errorf("rendering report %s: %w", id, err)
	}
	return buf.Bytes(), nil
}

// GetSourceFile returns a document stored with a report
func (s *Service) GetSourceFile(id, name string) ([]byte, error) {
	rep, err := s.GetReport(id)
	if err != nil {
		return nil, err
	}
	for _, f := range rep.Files {
		if f == name {
			data, err := s.storage.Get(path.Join(id, name))
			if err != nil {
				return nil, fmt.Errorf("getting source file: %w", err)
			}
			return data, nil
		}
	}
	return nil, fmt.Errorf("file %s in report %s: %w", name, id, ErrNotFound)
}

// DeleteReport removes a report and its stored documents
func (s *Service) DeleteReport(id string) error {
	rep, err := s.db.GetReport(id)
	if err != nil {
		return fmt.Errorf("getting report for deletion: %w", err)
	}

	for _, name := range rep.Files {
		if err := s.storage.Delete(path.Join(id, name)); err != nil {
			slog.Warn("Failed to delete file", "filename", name, "error", err)
		}
	}

	if err := s.db.DeleteReport(id); err != nil {
		return fmt.Errorf("deleting report from database: %w", err)
	}
	return nil
}
