package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/invoice-qc/internal/extraction"
	"github.com/zombor/invoice-qc/internal/invoice"
	"github.com/zombor/invoice-qc/internal/qc"
	"github.com/zombor/invoice-qc/internal/report"
)

func newExtractCommand(parent *ff.FlagSet, cfg *globalConfig) *ff.Command {
	fs := ff.NewFlagSet("extract").SetParent(parent)
	var (
		pdfDir = fs.StringLong("pdf-dir", "", "Directory of invoice PDFs (required)")
		output = fs.StringLong("output", "-", "Output file for extracted records, '-' for stdout")
		lang   = fs.StringLong("lang", langAuto, "Document language: auto, de or en")
	)

	return &ff.Command{
		Name:      "extract",
		Usage:     "invoice-qc extract --pdf-dir DIR [--output FILE] [--lang auto|de|en]",
		ShortHelp: "extract records from PDF invoices",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if *pdfDir == "" {
				return fmt.Errorf("--pdf-dir is required")
			}
			pipeline, err := cfg.pipeline(*lang)
			if err != nil {
				return err
			}

			records, unresolved, _, err := extractDir(ctx, pipeline, *pdfDir)
			if err != nil {
				return err
			}
			logUnresolved(records, unresolved)

			return writeOutput(*output, func(w io.Writer) error {
				return report.WriteRecords(w, records)
			})
		},
	}
}

func newValidateCommand(parent *ff.FlagSet, cfg *globalConfig) *ff.Command {
	fs := ff.NewFlagSet("validate").SetParent(parent)
	var (
		input      = fs.StringLong("input", "-", "Extracted records JSON, '-' for stdin")
		reportPath = fs.StringLong("report", "-", "Output file for the JSON report, '-' for stdout")
		xlsxPath   = fs.StringLong("xlsx", "", "Also write the report as an XLSX workbook")
	)

	return &ff.Command{
		Name:      "validate",
		Usage:     "invoice-qc validate [--input FILE] [--report FILE] [--xlsx FILE]",
		ShortHelp: "validate extracted records",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			data, err := readInput(*input)
			if err != nil {
				return err
			}
			records, err := invoice.DecodeBatch(data)
			if err != nil {
				return fmt.Errorf("reading %s: %w", *input, err)
			}
			engine, err := cfg.engine()
			if err != nil {
				return err
			}

			results, summary := engine.Validate(records)
			rep := report.New(uuid.NewString(), time.Now().UTC(), records, nil, results, summary)
			return finish(rep, "Validation", *reportPath, *xlsxPath)
		},
	}
}

func newFullRunCommand(parent *ff.FlagSet, cfg *globalConfig) *ff.Command {
	fs := ff.NewFlagSet("full-run").SetParent(parent)
	var (
		pdfDir     = fs.StringLong("pdf-dir", "", "Directory of invoice PDFs (required)")
		reportPath = fs.StringLong("report", "-", "Output file for the JSON report, '-' for stdout")
		xlsxPath   = fs.StringLong("xlsx", "", "Also write the report as an XLSX workbook")
		lang       = fs.StringLong("lang", langAuto, "Document language: auto, de or en")
	)

	return &ff.Command{
		Name:      "full-run",
		Usage:     "invoice-qc full-run --pdf-dir DIR [--report FILE] [--xlsx FILE]",
		ShortHelp: "extract and validate PDF invoices in one pass",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if *pdfDir == "" {
				return fmt.Errorf("--pdf-dir is required")
			}
			pipeline, err := cfg.pipeline(*lang)
			if err != nil {
				return err
			}

			records, unresolved, files, err := extractDir(ctx, pipeline, *pdfDir)
			if err != nil {
				return err
			}
			logUnresolved(records, unresolved)

			results, summary := pipeline.Validate(records)
			rep := report.New(uuid.NewString(), time.Now().UTC(), records, unresolved, results, summary)
			rep.Files = files
			return finish(rep, "Extraction and validation", *reportPath, *xlsxPath)
		},
	}
}

func newServeCommand(parent *ff.FlagSet, cfg *globalConfig) *ff.Command {
	fs := ff.NewFlagSet("serve").SetParent(parent)
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "invoice-qc.db", "Database file path")
		storagePath = fs.StringLong("storage", "./invoices", "Storage directory path")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		timeout     = fs.DurationLong("timeout", qc.DefaultRequestTimeout, "Deadline for extract and validate requests")
		lang        = fs.StringLong("lang", langAuto, "Document language: auto, de or en")
	)

	return &ff.Command{
		Name:      "serve",
		Usage:     "invoice-qc serve [--port N] [--db FILE] [--storage DIR]",
		ShortHelp: "run the HTTP service and web console",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			pipeline, err := cfg.pipeline(*lang)
			if err != nil {
				return err
			}

			slog.Info("Initializing database...")
			db, err := qc.NewBoltDB(*dbPath)
			if err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			defer db.Close()

			slog.Info("Initializing storage...")
			store, err := qc.NewLocalStorage(*storagePath)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}

			server := qc.NewServer(qc.NewService(db, store, pipeline), qc.BasicAuth{
				Username: *authUser,
				Password: *authPass,
			})
			server.SetRequestTimeout(*timeout)

			addr := fmt.Sprintf(":%d", *port)
			slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
			if *authUser != "" || *authPass != "" {
				slog.Info("Basic auth enabled", "user", *authUser)
			}

			if err := server.Start(ctx, addr); err != nil {
				return fmt.Errorf("server: %w", err)
			}
			slog.Info("Shutting down...")
			return nil
		},
	}
}

// extractDir runs the pipeline over every PDF in dir and returns the file names too
func extractDir(ctx context.Context, pipeline *qc.Pipeline, dir string) ([]invoice.Record, []extraction.Unresolved, []string, error) {
	docs, err := qc.LoadDocuments(dir)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(docs) == 0 {
		slog.Warn("No PDF files found", "dir", dir)
	}

	records, unresolved, err := pipeline.Extract(ctx, docs)
	if err != nil {
		return nil, nil, nil, err
	}

	files := make([]string, len(docs))
	for i, doc := range docs {
		files[i] = doc.Name
	}
	slog.Info("Extracted documents", "dir", dir, "count", len(docs))
	return records, unresolved, files, nil
}

func logUnresolved(records []invoice.Record, unresolved []extraction.Unresolved) {
	for i, u := range unresolved {
		if len(u) == 0 {
			continue
		}
		slog.Debug("Unresolved fields", "file", records[i].SourceFile, "fields", u.Fields())
	}
}

// finish writes the report outputs, prints the summary and signals invalid records
func finish(rep report.Report, title, reportPath, xlsxPath string) error {
	if err := writeOutput(reportPath, func(w io.Writer) error {
		return report.WriteJSON(w, rep)
	}); err != nil {
		return err
	}
	if xlsxPath != "" {
		if err := writeOutput(xlsxPath, func(w io.Writer) error {
			return report.WriteXLSX(w, rep)
		}); err != nil {
			return err
		}
		slog.Info("Wrote workbook", "path", xlsxPath)
	}

	fmt.Fprintln(os.Stderr, report.RenderSummary(title, rep))
	if !rep.Valid() {
		return errInvalidRecords
	}
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}

// writeOutput renders into memory first so a failed render leaves no partial file
func writeOutput(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if path == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
