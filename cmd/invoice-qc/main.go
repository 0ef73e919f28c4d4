package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// errInvalidRecords makes the process exit non-zero once the summary is printed
var errInvalidRecords = errors.New("batch contains invalid records")

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	root, cfg := newRootCommand()

	if err := root.Parse(args, ff.WithEnvVarPrefix("INVOICE_QC")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root.GetSelected()))
		if errors.Is(err, ff.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	level, err := parseLevel(*cfg.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	err = root.Run(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errInvalidRecords):
		return 1
	case errors.Is(err, ff.ErrNoExec):
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root.GetSelected()))
		return 1
	default:
		slog.Error("Command failed", "error", err)
		return 1
	}
}

func newRootCommand() (*ff.Command, *globalConfig) {
	fs := ff.NewFlagSet("invoice-qc")
	cfg := &globalConfig{
		patterns:   fs.StringLong("patterns", "", "YAML pattern library file (default: built-in German and English rules)"),
		tolerance:  fs.StringLong("tolerance", "0.01", "Absolute tolerance for amounts that should agree"),
		currencies: fs.StringLong("currencies", "", "Comma-separated accepted currency codes (default: EUR,USD,INR)"),
		pdfEngine:  fs.StringLong("pdf-engine", "fitz", "PDF text engine: 'fitz' or 'pure'"),
		workers:    fs.IntLong("workers", 0, "Parallel workers (default: number of CPUs)"),
		logLevel:   fs.StringLong("log-level", "info", "Log level: debug, info, warn or error"),
	}
	fs.BoolLong("version", "Show version information")

	root := &ff.Command{
		Name:      "invoice-qc",
		Usage:     "invoice-qc [FLAGS] <SUBCOMMAND> ...",
		ShortHelp: "extract and validate invoices",
		Flags:     fs,
		Subcommands: []*ff.Command{
			newExtractCommand(fs, cfg),
			newValidateCommand(fs, cfg),
			newFullRunCommand(fs, cfg),
			newServeCommand(fs, cfg),
		},
	}
	return root, cfg
}
