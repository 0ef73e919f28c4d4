package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zombor/invoice-qc/internal/extraction"
	"github.com/zombor/invoice-qc/internal/patterns"
	"github.com/zombor/invoice-qc/internal/pdftext"
	"github.com/zombor/invoice-qc/internal/qc"
	"github.com/zombor/invoice-qc/internal/validation"
)

// langAuto detects the language of each document
const langAuto = "auto"

// globalConfig holds the flags shared by every subcommand
type globalConfig struct {
	patterns   *string
	tolerance  *string
	currencies *string
	pdfEngine  *string
	workers    *int
	logLevel   *string
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func parseCurrencies(s string) []string {
	var codes []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}

func parseTolerance(s string) (decimal.Decimal, error) {
	tol, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tolerance %q: %w", s, err)
	}
	if tol.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid tolerance %q: must not be negative", s)
	}
	return tol, nil
}

func (c *globalConfig) library() (*patterns.Library, error) {
	if *c.patterns == "" {
		return patterns.Default(), nil
	}
	lib, err := patterns.Load(*c.patterns)
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded pattern library", "path", *c.patterns, "languages", lib.Languages())
	return lib, nil
}

func (c *globalConfig) engine() (*validation.Engine, error) {
	tol, err := parseTolerance(*c.tolerance)
	if err != nil {
		return nil, err
	}
	return validation.NewEngine(validation.Config{
		Tolerance:  tol,
		Currencies: parseCurrencies(*c.currencies),
		Workers:    *c.workers,
	}), nil
}

// pipeline wires converter, extractor and engine; lang is "auto" or a library tag
func (c *globalConfig) pipeline(lang string) (*qc.Pipeline, error) {
	lib, err := c.library()
	if err != nil {
		return nil, err
	}

	var language patterns.Language
	if !strings.EqualFold(strings.TrimSpace(lang), langAuto) {
		if language, err = lib.ParseLanguage(lang); err != nil {
			return nil, err
		}
	}

	converter, err := pdftext.New(*c.pdfEngine)
	if err != nil {
		return nil, err
	}
	engine, err := c.engine()
	if err != nil {
		return nil, err
	}

	return qc.NewPipeline(converter, extraction.New(lib), engine, language, *c.workers), nil
}
