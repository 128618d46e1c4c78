// SPDX-License-Identifier: MIT

// scan is a one-shot CLI that runs a validation pass against the configured
// store and prints the resulting report.
//
// Usage:
//
//	scan -db data/mediamend.db
//	scan -db data/mediamend.db -collections yachts,profiles -json
//
// Exit codes:
//   - 0: scan completed, no invalid URLs
//   - 1: scan completed, invalid URLs found
//   - 2: usage or runtime error
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pbartsch/mediamend/internal/config"
	xlog "github.com/pbartsch/mediamend/internal/log"
	"github.com/pbartsch/mediamend/internal/probe"
	"github.com/pbartsch/mediamend/internal/report"
	"github.com/pbartsch/mediamend/internal/scan"
	"github.com/pbartsch/mediamend/internal/store"
	"github.com/pbartsch/mediamend/internal/store/sqlitestore"
	"github.com/pbartsch/mediamend/internal/validate"
)

var Version = "dev"

func main() {
	var (
		dbPath      string
		collections string
		exclude     string
		jsonOut     bool
		persist     bool
		showVersion bool
	)

	flag.StringVar(&dbPath, "db", "", "path to the SQLite store")
	flag.StringVar(&collections, "collections", "", "comma-separated collections to include (default: all)")
	flag.StringVar(&exclude, "exclude", "", "comma-separated collections to exclude")
	flag.BoolVar(&jsonOut, "json", false, "print the full report as JSON")
	flag.BoolVar(&persist, "persist", false, "persist the report to the store")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(Version)
		os.Exit(0)
	}

	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --db is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  scan -db data/mediamend.db [-collections a,b] [-json]")
		os.Exit(2)
	}

	xlog.Configure(xlog.Config{Service: "mediamend-scan", Output: os.Stderr})
	cfg := config.FromEnv()

	docStore, err := sqlitestore.Open(dbPath, store.ReportCollections{
		Validation: cfg.ReportsCollection,
		Repair:     cfg.RepairReportsCollection,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = docStore.Close() }()

	prober := probe.New(probe.Config{
		Timeout:      cfg.ProbeTimeout,
		MaxRedirects: cfg.MaxRedirects,
	})
	engine := scan.NewEngine(docStore, scan.NewDocumentValidator(docStore, validate.New(prober)))

	include := splitList(collections)
	if len(include) == 0 && cfg.MediaCollection != "" {
		include = []string{cfg.MediaCollection}
	}

	start := time.Now()
	results, err := engine.ValidateAll(context.Background(), scan.Options{
		IncludeCollections: include,
		ExcludeCollections: splitList(exclude),
		BatchSize:          cfg.BatchSize,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	rep := report.Generate(results, start, time.Now())
	if persist {
		if err := report.NewRepository(docStore).SaveValidation(context.Background(), rep); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	} else {
		printSummary(rep)
	}

	if rep.InvalidURLs > 0 {
		os.Exit(1)
	}
}

func printSummary(rep report.ValidationReport) {
	fmt.Printf("Report %s (%dms)\n", rep.ID, rep.DurationMs)
	fmt.Printf("  documents: %d  fields: %d  valid: %d  invalid: %d  missing: %d\n",
		rep.TotalDocuments, rep.TotalFields, rep.ValidURLs, rep.InvalidURLs, rep.MissingURLs)
	for _, summary := range rep.CollectionSummaries {
		fmt.Printf("  %-24s total=%-5d valid=%.1f%% invalid=%.1f%% missing=%.1f%%\n",
			summary.Collection, summary.TotalURLs, summary.ValidPct, summary.InvalidPct, summary.MissingPct)
	}
	for _, field := range rep.InvalidResults {
		fmt.Printf("  INVALID %s/%s %s: %s (%s)\n",
			field.Collection, field.DocumentID, field.FieldPath, field.Error, field.URL)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
