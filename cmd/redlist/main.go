// Command redlist parses the European Red List of Bees Appendix 1 PDF and
// writes the species list with per-family conservation breakdowns.
//
// Usage:
//
//	go run ./cmd/redlist \
//	  -pdf "red list euro bees.pdf" \
//	  -out european_redlist_conservation_concern.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pollinatorlab/bee-conservation-etl/internal/adapter/redlist"
	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
	"github.com/pollinatorlab/bee-conservation-etl/internal/observability"
	"github.com/pollinatorlab/bee-conservation-etl/internal/report"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	pdfPath := flag.String("pdf", "", "path to the European Red List of Bees PDF")
	outPath := flag.String("out", "european_redlist_conservation_concern.json", "output path for the JSON document")
	logLevel := flag.String("log-level", "warn", "log level for parse diagnostics")
	flag.Parse()

	if *pdfPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -pdf")
	}

	logger := observability.NewLogger(*logLevel, "text")

	records, stats, err := redlist.ParseFile(*pdfPath, logger)
	if err != nil {
		return fmt.Errorf("parse %s: %w", *pdfPath, err)
	}
	log.Printf("parsed %d species rows (%d rows skipped)", stats.Parsed, stats.Skipped)
	if stats.Parsed == 0 {
		return fmt.Errorf("no species rows found in %s: not the Appendix 1 table?", *pdfPath)
	}

	doc := domain.NewRedlistDocument(records)
	if err := writeJSON(*outPath, doc); err != nil {
		return fmt.Errorf("write %s: %w", *outPath, err)
	}
	log.Printf("wrote %s", *outPath)

	report.RenderRedlist(os.Stdout, doc)
	return nil
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
