package redlist

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/ledongthuc/pdf"

	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
)

// yTolerance groups positioned text fragments into rows: fragments whose
// baselines are within this many points belong to the same table row.
const yTolerance = 2.0

// ParseFile extracts the Appendix 1 table from the PDF at path and parses
// it into species records.
func ParseFile(path string, logger *slog.Logger) ([]domain.RedlistRecord, Stats, error) {
	pages, err := ExtractPages(path)
	if err != nil {
		return nil, Stats{}, err
	}
	p := NewParser(logger)
	records := p.ParsePages(pages)
	return records, p.Stats(), nil
}

// ExtractPages reads the PDF and returns, per page, the text rows in
// top-to-bottom order. Fragments on a page are grouped into rows by their
// vertical position and concatenated left to right.
func ExtractPages(path string) ([][]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([][]string, 0, numPages)
	for n := 1; n <= numPages; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		pages = append(pages, pageRows(page.Content().Text))
	}
	return pages, nil
}

// pageRows groups a page's positioned text fragments into rows of text.
func pageRows(texts []pdf.Text) []string {
	if len(texts) == 0 {
		return nil
	}

	// PDF Y coordinates grow upward; sort top of page first, then left
	// to right within a row.
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if diff := sorted[i].Y - sorted[j].Y; diff > yTolerance || diff < -yTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var rows []string
	var row []byte
	rowY := sorted[0].Y
	for _, t := range sorted {
		if rowY-t.Y > yTolerance {
			rows = append(rows, string(row))
			row = row[:0]
			rowY = t.Y
		} else if len(row) > 0 {
			// A space between fragments keeps adjacent cell values
			// from fusing into one token.
			row = append(row, ' ')
		}
		row = append(row, t.S...)
	}
	if len(row) > 0 {
		rows = append(rows, string(row))
	}
	return rows
}
