// Package redlist parses the European Red List of Bees Appendix 1 table.
//
// Extraction and parsing are separate layers: extract.go turns the PDF into
// per-page text rows, and the parser here consumes whitespace-split token
// rows, so every row rule is testable without a PDF.
package redlist

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
)

// headerRows is the number of leading rows on each page occupied by the
// table header and column captions.
const headerRows = 5

// Stats counts what the parser saw, so coverage is checkable after a run.
type Stats struct {
	Rows    int // token rows considered after header skipping
	Parsed  int // rows that produced a species record
	Skipped int // rows whose shape matched no known layout
}

// Parser consumes Appendix 1 token rows in table order. Row shapes vary
// with how the extractor merged adjacent columns: a clean row has 6 tokens,
// a row with one merged or stray cell has 7, and a row with two has 8.
// Anything else is skipped and counted.
type Parser struct {
	logger *slog.Logger

	family        string
	melittidaeSet bool
	records       []domain.RedlistRecord
	stats         Stats
}

// NewParser creates a parser. The logger receives one warning per skipped row.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParsePages feeds every page's rows through the parser, skipping the
// header rows at the top of each page, and returns the accumulated records.
func (p *Parser) ParsePages(pages [][]string) []domain.RedlistRecord {
	for _, rows := range pages {
		for i, row := range rows {
			if i < headerRows {
				continue
			}
			p.feed(strings.Fields(row))
		}
	}
	return p.Records()
}

// Records returns the species rows parsed so far.
func (p *Parser) Records() []domain.RedlistRecord {
	return p.records
}

// Stats returns the row accounting for the rows fed so far.
func (p *Parser) Stats() Stats {
	return p.stats
}

// feed handles one whitespace-split row.
func (p *Parser) feed(tokens []string) {
	if len(tokens) == 0 {
		return
	}
	// Page footer artifact: the page number surfaces as a digits-only
	// first token.
	if allDigits(tokens[0]) {
		return
	}

	// The MELITTIDAE section header is lost by extraction; the family's
	// first genus marks where it began.
	if !p.melittidaeSet && contains(tokens, "Dasypoda") {
		p.family = "MELITTIDAE"
		p.melittidaeSet = true
	}

	if len(tokens) == 1 || isAllUpper(tokens[0]) {
		p.family = tokens[0]
		return
	}

	p.stats.Rows++

	rec, ok := p.parseSpeciesRow(tokens)
	if !ok {
		p.stats.Skipped++
		p.logger.Warn("unrecognized row shape, skipping", "tokens", len(tokens), "row", strings.Join(tokens, " "))
		return
	}
	p.stats.Parsed++
	p.records = append(p.records, rec)
}

// parseSpeciesRow maps a token row onto named columns by its length.
func (p *Parser) parseSpeciesRow(tokens []string) (domain.RedlistRecord, bool) {
	var europe, eu27, endemicEurope, endemicEU27 string
	switch len(tokens) {
	case 6:
		europe, eu27 = tokens[2], tokens[3]
		endemicEurope, endemicEU27 = tokens[4], tokens[5]
	case 7:
		// One extra cell: the EU27 status landed in one of two positions
		// depending on which neighbor column leaked. "nan" marks the
		// empty one.
		europe = tokens[2]
		if tokens[3] == "nan" {
			eu27 = tokens[4]
		} else {
			eu27 = tokens[3]
		}
		endemicEurope, endemicEU27 = tokens[5], tokens[6]
	case 8:
		europe, eu27 = tokens[2], tokens[4]
		endemicEurope, endemicEU27 = tokens[6], tokens[7]
	default:
		return domain.RedlistRecord{}, false
	}

	return domain.RedlistRecord{
		ScientificName: tokens[0] + " " + tokens[1],
		Family:         p.family,
		EuropeStatus:   europe,
		EU27Status:     eu27,
		EndemicEurope:  endemicEurope == "Yes",
		EndemicEU27:    endemicEU27 == "Yes",
	}, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isAllUpper reports whether the token is entirely uppercase letters, the
// shape of a family section header like ANDRENIDAE.
func isAllUpper(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func contains(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
