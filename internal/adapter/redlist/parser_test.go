package redlist

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// header pads a page with the rows the extractor yields for the table
// caption block.
func header() []string {
	return []string{
		"European Red List of Bees",
		"Appendix 1. Red List status of European bees",
		"Family Scientific name",
		"Red List status Red List status",
		"Europe EU 27 Endemic to Europe Endemic to EU 27",
	}
}

func TestParsePages_CleanSixTokenRows(t *testing.T) {
	p := newTestParser()
	records := p.ParsePages([][]string{
		append(header(),
			"APIDAE",
			"Bombus terrestris LC LC No No",
			"Bombus cullumanus CR CR No No",
		),
	})

	require.Len(t, records, 2)
	want := domain.RedlistRecord{
		ScientificName: "Bombus terrestris",
		Family:         "APIDAE",
		EuropeStatus:   "LC",
		EU27Status:     "LC",
	}
	if diff := cmp.Diff(want, records[0]); diff != "" {
		t.Errorf("first record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Bombus cullumanus", records[1].ScientificName)
	assert.Equal(t, "CR", records[1].EuropeStatus)

	stats := p.Stats()
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 2, stats.Parsed)
	assert.Equal(t, 0, stats.Skipped)
}

func TestParsePages_HeaderRowsAreSkippedPerPage(t *testing.T) {
	p := newTestParser()
	records := p.ParsePages([][]string{
		append(header(), "ANDRENIDAE", "Andrena stigmatica EN EN Yes No"),
		append(header(), "Andrena labiatula DD DD No No"),
	})

	require.Len(t, records, 2)
	assert.Equal(t, "ANDRENIDAE", records[1].Family, "family carries over page breaks")
}

func TestFeed_SevenTokenRowShapes(t *testing.T) {
	tests := []struct {
		name       string
		row        []string
		wantEurope string
		wantEU27   string
	}{
		{
			name:       "nan in europe-adjacent slot",
			row:        []string{"Andrena", "labiata", "LC", "nan", "NT", "No", "No"},
			wantEurope: "LC",
			wantEU27:   "NT",
		},
		{
			name:       "stray cell after the statuses",
			row:        []string{"Andrena", "labiata", "LC", "NT", "x", "No", "No"},
			wantEurope: "LC",
			wantEU27:   "NT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestParser()
			p.feed([]string{"ANDRENIDAE"})
			p.feed(tt.row)

			records := p.Records()
			require.Len(t, records, 1)
			assert.Equal(t, "Andrena labiata", records[0].ScientificName)
			assert.Equal(t, tt.wantEurope, records[0].EuropeStatus)
			assert.Equal(t, tt.wantEU27, records[0].EU27Status)
		})
	}
}

func TestFeed_EightTokenRow(t *testing.T) {
	p := newTestParser()
	p.feed([]string{"COLLETIDAE"})
	p.feed([]string{"Colletes", "wolfi", "NT", "nan", "VU", "nan", "Yes", "Yes"})

	records := p.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "NT", records[0].EuropeStatus)
	assert.Equal(t, "VU", records[0].EU27Status)
	assert.True(t, records[0].EndemicEurope)
	assert.True(t, records[0].EndemicEU27)
}

func TestFeed_DasypodaStartsMelittidae(t *testing.T) {
	p := newTestParser()
	p.feed([]string{"COLLETIDAE"})
	p.feed([]string{"Colletes", "wolfi", "NT", "NT", "Yes", "Yes"})
	// The MELITTIDAE section header never survives extraction.
	p.feed([]string{"Dasypoda", "suripes", "NT", "VU", "Yes", "No"})
	p.feed([]string{"Melitta", "tricincta", "NT", "NT", "No", "No"})

	records := p.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "COLLETIDAE", records[0].Family)
	assert.Equal(t, "MELITTIDAE", records[1].Family)
	assert.Equal(t, "MELITTIDAE", records[2].Family, "family persists after the Dasypoda switch")
}

func TestFeed_FamilyHeaderShapes(t *testing.T) {
	p := newTestParser()
	p.feed([]string{"HALICTIDAE"})
	p.feed([]string{"Lasioglossum", "soror", "DD", "DD", "No", "No"})
	// Header merged with a stray caption fragment still starts a section.
	p.feed([]string{"MEGACHILIDAE", "continued"})
	p.feed([]string{"Megachile", "pluto", "VU", "VU", "No", "No"})

	records := p.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "HALICTIDAE", records[0].Family)
	assert.Equal(t, "MEGACHILIDAE", records[1].Family)

	assert.Equal(t, 2, p.Stats().Rows, "header rows are not counted as species candidates")
}

func TestFeed_SkipsArtifactRows(t *testing.T) {
	p := newTestParser()
	p.feed([]string{"APIDAE"})
	p.feed([]string{"47"}) // page number
	p.feed([]string{})
	p.feed([]string{"Bombus", "terrestris", "LC", "LC", "No", "No"})

	require.Len(t, p.Records(), 1)
	assert.Equal(t, 1, p.Stats().Rows)
}

func TestFeed_UnknownShapeCountedAsSkipped(t *testing.T) {
	p := newTestParser()
	p.feed([]string{"APIDAE"})
	p.feed([]string{"Bombus", "terrestris", "LC", "LC", "No"}) // five tokens
	p.feed([]string{"Bombus", "cullumanus", "CR", "CR", "No", "No"})

	require.Len(t, p.Records(), 1)
	stats := p.Stats()
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 1, stats.Parsed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, stats.Rows, stats.Parsed+stats.Skipped)
}

func TestAllDigits(t *testing.T) {
	assert.True(t, allDigits("47"))
	assert.False(t, allDigits("47a"))
	assert.False(t, allDigits(""))
}

func TestIsAllUpper(t *testing.T) {
	assert.True(t, isAllUpper("ANDRENIDAE"))
	assert.False(t, isAllUpper("Andrena"))
	assert.False(t, isAllUpper("G1"))
	assert.False(t, isAllUpper(""))
}
