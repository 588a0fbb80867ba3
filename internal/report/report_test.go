package report

import (
	"bytes"
	"testing"

	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	set := domain.NewResultSet("GBIF", "", "run-1", []domain.SpeciesRecord{
		{
			ScientificName:   "Bombus affinis Cresson, 1863",
			Family:           domain.FamilyApidae,
			Category:         domain.CategoryCriticallyEndangered,
			TotalOccurrences: 1764,
		},
		{
			ScientificName:   "Hylaeus anthracinus (Smith, 1853)",
			Family:           domain.FamilyColletidae,
			Category:         domain.CategoryEndangered,
			TotalOccurrences: 112,
		},
		{
			ScientificName: "Andrena asteris",
			Family:         domain.FamilyAndrenidae,
			ProviderStatus: "unranked",
		},
	})

	var buf bytes.Buffer
	Render(&buf, set)
	out := buf.String()

	assert.Contains(t, out, "SUMMARY: GBIF")
	assert.Contains(t, out, "Total species found: 3")
	assert.Contains(t, out, "CR: 1")
	assert.Contains(t, out, "EN: 1")
	assert.Contains(t, out, "unmapped: 1")
	assert.Contains(t, out, "Apidae: 1")
	assert.Contains(t, out, "Colletidae: 1")
	assert.Contains(t, out, "Species with occurrence records: 2")
	assert.Contains(t, out, "Total occurrence records: 1876")
	assert.Contains(t, out, "1. Bombus affinis Cresson, 1863")
	assert.Contains(t, out, "Occurrences: 1764")
	assert.NotContains(t, out, "Andrena asteris\n     Family", "species without occurrences stay out of the top list")
}

func TestRender_EmptySet(t *testing.T) {
	set := domain.NewResultSet("Empty Source", "", "run-1", nil)

	var buf bytes.Buffer
	Render(&buf, set)
	out := buf.String()

	assert.Contains(t, out, "Total species found: 0")
	assert.NotContains(t, out, "most occurrences")
}

func TestRenderRedlist(t *testing.T) {
	doc := domain.NewRedlistDocument([]domain.RedlistRecord{
		{ScientificName: "Bombus cullumanus", Family: "APIDAE", EuropeStatus: "CR", EU27Status: "CR"},
		{ScientificName: "Bombus terrestris", Family: "APIDAE", EuropeStatus: "LC", EU27Status: "LC"},
		{ScientificName: "Andrena labiatula", Family: "ANDRENIDAE", EuropeStatus: "DD", EU27Status: "DD", EndemicEurope: true},
	})

	var buf bytes.Buffer
	RenderRedlist(&buf, doc)
	out := buf.String()

	assert.Contains(t, out, "Total species parsed: 3")
	assert.Contains(t, out, "APIDAE")
	assert.Contains(t, out, "% Threatened:     50.0")
	assert.Contains(t, out, "% Least Concern:  50.0")
	assert.Contains(t, out, "ANDRENIDAE")
	assert.Contains(t, out, "% Data-Deficient: 100.0")
	assert.Contains(t, out, "Endemic to Europe: 1 species")
	assert.Contains(t, out, "Endemic to EU 27: 0 species")
}
