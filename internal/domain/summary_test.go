package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	records := []SpeciesRecord{
		{ScientificName: "Bombus affinis", Family: FamilyApidae, Category: CategoryCriticallyEndangered, TotalOccurrences: 120},
		{ScientificName: "Bombus terricola", Family: FamilyApidae, Category: CategoryVulnerable, ObservationsCount: 40},
		{ScientificName: "Megachile pluto", Family: FamilyMegachilidae, Category: CategoryCriticallyEndangered},
		{ScientificName: "Hylaeus anthracinus", Family: FamilyColletidae, Category: CategoryEndangered, TotalOccurrences: 7},
		{ScientificName: "Lasioglossum unmapped", Family: FamilyHalictidae, ProviderStatus: "unranked"},
	}

	s := Summarize(records)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.ByCategory[CategoryCriticallyEndangered])
	assert.Equal(t, 1, s.ByCategory[CategoryVulnerable])
	assert.Equal(t, 1, s.ByCategory[CategoryEndangered])
	assert.Equal(t, 1, s.ByCategory[Category("")], "unmapped records tallied under the empty key")
	assert.Equal(t, 2, s.ByFamily[FamilyApidae])
	assert.Equal(t, 1, s.ByFamily[FamilyMegachilidae])
	assert.Equal(t, 3, s.WithOccurrences)
	assert.Equal(t, 127, s.TotalOccurrences)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.Empty(t, s.ByCategory)
	assert.Empty(t, s.ByFamily)
	assert.Equal(t, 0, s.WithOccurrences)
}

func TestSummarySortedFamilies(t *testing.T) {
	s := Summarize([]SpeciesRecord{
		{Family: FamilyMelittidae},
		{Family: FamilyApidae},
		{Family: FamilyColletidae},
	})
	assert.Equal(t, []Family{FamilyApidae, FamilyColletidae, FamilyMelittidae}, s.SortedFamilies())
}

func TestTopByOccurrences(t *testing.T) {
	records := []SpeciesRecord{
		{ScientificName: "a", TotalOccurrences: 5},
		{ScientificName: "b", TotalOccurrences: 100},
		{ScientificName: "c", TotalOccurrences: 100},
		{ScientificName: "d", TotalOccurrences: 1},
	}

	top := TopByOccurrences(records, 3)

	assert.Len(t, top, 3)
	assert.Equal(t, "b", top[0].ScientificName)
	assert.Equal(t, "c", top[1].ScientificName, "ties keep insertion order")
	assert.Equal(t, "a", top[2].ScientificName)

	// Input slice untouched.
	assert.Equal(t, "a", records[0].ScientificName)

	assert.Len(t, TopByOccurrences(records, 10), 4)
}
