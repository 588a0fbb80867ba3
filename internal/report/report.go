// Package report renders console summaries of collection runs.
package report

import (
	"fmt"
	"io"

	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
)

const rule = "======================================================================"

// Render prints the run summary for one source: totals, counts by
// normalized category in severity order, counts by family, and the species
// with the most occurrence records.
func Render(w io.Writer, set domain.ResultSet) {
	s := domain.Summarize(set.Species)

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "SUMMARY: %s\n", set.DataSource)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "\nTotal species found: %d\n", s.Total)

	fmt.Fprintln(w, "\nBy conservation status:")
	for _, cat := range domain.TargetCategories() {
		if count := s.ByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %s: %d\n", cat, count)
		}
	}
	if unmapped := s.ByCategory[""]; unmapped > 0 {
		fmt.Fprintf(w, "  unmapped: %d\n", unmapped)
	}

	fmt.Fprintln(w, "\nBy family:")
	for _, family := range s.SortedFamilies() {
		fmt.Fprintf(w, "  %s: %d\n", family, s.ByFamily[family])
	}

	fmt.Fprintf(w, "\nSpecies with occurrence records: %d\n", s.WithOccurrences)
	if s.TotalOccurrences > 0 {
		fmt.Fprintf(w, "Total occurrence records: %d\n", s.TotalOccurrences)
	}

	renderTopSpecies(w, set.Species)
}

// renderTopSpecies lists the five species with the most occurrences.
func renderTopSpecies(w io.Writer, species []domain.SpeciesRecord) {
	top := domain.TopByOccurrences(species, 5)
	if len(top) == 0 || top[0].TotalOccurrences == 0 {
		return
	}

	fmt.Fprintln(w, "\nSpecies with most occurrences (top 5):")
	for i, rec := range top {
		if rec.TotalOccurrences == 0 {
			break
		}
		fmt.Fprintf(w, "\n  %d. %s\n", i+1, rec.ScientificName)
		fmt.Fprintf(w, "     Family: %s\n", rec.Family)
		if rec.Category != "" {
			fmt.Fprintf(w, "     Status: %s\n", rec.Category)
		}
		fmt.Fprintf(w, "     Occurrences: %d\n", rec.TotalOccurrences)
	}
}

// RenderRedlist prints the European Red List breakdown: per-family shares
// of threatened, least-concern, and data-deficient species, plus endemism
// counts.
func RenderRedlist(w io.Writer, doc domain.RedlistDocument) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "SUMMARY: %s\n", doc.DataSource)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "\nTotal species parsed: %d\n", doc.TotalSpecies)

	fmt.Fprintln(w, "\nBreakdown by family (Europe-wide status):")
	var ddCount, talliedCount int
	for _, b := range doc.FamilyBreakdown {
		fmt.Fprintf(w, "  %s\n", b.Family)
		fmt.Fprintf(w, "    %% Data-Deficient: %.1f\n", b.PctDataDeficient)
		fmt.Fprintf(w, "    %% Threatened:     %.1f\n", b.PctThreatened)
		fmt.Fprintf(w, "    %% Least Concern:  %.1f\n", b.PctLeastConcern)
		ddCount += b.DataDeficient
		talliedCount += b.Total
	}
	if talliedCount > 0 {
		fmt.Fprintf(w, "\nDD %% across all species: %.1f\n", float64(ddCount)/float64(talliedCount)*100)
	}

	fmt.Fprintln(w, "\nBreakdown by species nativity:")
	fmt.Fprintf(w, "  Endemic to Europe: %d species\n", doc.EndemicEurope)
	fmt.Fprintf(w, "  Endemic to EU 27: %d species\n", doc.EndemicEU27)
}
