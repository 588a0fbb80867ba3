// Command validate performs offline integrity checks over emitted result
// documents: per-document invariants, European Red List breakdown
// arithmetic, and cross-source consistency. It is the analyst's
// reconciliation aid; the collectors themselves never merge across sources.
//
// Usage:
//
//	go run ./cmd/validate -dir data/mock
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
)

// collectorFiles are the result documents a full run produces.
var collectorFiles = []string{
	"endangered_bees.json",
	"gbif_bees.json",
	"iucn_bees.json",
	"natureserve_bees.json",
	"empty_source_bees.json",
}

const redlistFile = "european_redlist_conservation_concern.json"

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "", "directory containing emitted result documents")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir); code != 0 {
		os.Exit(code)
	}
}

func run(dir string) int {
	fmt.Println("=== Bee Conservation Data Integrity Validation ===")
	fmt.Println()

	sets, err := loadResultSets(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	redlistDoc, redlistFound, err := loadRedlist(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateDocuments(sets),
		validateRedlist(redlistDoc, redlistFound),
		validateCrossSource(sets),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	total := 0
	for _, set := range sets {
		total += set.TotalSpecies
	}
	fmt.Printf("\nDocuments: %d collector, redlist present: %v, %d species records total\n",
		len(sets), redlistFound, total)

	for _, p := range phases {
		if len(p.notes) == 0 && p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for _, n := range p.notes {
			fmt.Printf("  note: %s\n", n)
		}
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// --- Data loading ---

// loadResultSets reads every known collector document present in dir,
// keyed by filename. At least one must exist.
func loadResultSets(dir string) (map[string]domain.ResultSet, error) {
	sets := make(map[string]domain.ResultSet)
	for _, name := range collectorFiles {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var set domain.ResultSet
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		sets[name] = set
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("no collector documents found in %s", dir)
	}
	return sets, nil
}

func loadRedlist(dir string) (domain.RedlistDocument, bool, error) {
	path := filepath.Join(dir, redlistFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return domain.RedlistDocument{}, false, nil
	}
	if err != nil {
		return domain.RedlistDocument{}, false, fmt.Errorf("read %s: %w", path, err)
	}
	var doc domain.RedlistDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.RedlistDocument{}, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, true, nil
}

// --- Phase 1: Document invariants ---

func validateDocuments(sets map[string]domain.ResultSet) *phase {
	p := &phase{name: "Phase 1: Document Invariants"}

	for _, name := range sortedKeys(sets) {
		set := sets[name]
		if set.TotalSpecies != len(set.Species) {
			p.errorf("%s: total_species=%d but species array has %d entries", name, set.TotalSpecies, len(set.Species))
		}
		if set.DataSource == "" {
			p.errorf("%s: data_source is empty", name)
		}
		if _, err := time.Parse(time.RFC3339, set.CollectionDate); err != nil {
			p.errorf("%s: collection_date %q is not RFC3339", name, set.CollectionDate)
		}
		if set.Species == nil {
			p.errorf("%s: species is null (must be an array, possibly empty)", name)
		}
		for i, rec := range set.Species {
			checkRecord(p, name, i, rec)
		}
	}
	return p
}

func checkRecord(p *phase, file string, i int, rec domain.SpeciesRecord) {
	if rec.ScientificName == "" {
		p.errorf("%s record %d: scientific_name is empty", file, i)
	}
	if _, ok := domain.ParseFamily(string(rec.Family)); !ok {
		p.errorf("%s record %d (%s): family %q is not a bee family", file, i, rec.ScientificName, rec.Family)
	}
	if rec.Category != "" && !rec.Category.InTargetSet() {
		p.errorf("%s record %d (%s): category %q outside the target set", file, i, rec.ScientificName, rec.Category)
	}
	if rec.Details == nil {
		return
	}
	for j, occ := range rec.Details.Occurrences {
		if (occ.Latitude == nil) != (occ.Longitude == nil) {
			p.errorf("%s record %d occurrence %d: latitude/longitude must be set together", file, i, j)
			continue
		}
		if occ.Latitude == nil {
			continue
		}
		if *occ.Latitude < -90 || *occ.Latitude > 90 {
			p.errorf("%s record %d occurrence %d: latitude %g out of range", file, i, j, *occ.Latitude)
		}
		if *occ.Longitude < -180 || *occ.Longitude > 180 {
			p.errorf("%s record %d occurrence %d: longitude %g out of range", file, i, j, *occ.Longitude)
		}
	}
}

// --- Phase 2: Red List arithmetic ---

func validateRedlist(doc domain.RedlistDocument, found bool) *phase {
	p := &phase{name: "Phase 2: Red List Breakdown Arithmetic"}
	if !found {
		p.notef("no redlist document; phase skipped")
		return p
	}

	if doc.TotalSpecies != len(doc.Species) {
		p.errorf("total_species=%d but species array has %d entries", doc.TotalSpecies, len(doc.Species))
	}

	// Re-derive the breakdown from the species list and compare.
	expected := map[string]domain.FamilyBreakdown{}
	for _, b := range domain.BuildBreakdowns(doc.Species) {
		expected[b.Family] = b
	}

	for _, b := range doc.FamilyBreakdown {
		want, ok := expected[b.Family]
		if !ok {
			p.errorf("family %s appears in breakdown but has no species rows", b.Family)
			continue
		}
		if b.Threatened+b.LeastConcern+b.DataDeficient != b.Total {
			p.errorf("family %s: counts %d+%d+%d do not sum to total %d",
				b.Family, b.Threatened, b.LeastConcern, b.DataDeficient, b.Total)
		}
		if sum := b.PctThreatened + b.PctLeastConcern + b.PctDataDeficient; sum > 100.0 {
			p.errorf("family %s: percentages sum to %.1f (>100)", b.Family, sum)
		}
		if b.Threatened != want.Threatened || b.LeastConcern != want.LeastConcern || b.DataDeficient != want.DataDeficient {
			p.errorf("family %s: breakdown (%d/%d/%d) does not match species rows (%d/%d/%d)",
				b.Family, b.Threatened, b.LeastConcern, b.DataDeficient,
				want.Threatened, want.LeastConcern, want.DataDeficient)
		}
	}

	var endemicEurope, endemicEU27 int
	for _, rec := range doc.Species {
		if rec.EndemicEurope {
			endemicEurope++
		}
		if rec.EndemicEU27 {
			endemicEU27++
		}
	}
	if endemicEurope != doc.EndemicEurope {
		p.errorf("endemic_to_europe_count=%d but %d species rows are flagged", doc.EndemicEurope, endemicEurope)
	}
	if endemicEU27 != doc.EndemicEU27 {
		p.errorf("endemic_to_eu27_count=%d but %d species rows are flagged", doc.EndemicEU27, endemicEU27)
	}
	return p
}

// --- Phase 3: Cross-source reconciliation ---

// validateCrossSource reports species seen by more than one provider and
// flags category disagreements. Disagreements are notes, not errors:
// providers legitimately assess at different scopes (global vs regional).
func validateCrossSource(sets map[string]domain.ResultSet) *phase {
	p := &phase{name: "Phase 3: Cross-Source Consistency"}

	type sighting struct {
		source   string
		category domain.Category
	}
	bySpecies := map[string][]sighting{}
	for _, name := range sortedKeys(sets) {
		set := sets[name]
		for _, rec := range set.Species {
			key := canonicalName(rec.ScientificName)
			bySpecies[key] = append(bySpecies[key], sighting{source: set.DataSource, category: rec.Category})
		}
	}

	names := make([]string, 0, len(bySpecies))
	for name := range bySpecies {
		names = append(names, name)
	}
	sort.Strings(names)

	shared := 0
	for _, name := range names {
		sightings := bySpecies[name]
		if len(sightings) < 2 {
			continue
		}
		shared++
		first := sightings[0].category
		for _, s := range sightings[1:] {
			if s.category == "" || first == "" {
				continue
			}
			if s.category != first {
				p.notef("%s: %s reports %s, %s reports %s",
					name, sightings[0].source, first, s.source, s.category)
			}
		}
	}
	p.notef("%d species reported by more than one source", shared)
	return p
}

// canonicalName strips authorship so "Bombus affinis Cresson, 1863" and
// "Bombus affinis" reconcile; binomials are the first two tokens.
func canonicalName(name string) string {
	fields := strings.Fields(name)
	if len(fields) >= 2 {
		return fields[0] + " " + fields[1]
	}
	return name
}

func sortedKeys(sets map[string]domain.ResultSet) []string {
	keys := make([]string, 0, len(sets))
	for k := range sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
