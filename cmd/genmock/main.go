// Command genmock generates deterministic mock result documents for every
// source, plus a European Red List document, through the real domain
// constructors. The fixtures feed cmd/validate and local development
// without hitting any remote API.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data/mock
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
	"github.com/pollinatorlab/bee-conservation-etl/internal/report"
)

// mockRunID keeps the fixtures byte-stable across regenerations.
const mockRunID = "00000000-0000-0000-0000-00000000beef"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "", "directory to write mock documents into")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out-dir")
	}

	// A fixed clock makes collection_date reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	docs := map[string]domain.ResultSet{
		"endangered_bees.json":   domain.NewResultSet("iNaturalist", "", mockRunID, inatSpecies()),
		"gbif_bees.json":         domain.NewResultSet("GBIF", "", mockRunID, gbifSpecies()),
		"iucn_bees.json":         domain.NewResultSet("IUCN Red List", "v4", mockRunID, iucnSpecies()),
		"natureserve_bees.json":  domain.NewResultSet("NatureServe Explorer", "", mockRunID, natureServeSpecies()),
		"empty_source_bees.json": domain.NewResultSet("Empty Source", "", mockRunID, nil),
	}
	for _, name := range []string{"endangered_bees.json", "gbif_bees.json", "iucn_bees.json", "natureserve_bees.json", "empty_source_bees.json"} {
		set := docs[name]
		if err := writeJSON(filepath.Join(*outDir, name), set); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		log.Printf("%s: %d records", name, set.TotalSpecies)
	}

	redlistDoc := domain.NewRedlistDocument(redlistSpecies())
	if err := writeJSON(filepath.Join(*outDir, "european_redlist_conservation_concern.json"), redlistDoc); err != nil {
		return fmt.Errorf("writing redlist document: %w", err)
	}
	log.Printf("european_redlist_conservation_concern.json: %d records", redlistDoc.TotalSpecies)

	report.Render(os.Stdout, docs["gbif_bees.json"])
	report.RenderRedlist(os.Stdout, redlistDoc)
	return nil
}

func floatPtr(f float64) *float64 { return &f }

// inatSpecies mirrors the shape of iNaturalist output: free-text provider
// statuses, one record left unmapped for audit, research-grade observation
// details.
func inatSpecies() []domain.SpeciesRecord {
	return []domain.SpeciesRecord{
		{
			ScientificName:    "Bombus affinis",
			CommonName:        "Rusty-patched Bumble Bee",
			Family:            domain.FamilyApidae,
			Category:          domain.CategoryCriticallyEndangered,
			ProviderStatus:    "critically imperiled",
			ProviderID:        "121517",
			ObservationsCount: 2841,
			Details: &domain.Details{
				Occurrences: []domain.Occurrence{{
					ID:        "250111222",
					Date:      "2025-05-20",
					Location:  "Madison, WI, USA",
					Latitude:  floatPtr(43.0731),
					Longitude: floatPtr(-89.4012),
					Observer:  "beewatcher",
					URL:       "https://www.inaturalist.org/observations/250111222",
				}},
			},
		},
		{
			ScientificName:    "Bombus terricola",
			CommonName:        "Yellow-banded Bumble Bee",
			Family:            domain.FamilyApidae,
			Category:          domain.CategoryVulnerable,
			ProviderStatus:    "vulnerable",
			ProviderID:        "121519",
			ObservationsCount: 9310,
		},
		{
			ScientificName:    "Megachile pluto",
			CommonName:        "Wallace's Giant Bee",
			Family:            domain.FamilyMegachilidae,
			Category:          domain.CategoryVulnerable,
			ProviderStatus:    "VU",
			ProviderID:        "335793",
			ObservationsCount: 4,
		},
		{
			// Unmapped provider vocabulary, retained for audit.
			ScientificName:    "Andrena asteris",
			Family:            domain.FamilyAndrenidae,
			ProviderStatus:    "unranked",
			ProviderID:        "199219",
			ObservationsCount: 87,
		},
	}
}

// gbifSpecies carries occurrence counts and museum-record details.
func gbifSpecies() []domain.SpeciesRecord {
	return []domain.SpeciesRecord{
		{
			ScientificName:   "Bombus affinis Cresson, 1863",
			Family:           domain.FamilyApidae,
			Category:         domain.CategoryCriticallyEndangered,
			ProviderStatus:   "CR",
			ProviderID:       "1340301",
			TotalOccurrences: 1764,
			Details: &domain.Details{
				Occurrences: []domain.Occurrence{{
					ID:            "4512345678",
					Date:          "2023-07-14T00:00:00",
					Year:          2023,
					Country:       "United States of America",
					StateProvince: "Minnesota",
					Location:      "Ramsey County",
					Latitude:      floatPtr(44.9537),
					Longitude:     floatPtr(-93.09),
					BasisOfRecord: "PRESERVED_SPECIMEN",
					Institution:   "UMSP",
				}},
			},
		},
		{
			ScientificName:   "Hylaeus anthracinus (Smith, 1853)",
			Family:           domain.FamilyColletidae,
			Category:         domain.CategoryEndangered,
			ProviderStatus:   "EN",
			ProviderID:       "1338544",
			TotalOccurrences: 112,
		},
		{
			ScientificName:   "Melitta tricincta Kirby, 1802",
			Family:           domain.FamilyMelittidae,
			Category:         domain.CategoryNearThreatened,
			ProviderStatus:   "NT",
			ProviderID:       "1346782",
			TotalOccurrences: 58,
		},
	}
}

// iucnSpecies carries assessment detail blocks.
func iucnSpecies() []domain.SpeciesRecord {
	return []domain.SpeciesRecord{
		{
			ScientificName: "Bombus fraternus",
			Family:         domain.FamilyApidae,
			Category:       domain.CategoryEndangered,
			ProviderStatus: "EN",
			Details: &domain.Details{
				Assessment: map[string]any{
					"population_trend": "decreasing",
					"assessment_date":  "2014-08-21",
				},
				Threats: []map[string]any{
					{"code": "2.1", "title": "Annual & perennial non-timber crops"},
				},
				Habitats: []map[string]any{
					{"code": "4.4", "habitat": "Temperate Grassland"},
				},
			},
		},
		{
			ScientificName: "Pharohylaeus lactiferus",
			Family:         domain.FamilyColletidae,
			Category:       domain.CategoryVulnerable,
			ProviderStatus: "VU",
		},
	}
}

// natureServeSpecies carries rank detail in the assessment block.
func natureServeSpecies() []domain.SpeciesRecord {
	return []domain.SpeciesRecord{
		{
			ScientificName: "Bombus franklini",
			CommonName:     "Franklin's Bumble Bee",
			Family:         domain.FamilyApidae,
			Category:       domain.CategoryCriticallyEndangered,
			ProviderStatus: "G1",
			ProviderID:     "ELEMENT_GLOBAL.2.116913",
			Details: &domain.Details{
				Assessment: map[string]any{
					"global_rank":      "G1",
					"global_rank_full": "G1",
					"last_modified":    "2024-11-02T09:12:44.000Z",
					"ns_url":           "https://explorer.natureserve.org/Taxon/ELEMENT_GLOBAL.2.116913",
				},
			},
		},
		{
			ScientificName: "Epeoloides pilosulus",
			CommonName:     "Macropis Cuckoo Bee",
			Family:         domain.FamilyApidae,
			Category:       domain.CategoryCriticallyEndangered,
			ProviderStatus: "G1",
			ProviderID:     "ELEMENT_GLOBAL.2.120077",
		},
	}
}

// redlistSpecies covers every tally branch: threatened, LC, DD, and the
// endemism flags.
func redlistSpecies() []domain.RedlistRecord {
	return []domain.RedlistRecord{
		{ScientificName: "Andrena labiatula", Family: "ANDRENIDAE", EuropeStatus: "DD", EU27Status: "DD"},
		{ScientificName: "Andrena stigmatica", Family: "ANDRENIDAE", EuropeStatus: "EN", EU27Status: "EN", EndemicEurope: true},
		{ScientificName: "Bombus cullumanus", Family: "APIDAE", EuropeStatus: "CR", EU27Status: "CR"},
		{ScientificName: "Bombus terrestris", Family: "APIDAE", EuropeStatus: "LC", EU27Status: "LC"},
		{ScientificName: "Bombus hyperboreus", Family: "APIDAE", EuropeStatus: "VU", EU27Status: "VU"},
		{ScientificName: "Colletes wolfi", Family: "COLLETIDAE", EuropeStatus: "NT", EU27Status: "NT", EndemicEurope: true, EndemicEU27: true},
		{ScientificName: "Dasypoda suripes", Family: "MELITTIDAE", EuropeStatus: "NT", EU27Status: "VU", EndemicEurope: true},
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
