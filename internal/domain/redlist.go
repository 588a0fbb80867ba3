package domain

import (
	"math"
	"sort"
	"time"
)

// RedlistRecord is one species row from the European Red List of Bees
// Appendix 1 table. Family stays a raw string because the table prints
// uppercase section headers (ANDRENIDAE) and the row text is kept verbatim.
type RedlistRecord struct {
	ScientificName string `json:"scientific_name"`
	Family         string `json:"family"`
	EuropeStatus   string `json:"iucn_europe_status"`
	EU27Status     string `json:"iucn_eu_27_status"`
	EndemicEurope  bool   `json:"endemic_to_europe"`
	EndemicEU27    bool   `json:"endemic_to_eu27"`
}

// ConservationConcern reports whether the Europe-wide status is threatened
// or near threatened (CR, EN, VU, NT).
func (r RedlistRecord) ConservationConcern() bool {
	return Category(r.EuropeStatus).Threatened()
}

// FamilyBreakdown tallies one family's Europe-wide statuses. Total counts
// only tallied rows (threatened + LC + DD); regionally extinct and
// not-applicable rows appear in the species list but not here.
type FamilyBreakdown struct {
	Family           string  `json:"family"`
	Total            int     `json:"total"`
	Threatened       int     `json:"threatened"`
	LeastConcern     int     `json:"least_concern"`
	DataDeficient    int     `json:"data_deficient"`
	PctThreatened    float64 `json:"pct_threatened"`
	PctLeastConcern  float64 `json:"pct_least_concern"`
	PctDataDeficient float64 `json:"pct_data_deficient"`
}

// BuildBreakdowns groups records by family and computes status tallies,
// sorted by family name. Percentages are floored to one decimal so the three
// shares can never sum above 100 regardless of the count distribution.
func BuildBreakdowns(records []RedlistRecord) []FamilyBreakdown {
	byFamily := make(map[string]*FamilyBreakdown)
	for _, r := range records {
		b, ok := byFamily[r.Family]
		if !ok {
			b = &FamilyBreakdown{Family: r.Family}
			byFamily[r.Family] = b
		}
		switch {
		case r.ConservationConcern():
			b.Threatened++
		case r.EuropeStatus == string(CategoryLeastConcern):
			b.LeastConcern++
		case r.EuropeStatus == string(CategoryDataDeficient):
			b.DataDeficient++
		}
	}

	out := make([]FamilyBreakdown, 0, len(byFamily))
	for _, b := range byFamily {
		b.Total = b.Threatened + b.LeastConcern + b.DataDeficient
		if b.Total > 0 {
			b.PctThreatened = pct(b.Threatened, b.Total)
			b.PctLeastConcern = pct(b.LeastConcern, b.Total)
			b.PctDataDeficient = pct(b.DataDeficient, b.Total)
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Family < out[j].Family })
	return out
}

// pct floors to one decimal place. Flooring rather than rounding keeps the
// sum of shares at or below 100.
func pct(count, total int) float64 {
	return math.Floor(float64(count)/float64(total)*1000) / 10
}

// RedlistDocument is the JSON output of a European Red List parse run.
type RedlistDocument struct {
	DataSource      string            `json:"data_source"`
	Reference       string            `json:"reference"`
	PDFURL          string            `json:"pdf_url"`
	CollectionDate  string            `json:"collection_date"`
	GeographicScope string            `json:"geographic_scope"`
	Note            string            `json:"note"`
	TotalSpecies    int               `json:"total_species"`
	EndemicEurope   int               `json:"endemic_to_europe_count"`
	EndemicEU27     int               `json:"endemic_to_eu27_count"`
	Species         []RedlistRecord   `json:"species"`
	FamilyBreakdown []FamilyBreakdown `json:"family_breakdown"`
}

// NewRedlistDocument assembles the output document from parsed rows.
// TotalSpecies and the endemic counts are derived, mirroring the
// total_species == len(species) invariant of collector documents.
func NewRedlistDocument(records []RedlistRecord) RedlistDocument {
	if records == nil {
		records = []RedlistRecord{}
	}
	doc := RedlistDocument{
		DataSource:      "European Red List of Bees - Appendix 1",
		Reference:       "Nieto et al. 2014",
		PDFURL:          "https://portals.iucn.org/library/sites/library/files/documents/RL-4-019.pdf",
		CollectionDate:  clock.Now().UTC().Format(time.RFC3339),
		GeographicScope: "Europe",
		Note:            "All assessed species from Appendix 1; threatened tallies cover CR, EN, VU and NT",
		TotalSpecies:    len(records),
		Species:         records,
		FamilyBreakdown: BuildBreakdowns(records),
	}
	for _, r := range records {
		if r.EndemicEurope {
			doc.EndemicEurope++
		}
		if r.EndemicEU27 {
			doc.EndemicEU27++
		}
	}
	return doc
}
