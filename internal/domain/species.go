package domain

import "time"

// SpeciesRecord is one bee species as reported by a single data source.
// Fields beyond the name, family, and status are provider-dependent and
// omitted from JSON when empty.
type SpeciesRecord struct {
	ScientificName string   `json:"scientific_name"`
	CommonName     string   `json:"common_name,omitempty"`
	Family         Family   `json:"family"`
	Category       Category `json:"category,omitempty"`

	// ProviderStatus is the source's own status token, verbatim, kept for
	// audit. Records whose token has no normalized mapping carry only this.
	ProviderStatus string `json:"provider_status,omitempty"`

	// ProviderID identifies the taxon in the source system: an iNaturalist
	// taxon ID, a GBIF species key, or a NatureServe element UID.
	ProviderID string `json:"provider_id,omitempty"`

	Extinct           bool `json:"extinct,omitempty"`
	ObservationsCount int  `json:"observations_count,omitempty"`
	TotalOccurrences  int  `json:"total_occurrences,omitempty"`

	Details *Details `json:"details,omitempty"`
}

// HasOccurrenceData reports whether any source recorded observations or
// occurrence records for this species.
func (r SpeciesRecord) HasOccurrenceData() bool {
	return r.ObservationsCount > 0 || r.TotalOccurrences > 0 ||
		(r.Details != nil && len(r.Details.Occurrences) > 0)
}

// Details holds optional per-species enrichment. Assessment, threat, habitat,
// and measure payloads mirror the source response bodies, so they stay
// loosely structured.
type Details struct {
	Assessment           map[string]any   `json:"assessment,omitempty"`
	Threats              []map[string]any `json:"threats,omitempty"`
	Habitats             []map[string]any `json:"habitats,omitempty"`
	ConservationMeasures []map[string]any `json:"conservation_measures,omitempty"`
	Occurrences          []Occurrence     `json:"occurrences,omitempty"`
}

// Occurrence is a single observation or collection record. Coordinates are
// pointers because many museum records carry none; 0,0 is a real (if wet)
// location and must stay distinguishable from absent.
type Occurrence struct {
	ID            string   `json:"id,omitempty"`
	Date          string   `json:"date,omitempty"`
	Year          int      `json:"year,omitempty"`
	Location      string   `json:"location,omitempty"`
	Country       string   `json:"country,omitempty"`
	StateProvince string   `json:"state_province,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	BasisOfRecord string   `json:"basis_of_record,omitempty"`
	Observer      string   `json:"observer,omitempty"`
	Dataset       string   `json:"dataset,omitempty"`
	Institution   string   `json:"institution,omitempty"`
	URL           string   `json:"url,omitempty"`
}

// ResultSet is the JSON document a collection run writes for one source.
type ResultSet struct {
	CollectionDate string          `json:"collection_date"`
	DataSource     string          `json:"data_source"`
	APIVersion     string          `json:"api_version,omitempty"`
	RunID          string          `json:"run_id,omitempty"`
	TotalSpecies   int             `json:"total_species"`
	Species        []SpeciesRecord `json:"species"`
}

// NewResultSet assembles a result document, stamping the collection date from
// the package clock. TotalSpecies is derived from the records, never set by
// callers, so the total_species == len(species) invariant holds by
// construction. A nil slice becomes an empty one: zero-record runs still
// produce valid documents.
func NewResultSet(dataSource, apiVersion, runID string, species []SpeciesRecord) ResultSet {
	if species == nil {
		species = []SpeciesRecord{}
	}
	return ResultSet{
		CollectionDate: clock.Now().UTC().Format(time.RFC3339),
		DataSource:     dataSource,
		APIVersion:     apiVersion,
		RunID:          runID,
		TotalSpecies:   len(species),
		Species:        species,
	}
}
