package domain

import "strings"

// Category is a normalized IUCN Red List category code.
type Category string

const (
	CategoryExtinct              Category = "EX"
	CategoryExtinctInTheWild     Category = "EW"
	CategoryCriticallyEndangered Category = "CR"
	CategoryEndangered           Category = "EN"
	CategoryVulnerable           Category = "VU"
	CategoryNearThreatened       Category = "NT"

	// Outside the target set; tracked for European Red List tallies.
	CategoryLeastConcern  Category = "LC"
	CategoryDataDeficient Category = "DD"
)

// targetCategories is the fixed reporting order, most to least severe.
var targetCategories = []Category{
	CategoryExtinct,
	CategoryExtinctInTheWild,
	CategoryCriticallyEndangered,
	CategoryEndangered,
	CategoryVulnerable,
	CategoryNearThreatened,
}

// TargetCategories returns the categories collectors filter for, in the
// fixed reporting order (EX, EW, CR, EN, VU, NT). The slice is a copy.
func TargetCategories() []Category {
	out := make([]Category, len(targetCategories))
	copy(out, targetCategories)
	return out
}

// InTargetSet reports whether the category is one collectors keep.
func (c Category) InTargetSet() bool {
	for _, t := range targetCategories {
		if c == t {
			return true
		}
	}
	return false
}

// Threatened reports whether the category is threatened or near threatened
// (CR, EN, VU, NT). The extinct bands are tracked separately.
func (c Category) Threatened() bool {
	switch c {
	case CategoryCriticallyEndangered, CategoryEndangered, CategoryVulnerable, CategoryNearThreatened:
		return true
	}
	return false
}

// StatusTable maps one provider's status vocabulary to normalized categories.
// Tables are immutable after construction; Normalize never mutates state, so
// a table is safe for concurrent use.
type StatusTable struct {
	entries map[string]Category
}

// NewStatusTable builds a table from vocabulary tokens to categories.
// Keys are stored lowercase so lookups are case-insensitive.
func NewStatusTable(entries map[string]Category) StatusTable {
	m := make(map[string]Category, len(entries))
	for k, v := range entries {
		m[strings.ToLower(k)] = v
	}
	return StatusTable{entries: m}
}

// Normalize maps a raw status token to a Category. The token is trimmed and
// lowercased before lookup. Unknown tokens return ("", false); normalization
// never errors and never guesses.
func (t StatusTable) Normalize(token string) (Category, bool) {
	c, ok := t.entries[strings.ToLower(strings.TrimSpace(token))]
	return c, ok
}

// Per-provider vocabularies. Adding a provider means adding a table here;
// no existing table changes.
var (
	// INaturalistStatuses covers the free-text status names iNaturalist
	// attaches to taxa. iNaturalist mixes IUCN and NatureServe wording,
	// hence "critically imperiled" alongside "endangered".
	INaturalistStatuses = NewStatusTable(map[string]Category{
		"extinct":              CategoryExtinct,
		"extinct_in_the_wild":  CategoryExtinctInTheWild,
		"critically imperiled": CategoryCriticallyEndangered,
		"endangered":           CategoryEndangered,
		"vulnerable":           CategoryVulnerable,
		"vu":                   CategoryVulnerable,
		"near threatened":      CategoryNearThreatened,
	})

	// GBIFStatuses accepts both the two-letter codes used as query values
	// and the enum names GBIF returns in occurrence records.
	GBIFStatuses = NewStatusTable(map[string]Category{
		"EX":                    CategoryExtinct,
		"EW":                    CategoryExtinctInTheWild,
		"CR":                    CategoryCriticallyEndangered,
		"EN":                    CategoryEndangered,
		"VU":                    CategoryVulnerable,
		"NT":                    CategoryNearThreatened,
		"EXTINCT":               CategoryExtinct,
		"EXTINCT_IN_THE_WILD":   CategoryExtinctInTheWild,
		"CRITICALLY_ENDANGERED": CategoryCriticallyEndangered,
		"ENDANGERED":            CategoryEndangered,
		"VULNERABLE":            CategoryVulnerable,
		"NEAR_THREATENED":       CategoryNearThreatened,
	})

	// IUCNStatuses is the identity mapping; the v4 API already reports
	// normalized codes.
	IUCNStatuses = NewStatusTable(map[string]Category{
		"EX": CategoryExtinct,
		"EW": CategoryExtinctInTheWild,
		"CR": CategoryCriticallyEndangered,
		"EN": CategoryEndangered,
		"VU": CategoryVulnerable,
		"NT": CategoryNearThreatened,
	})

	// NatureServeRanks maps rounded conservation ranks to their closest IUCN
	// equivalents: GX presumed extinct, GH possibly extinct, G1 critically
	// imperiled, G2 imperiled, G3 vulnerable. N ranks are the national-level
	// versions of the same scale.
	NatureServeRanks = NewStatusTable(map[string]Category{
		"GX": CategoryExtinct,
		"GH": CategoryExtinctInTheWild,
		"G1": CategoryCriticallyEndangered,
		"G2": CategoryEndangered,
		"G3": CategoryVulnerable,
		"NX": CategoryExtinct,
		"NH": CategoryExtinctInTheWild,
		"N1": CategoryCriticallyEndangered,
		"N2": CategoryEndangered,
		"N3": CategoryVulnerable,
	})
)
