package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTableNormalize(t *testing.T) {
	tests := []struct {
		name     string
		table    StatusTable
		token    string
		expected Category
		ok       bool
	}{
		{"inat critically imperiled", INaturalistStatuses, "critically imperiled", CategoryCriticallyEndangered, true},
		{"inat vulnerable", INaturalistStatuses, "vulnerable", CategoryVulnerable, true},
		{"inat short vu", INaturalistStatuses, "VU", CategoryVulnerable, true},
		{"inat extinct in the wild", INaturalistStatuses, "extinct_in_the_wild", CategoryExtinctInTheWild, true},
		{"inat mixed case", INaturalistStatuses, "Endangered", CategoryEndangered, true},
		{"inat surrounding spaces", INaturalistStatuses, "  near threatened ", CategoryNearThreatened, true},
		{"inat unranked unmapped", INaturalistStatuses, "unranked", "", false},
		{"inat state-level token unmapped", INaturalistStatuses, "imperiled (S2)", "", false},

		{"gbif two letter code", GBIFStatuses, "CR", CategoryCriticallyEndangered, true},
		{"gbif enum name", GBIFStatuses, "CRITICALLY_ENDANGERED", CategoryCriticallyEndangered, true},
		{"gbif lowercase enum", GBIFStatuses, "near_threatened", CategoryNearThreatened, true},
		{"gbif least concern unmapped", GBIFStatuses, "LEAST_CONCERN", "", false},
		{"gbif regionally extinct unmapped", GBIFStatuses, "REGIONALLY_EXTINCT", "", false},

		{"iucn identity", IUCNStatuses, "EN", CategoryEndangered, true},
		{"iucn data deficient unmapped", IUCNStatuses, "DD", "", false},

		{"natureserve global rank", NatureServeRanks, "G1", CategoryCriticallyEndangered, true},
		{"natureserve presumed extinct", NatureServeRanks, "GX", CategoryExtinct, true},
		{"natureserve possibly extinct", NatureServeRanks, "GH", CategoryExtinctInTheWild, true},
		{"natureserve national rank", NatureServeRanks, "N3", CategoryVulnerable, true},
		{"natureserve secure unmapped", NatureServeRanks, "G5", "", false},
		{"natureserve range rank unmapped", NatureServeRanks, "G1G2", "", false},

		{"empty token", IUCNStatuses, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := tt.table.Normalize(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, c)
		})
	}
}

// Every mapped token must land inside the normalized vocabulary; a table
// entry pointing at a typo category would silently corrupt every run.
func TestStatusTablesMapIntoKnownCategories(t *testing.T) {
	known := map[Category]bool{
		CategoryExtinct:              true,
		CategoryExtinctInTheWild:     true,
		CategoryCriticallyEndangered: true,
		CategoryEndangered:           true,
		CategoryVulnerable:           true,
		CategoryNearThreatened:       true,
		CategoryLeastConcern:         true,
		CategoryDataDeficient:        true,
	}

	tables := map[string]StatusTable{
		"inaturalist": INaturalistStatuses,
		"gbif":        GBIFStatuses,
		"iucn":        IUCNStatuses,
		"natureserve": NatureServeRanks,
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			for token, c := range table.entries {
				assert.True(t, known[c], "token %q maps to unknown category %q", token, c)
			}
		})
	}
}

func TestTargetCategories(t *testing.T) {
	t.Run("fixed order most to least severe", func(t *testing.T) {
		assert.Equal(t, []Category{"EX", "EW", "CR", "EN", "VU", "NT"}, TargetCategories())
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		cats := TargetCategories()
		cats[0] = "LC"
		assert.Equal(t, CategoryExtinct, TargetCategories()[0])
	})
}

func TestCategoryPredicates(t *testing.T) {
	for _, c := range TargetCategories() {
		assert.True(t, c.InTargetSet(), "%s should be in target set", c)
	}
	assert.False(t, CategoryLeastConcern.InTargetSet())
	assert.False(t, CategoryDataDeficient.InTargetSet())
	assert.False(t, Category("").InTargetSet())

	assert.True(t, CategoryCriticallyEndangered.Threatened())
	assert.True(t, CategoryNearThreatened.Threatened())
	assert.False(t, CategoryExtinct.Threatened())
	assert.False(t, CategoryLeastConcern.Threatened())
}

func TestNewStatusTableCopiesInput(t *testing.T) {
	src := map[string]Category{"endangered": CategoryEndangered}
	table := NewStatusTable(src)
	src["endangered"] = CategoryLeastConcern

	c, ok := table.Normalize("endangered")
	require.True(t, ok)
	assert.Equal(t, CategoryEndangered, c)
}
