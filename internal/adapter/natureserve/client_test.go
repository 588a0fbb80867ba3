package natureserve

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
	"github.com/pollinatorlab/bee-conservation-etl/internal/observability"
	"github.com/pollinatorlab/bee-conservation-etl/internal/throttle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string, pageSize int) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		ranks:      domain.NatureServeRanks,
		pageSize:   pageSize,
		limiter:    throttle.None{},
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestResolveFamily_IsIdentity(t *testing.T) {
	c := testClient("http://unused", 20)
	id, err := c.ResolveFamily(context.Background(), domain.FamilyApidae)
	require.NoError(t, err)
	assert.Equal(t, "Apidae", id)
}

func TestListSpecies_PagesUntilShortPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/data/speciesSearch", r.URL.Path)

		var body searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "species", body.CriteriaType)
		assert.Len(t, body.StatusCriteria, len(searchRanks))
		require.Len(t, body.SpeciesTaxonomyCriteria, 1)
		assert.Equal(t, "family", body.SpeciesTaxonomyCriteria[0].Level)
		assert.Equal(t, "Apidae", body.SpeciesTaxonomyCriteria[0].ScientificTaxonomy)
		assert.Equal(t, 2, body.PagingOptions.RecordsPerPage)

		switch body.PagingOptions.Page {
		case 0:
			_, _ = w.Write([]byte(`{"results":[
				{"uniqueId":"ELEMENT_GLOBAL.2.116913","scientificName":"Bombus franklini",
				 "primaryCommonName":"Franklin's Bumble Bee","roundedGRank":"G1"},
				{"uniqueId":"ELEMENT_GLOBAL.2.999999","scientificName":"Bombus impatiens",
				 "roundedGRank":"G5"}
			]}`))
		case 1:
			_, _ = w.Write([]byte(`{"results":[
				{"uniqueId":"ELEMENT_GLOBAL.2.120077","scientificName":"Epeoloides pilosulus",
				 "primaryCommonName":"Macropis Cuckoo Bee","roundedGRank":"G1"}
			]}`))
		default:
			t.Errorf("unexpected page %d requested", body.PagingOptions.Page)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL, 2)
	records, err := c.ListSpecies(context.Background(), domain.FamilyApidae, "Apidae")
	require.NoError(t, err)
	require.Len(t, records, 2, "G5 falls outside the target ranks")

	assert.Equal(t, "Bombus franklini", records[0].ScientificName)
	assert.Equal(t, domain.CategoryCriticallyEndangered, records[0].Category)
	assert.Equal(t, "G1", records[0].ProviderStatus)
	assert.Equal(t, "ELEMENT_GLOBAL.2.116913", records[0].ProviderID)
	assert.Equal(t, "Epeoloides pilosulus", records[1].ScientificName)
}

func TestListSpecies_PageZeroFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 20)
	_, err := c.ListSpecies(context.Background(), domain.FamilyApidae, "Apidae")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestListSpecies_LaterPageFailureKeepsEarlierPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.PagingOptions.Page > 0 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"results":[
			{"uniqueId":"A","scientificName":"Bombus franklini","roundedGRank":"G1"},
			{"uniqueId":"B","scientificName":"Bombus suckleyi","roundedGRank":"G2"}
		]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 2)
	records, err := c.ListSpecies(context.Background(), domain.FamilyApidae, "Apidae")
	require.NoError(t, err, "a failed tail page loses only the tail")
	assert.Len(t, records, 2)
}

func TestEnrich_AttachesTaxonDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/taxon/ELEMENT_GLOBAL.2.116913", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"uniqueId":"ELEMENT_GLOBAL.2.116913",
			"scientificName":"Bombus franklini",
			"primaryCommonName":"Franklin's Bumble Bee",
			"roundedGRank":"G1","grank":"G1",
			"iucn":{"iucnTaxonId":"135295","category":"CR"},
			"lastModified":"2024-11-02T09:12:44.000Z",
			"nsxUrl":"/Taxon/ELEMENT_GLOBAL.2.116913/Bombus_franklini",
			"elementNationals":[
				{"nation":{"nameEn":"United States"},"nrank":"N1","roundedNRank":"N1"},
				{"nation":{"nameEn":"Canada"},"nrank":"N5","roundedNRank":"N5"}
			]
		}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 20)
	rec := domain.SpeciesRecord{
		ScientificName: "Bombus franklini",
		Family:         domain.FamilyApidae,
		Category:       domain.CategoryCriticallyEndangered,
		ProviderStatus: "G1",
		ProviderID:     "ELEMENT_GLOBAL.2.116913",
	}
	require.NoError(t, c.Enrich(context.Background(), &rec))

	assert.Equal(t, "Franklin's Bumble Bee", rec.CommonName)
	require.NotNil(t, rec.Details)
	assessment := rec.Details.Assessment
	assert.Equal(t, "G1", assessment["global_rank"])
	assert.Equal(t, "https://explorer.natureserve.org/Taxon/ELEMENT_GLOBAL.2.116913/Bombus_franklini", assessment["ns_url"])
	assert.NotNil(t, assessment["iucn"])

	ranks, ok := assessment["national_ranks"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, ranks, 1, "N5 falls outside the target ranks")
	assert.Equal(t, "United States", ranks[0]["nation"])
	assert.Equal(t, "CR", ranks[0]["status"])
}

func TestEnrich_NoProviderIDIsNoop(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := testClient(srv.URL, 20)
	rec := domain.SpeciesRecord{ScientificName: "Bombus franklini", Family: domain.FamilyApidae}
	require.NoError(t, c.Enrich(context.Background(), &rec))
	assert.Zero(t, calls)
	assert.Nil(t, rec.Details)
}

func TestSearchRanksCoverTargetBands(t *testing.T) {
	for _, rank := range searchRanks {
		category, ok := domain.NatureServeRanks.Normalize(rank)
		require.True(t, ok, "search rank %s must normalize", rank)
		assert.True(t, category.InTargetSet(), "rank "+rank+" maps to "+strconv.Quote(string(category)))
	}
}
