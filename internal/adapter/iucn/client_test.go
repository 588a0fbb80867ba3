package iucn

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
	"github.com/pollinatorlab/bee-conservation-etl/internal/observability"
	"github.com/pollinatorlab/bee-conservation-etl/internal/throttle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

func testClient(baseURL string) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		statuses:   domain.IUCNStatuses,
		limiter:    throttle.None{},
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestResolveFamily_IsIdentity(t *testing.T) {
	c := testClient("http://unused")
	id, err := c.ResolveFamily(context.Background(), domain.FamilyApidae)
	require.NoError(t, err)
	assert.Equal(t, "APIDAE", id)
}

func TestListSpecies_FiltersToTargetSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/taxa/search", r.URL.Path)
		assert.Equal(t, "APIDAE", r.URL.Query().Get("taxa"))
		assert.Equal(t, testToken, r.URL.Query().Get("token"))

		_, _ = w.Write([]byte(`{"results":[
			{"scientific_name":"Bombus fraternus","main_common_name":"Southern Plains Bumble Bee","category":"EN"},
			{"scientific_name":"Bombus impatiens","main_common_name":"Common Eastern Bumble Bee","category":"LC"},
			{"scientific_name":"Bombus obscurus","category":"NE"}
		]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	records, err := c.ListSpecies(context.Background(), domain.FamilyApidae, "APIDAE")
	require.NoError(t, err)
	require.Len(t, records, 1, "LC and unassessed species are filtered out")

	assert.Equal(t, "Bombus fraternus", records[0].ScientificName)
	assert.Equal(t, "Southern Plains Bumble Bee", records[0].CommonName)
	assert.Equal(t, domain.CategoryEndangered, records[0].Category)
	assert.Equal(t, "EN", records[0].ProviderStatus)
}

func TestEnrich_AttachesAllDetailBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testToken, r.URL.Query().Get("token"))
		switch r.URL.Path {
		case "/species/Bombus fraternus":
			_, _ = w.Write([]byte(`{"result":{"population_trend":"decreasing","assessment_date":"2014-08-21"}}`))
		case "/species/Bombus fraternus/threats":
			_, _ = w.Write([]byte(`{"result":[{"code":"2.1","title":"Annual & perennial non-timber crops"}]}`))
		case "/species/Bombus fraternus/habitats":
			_, _ = w.Write([]byte(`{"result":[{"code":"4.4","habitat":"Temperate Grassland"}]}`))
		case "/species/Bombus fraternus/conservation_measures":
			_, _ = w.Write([]byte(`{"result":[{"code":"1.1","title":"Site/area protection"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	rec := domain.SpeciesRecord{ScientificName: "Bombus fraternus", Family: domain.FamilyApidae}
	require.NoError(t, c.Enrich(context.Background(), &rec))

	require.NotNil(t, rec.Details)
	assert.Equal(t, "decreasing", rec.Details.Assessment["population_trend"])
	require.Len(t, rec.Details.Threats, 1)
	assert.Equal(t, "2.1", rec.Details.Threats[0]["code"])
	require.Len(t, rec.Details.Habitats, 1)
	require.Len(t, rec.Details.ConservationMeasures, 1)
}

func TestEnrich_SubFetchesAreIndependent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/species/Bombus fraternus/threats":
			_, _ = w.Write([]byte(`{"result":[{"code":"2.1"}]}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	rec := domain.SpeciesRecord{ScientificName: "Bombus fraternus", Family: domain.FamilyApidae}
	require.NoError(t, c.Enrich(context.Background(), &rec), "failed sub-fetches are absorbed")

	require.NotNil(t, rec.Details)
	assert.Nil(t, rec.Details.Assessment)
	require.Len(t, rec.Details.Threats, 1)
	assert.Nil(t, rec.Details.Habitats)
}

func TestEnrich_AllDetailFetchesFailedLeavesRecordBare(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	rec := domain.SpeciesRecord{ScientificName: "Bombus fraternus", Family: domain.FamilyApidae}
	require.NoError(t, c.Enrich(context.Background(), &rec))
	assert.Nil(t, rec.Details)
}

func TestGet_UnauthorizedMentionsTokenVariable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token not valid!"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.ListSpecies(context.Background(), domain.FamilyApidae, "APIDAE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BEE_IUCN_TOKEN")
}
