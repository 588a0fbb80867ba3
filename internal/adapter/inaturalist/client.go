// Package inaturalist queries the iNaturalist REST API for bee taxa that
// carry a conservation status.
package inaturalist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
	"github.com/pollinatorlab/bee-conservation-etl/internal/observability"
	"github.com/pollinatorlab/bee-conservation-etl/internal/throttle"
)

const sourceName = "inaturalist"

// TaxonResolver maps a species name to its iNaturalist taxon ID.
// An empty ID with a nil error means the name is unknown to iNaturalist.
type TaxonResolver interface {
	SpeciesTaxonID(ctx context.Context, scientificName string) (string, error)
}

// Client implements pipeline.Source against the iNaturalist v1 API.
// Species whose status token has no normalized mapping are retained with an
// empty category so raw provider vocabulary stays auditable.
type Client struct {
	httpClient *http.Client
	baseURL    string
	statuses   domain.StatusTable
	limiter    throttle.Limiter
	resolver   TaxonResolver
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an iNaturalist client. Species taxon lookups used during
// enrichment go through an LRU cache sized by cacheSize.
func NewClient(timeout time.Duration, limiter throttle.Limiter, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://api.inaturalist.org/v1",
		statuses:   domain.INaturalistStatuses,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger,
	}
	c.resolver = NewCachedResolver(resolverFunc(c.speciesTaxonID), cacheSize, metrics)
	return c
}

func (c *Client) Name() string       { return sourceName }
func (c *Client) Label() string      { return "iNaturalist" }
func (c *Client) APIVersion() string { return "" }

// ResolveFamily looks up the family's taxon ID by name.
func (c *Client) ResolveFamily(ctx context.Context, family domain.Family) (string, error) {
	params := url.Values{
		"q":         {string(family)},
		"rank":      {"family"},
		"is_active": {"true"},
	}
	var resp taxaResponse
	if err := c.get(ctx, "/taxa", params, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", fmt.Errorf("family %s not found", family)
	}
	return strconv.FormatInt(resp.Results[0].ID, 10), nil
}

// ListSpecies enumerates species under the family taxon, keeping every taxon
// that carries at least one conservation status.
func (c *Client) ListSpecies(ctx context.Context, family domain.Family, familyID string) ([]domain.SpeciesRecord, error) {
	params := url.Values{
		"taxon_id":  {familyID},
		"rank":      {"species"},
		"per_page":  {"1000"},
		"is_active": {"true"},
	}
	var resp taxaResponse
	if err := c.get(ctx, "/taxa", params, &resp); err != nil {
		return nil, err
	}

	var records []domain.SpeciesRecord
	for _, taxon := range resp.Results {
		token, ok := firstStatus(taxon)
		if !ok {
			continue
		}
		category, _ := c.statuses.Normalize(token)
		records = append(records, domain.SpeciesRecord{
			ScientificName:    taxon.Name,
			CommonName:        taxon.PreferredCommonName,
			Family:            family,
			Category:          category,
			ProviderStatus:    token,
			ProviderID:        strconv.FormatInt(taxon.ID, 10),
			Extinct:           taxon.Extinct,
			ObservationsCount: taxon.ObservationsCount,
		})
	}
	return records, nil
}

// Enrich attaches the most recent research-grade observation. The species
// taxon ID is re-resolved by name through the cached resolver because list
// results and observation queries do not always agree on synonym IDs.
func (c *Client) Enrich(ctx context.Context, rec *domain.SpeciesRecord) error {
	taxonID, err := c.resolver.SpeciesTaxonID(ctx, rec.ScientificName)
	if err != nil {
		return fmt.Errorf("resolve species taxon: %w", err)
	}
	if taxonID == "" {
		return nil
	}

	params := url.Values{
		"taxon_id":      {taxonID},
		"order":         {"desc"},
		"order_by":      {"observed_on"},
		"per_page":      {"1"},
		"quality_grade": {"research"},
	}
	var resp observationsResponse
	if err := c.get(ctx, "/observations", params, &resp); err != nil {
		return fmt.Errorf("fetch observations: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil
	}

	obs := resp.Results[0]
	occ := domain.Occurrence{
		ID:       strconv.FormatInt(obs.ID, 10),
		Date:     obs.ObservedOn,
		Location: obs.PlaceGuess,
		Observer: obs.User.Login,
		URL:      obs.URI,
	}
	occ.Latitude, occ.Longitude = splitLocation(obs.Location)

	if rec.Details == nil {
		rec.Details = &domain.Details{}
	}
	rec.Details.Occurrences = append(rec.Details.Occurrences, occ)
	return nil
}

// speciesTaxonID is the uncached lookup behind the resolver.
func (c *Client) speciesTaxonID(ctx context.Context, scientificName string) (string, error) {
	params := url.Values{
		"q":         {scientificName},
		"rank":      {"species"},
		"is_active": {"true"},
	}
	var resp taxaResponse
	if err := c.get(ctx, "/taxa", params, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return strconv.FormatInt(resp.Results[0].ID, 10), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.APIRequestDuration.WithLabelValues(sourceName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.APIRequests.WithLabelValues(sourceName, "error").Inc()
		return fmt.Errorf("inaturalist request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.APIRequests.WithLabelValues(sourceName, "http_error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("inaturalist API error: status %d: %s", resp.StatusCode, body)
	}

	c.metrics.APIRequests.WithLabelValues(sourceName, "success").Inc()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// firstStatus returns the first conservation status token attached to a
// taxon. Newer API responses carry an array; some taxa still expose only the
// singular field.
func firstStatus(t taxon) (string, bool) {
	for _, s := range t.ConservationStatuses {
		if s.StatusName != "" {
			return s.StatusName, true
		}
	}
	if t.ConservationStatus != nil && t.ConservationStatus.StatusName != "" {
		return t.ConservationStatus.StatusName, true
	}
	return "", false
}

// splitLocation parses iNaturalist's "lat,lon" location string.
func splitLocation(loc string) (*float64, *float64) {
	parts := strings.SplitN(loc, ",", 2)
	if len(parts) != 2 {
		return nil, nil
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return nil, nil
	}
	return &lat, &lon
}

type resolverFunc func(ctx context.Context, scientificName string) (string, error)

func (f resolverFunc) SpeciesTaxonID(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// iNaturalist API response types.

type taxaResponse struct {
	Results []taxon `json:"results"`
}

type taxon struct {
	ID                   int64                `json:"id"`
	Name                 string               `json:"name"`
	PreferredCommonName  string               `json:"preferred_common_name"`
	ObservationsCount    int                  `json:"observations_count"`
	Extinct              bool                 `json:"extinct"`
	ConservationStatus   *conservationStatus  `json:"conservation_status"`
	ConservationStatuses []conservationStatus `json:"conservation_statuses"`
}

type conservationStatus struct {
	StatusName string `json:"status_name"`
}

type observationsResponse struct {
	Results []observation `json:"results"`
}

type observation struct {
	ID         int64  `json:"id"`
	ObservedOn string `json:"observed_on"`
	PlaceGuess string `json:"place_guess"`
	Location   string `json:"location"` // "lat,lon"
	URI        string `json:"uri"`
	User       struct {
		Login string `json:"login"`
	} `json:"user"`
}
