// Package gbif queries the GBIF occurrence API for threatened bee species.
//
// GBIF has no "list threatened species" endpoint, so listing goes through
// faceted occurrence search: one query per IUCN category with the
// speciesKey facet returns every species that has at least one occurrence
// record in that category, along with its occurrence count.
package gbif

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
	"github.com/pollinatorlab/bee-conservation-etl/internal/observability"
	"github.com/pollinatorlab/bee-conservation-etl/internal/throttle"
)

const sourceName = "gbif"

// Client implements pipeline.Source against the GBIF v1 API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	statuses   domain.StatusTable
	limiter    throttle.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger

	mu         sync.Mutex
	familyKeys map[domain.Family]string
}

// NewClient creates a GBIF client.
func NewClient(timeout time.Duration, limiter throttle.Limiter, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://api.gbif.org/v1",
		statuses:   domain.GBIFStatuses,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger,
		familyKeys: make(map[domain.Family]string),
	}
}

func (c *Client) Name() string       { return sourceName }
func (c *Client) Label() string      { return "GBIF" }
func (c *Client) APIVersion() string { return "" }

// ResolveFamily matches the family name against the GBIF backbone taxonomy
// and returns its usage key. Keys are cached for the duration of the run.
func (c *Client) ResolveFamily(ctx context.Context, family domain.Family) (string, error) {
	c.mu.Lock()
	key, ok := c.familyKeys[family]
	c.mu.Unlock()
	if ok {
		return key, nil
	}

	params := url.Values{
		"name":    {string(family)},
		"rank":    {"FAMILY"},
		"kingdom": {"Animalia"},
	}
	var resp matchResponse
	if err := c.get(ctx, "/species/match", params, &resp); err != nil {
		return "", err
	}
	if resp.MatchType != "EXACT" && resp.MatchType != "FUZZY" {
		return "", fmt.Errorf("no backbone match for family %s (matchType %s)", family, resp.MatchType)
	}

	key = strconv.FormatInt(resp.UsageKey, 10)
	c.mu.Lock()
	c.familyKeys[family] = key
	c.mu.Unlock()
	return key, nil
}

// ListSpecies facets occurrences per IUCN category to enumerate threatened
// species in the family. One category's failure is absorbed; the remaining
// categories are still queried.
func (c *Client) ListSpecies(ctx context.Context, family domain.Family, familyID string) ([]domain.SpeciesRecord, error) {
	var records []domain.SpeciesRecord
	for _, category := range domain.TargetCategories() {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}
		found, err := c.speciesForCategory(ctx, family, familyID, category)
		if err != nil {
			c.logger.Warn("category facet query failed, continuing with remaining categories",
				"family", family, "category", category, "error", err)
			continue
		}
		records = append(records, found...)
	}
	return records, nil
}

func (c *Client) speciesForCategory(ctx context.Context, family domain.Family, familyID string, category domain.Category) ([]domain.SpeciesRecord, error) {
	params := url.Values{
		"familyKey":           {familyID},
		"iucnRedListCategory": {string(category)},
		"facet":               {"speciesKey"},
		"facetLimit":          {"10000"},
		"limit":               {"0"},
	}
	var resp occurrenceSearchResponse
	if err := c.get(ctx, "/occurrence/search", params, &resp); err != nil {
		return nil, err
	}

	var records []domain.SpeciesRecord
	for _, facet := range resp.Facets {
		if facet.Field != "SPECIES_KEY" {
			continue
		}
		for _, count := range facet.Counts {
			name, err := c.speciesName(ctx, count.Name)
			if err != nil {
				c.logger.Warn("species key lookup failed, skipping species",
					"species_key", count.Name, "error", err)
				continue
			}
			records = append(records, domain.SpeciesRecord{
				ScientificName:   name,
				Family:           family,
				Category:         category,
				ProviderStatus:   string(category),
				ProviderID:       count.Name,
				TotalOccurrences: count.Count,
			})
		}
	}
	return records, nil
}

// speciesName resolves a backbone species key to its scientific name.
func (c *Client) speciesName(ctx context.Context, speciesKey string) (string, error) {
	var resp speciesResponse
	if err := c.get(ctx, "/species/"+url.PathEscape(speciesKey), nil, &resp); err != nil {
		return "", err
	}
	if resp.ScientificName == "" {
		return "", fmt.Errorf("species %s has no scientific name", speciesKey)
	}
	return resp.ScientificName, nil
}

// Enrich fetches the species' georeferenced occurrence records and keeps the
// five most recent that are not human observations; those come from
// iNaturalist, which is collected separately.
func (c *Client) Enrich(ctx context.Context, rec *domain.SpeciesRecord) error {
	params := url.Values{
		"scientificName": {rec.ScientificName},
		"hasCoordinate":  {"true"},
		"limit":          {"20"},
		"offset":         {"0"},
	}
	if rec.ProviderStatus != "" {
		params.Set("iucnRedListCategory", rec.ProviderStatus)
	}
	var resp occurrenceSearchResponse
	if err := c.get(ctx, "/occurrence/search", params, &resp); err != nil {
		return fmt.Errorf("search occurrences: %w", err)
	}

	rec.TotalOccurrences = resp.Count

	var kept []domain.Occurrence
	for _, occ := range resp.Results {
		if occ.BasisOfRecord == "HUMAN_OBSERVATION" {
			continue
		}
		kept = append(kept, domain.Occurrence{
			ID:            strconv.FormatInt(occ.Key, 10),
			Date:          occ.EventDate,
			Year:          occ.Year,
			Country:       occ.Country,
			StateProvince: occ.StateProvince,
			Location:      occ.Locality,
			Latitude:      occ.DecimalLatitude,
			Longitude:     occ.DecimalLongitude,
			BasisOfRecord: occ.BasisOfRecord,
			Dataset:       occ.DatasetKey,
			Institution:   occ.InstitutionCode,
		})
		if len(kept) == 5 {
			break
		}
	}
	if len(kept) == 0 {
		return nil
	}

	if rec.Details == nil {
		rec.Details = &domain.Details{}
	}
	rec.Details.Occurrences = append(rec.Details.Occurrences, kept...)
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.APIRequestDuration.WithLabelValues(sourceName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.APIRequests.WithLabelValues(sourceName, "error").Inc()
		return fmt.Errorf("gbif request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.APIRequests.WithLabelValues(sourceName, "http_error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gbif API error: status %d: %s", resp.StatusCode, body)
	}

	c.metrics.APIRequests.WithLabelValues(sourceName, "success").Inc()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GBIF API response types.

type matchResponse struct {
	UsageKey  int64  `json:"usageKey"`
	MatchType string `json:"matchType"`
}

type speciesResponse struct {
	ScientificName string `json:"scientificName"`
}

type occurrenceSearchResponse struct {
	Count   int          `json:"count"`
	Results []occurrence `json:"results"`
	Facets  []facet      `json:"facets"`
}

type facet struct {
	Field  string       `json:"field"`
	Counts []facetCount `json:"counts"`
}

type facetCount struct {
	Name  string `json:"name"` // species key as string
	Count int    `json:"count"`
}

type occurrence struct {
	Key              int64    `json:"key"`
	EventDate        string   `json:"eventDate"`
	Year             int      `json:"year"`
	Country          string   `json:"country"`
	StateProvince    string   `json:"stateProvince"`
	Locality         string   `json:"locality"`
	DecimalLatitude  *float64 `json:"decimalLatitude"`
	DecimalLongitude *float64 `json:"decimalLongitude"`
	BasisOfRecord    string   `json:"basisOfRecord"`
	DatasetKey       string   `json:"datasetKey"`
	InstitutionCode  string   `json:"institutionCode"`
}
