// Package natureserve queries the NatureServe Explorer API for imperiled
// bee species.
//
// Listing is a POST search filtered to the five global ranks that map onto
// the IUCN-style target set (GX, GH, G1, G2, G3), scoped to the family via
// scientific taxonomy criteria. Pages are fetched until a short page.
package natureserve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
	"github.com/pollinatorlab/bee-conservation-etl/internal/observability"
	"github.com/pollinatorlab/bee-conservation-etl/internal/throttle"
)

const sourceName = "natureserve"

// searchRanks are the global ranks requested from the search endpoint,
// extinct to vulnerable.
var searchRanks = []string{"G1", "G2", "G3", "GX", "GH"}

// Client implements pipeline.Source against the NatureServe Explorer API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	ranks      domain.StatusTable
	pageSize   int
	limiter    throttle.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a NatureServe Explorer client.
func NewClient(timeout time.Duration, pageSize int, limiter throttle.Limiter, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://explorer.natureserve.org/api",
		ranks:      domain.NatureServeRanks,
		pageSize:   pageSize,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger,
	}
}

func (c *Client) Name() string       { return sourceName }
func (c *Client) Label() string      { return "NatureServe Explorer" }
func (c *Client) APIVersion() string { return "" }

// ResolveFamily is the identity resolution: the search body carries the
// family name as a taxonomy criterion.
func (c *Client) ResolveFamily(_ context.Context, family domain.Family) (string, error) {
	return string(family), nil
}

// ListSpecies pages through the species search, keeping results whose
// rounded global rank maps into the target set.
func (c *Client) ListSpecies(ctx context.Context, family domain.Family, familyID string) ([]domain.SpeciesRecord, error) {
	var records []domain.SpeciesRecord
	for page := 0; ; page++ {
		resp, err := c.searchPage(ctx, familyID, page)
		if err != nil {
			// Page zero failing means no data at all for the family;
			// a later page failing loses only the tail.
			if page == 0 {
				return nil, err
			}
			c.logger.Warn("search page failed, keeping earlier pages",
				"family", family, "page", page, "error", err)
			return records, nil
		}

		for _, result := range resp.Results {
			category, ok := c.ranks.Normalize(result.RoundedGRank)
			if !ok {
				continue
			}
			records = append(records, domain.SpeciesRecord{
				ScientificName: result.ScientificName,
				CommonName:     result.PrimaryCommonName,
				Family:         family,
				Category:       category,
				ProviderStatus: result.RoundedGRank,
				ProviderID:     result.UniqueID,
			})
		}

		if len(resp.Results) < c.pageSize {
			return records, nil
		}
	}
}

func (c *Client) searchPage(ctx context.Context, familyName string, page int) (*searchResponse, error) {
	criteria := make([]statusCriterion, 0, len(searchRanks))
	for _, rank := range searchRanks {
		criteria = append(criteria, statusCriterion{ParamType: "globalRank", GlobalRank: rank})
	}
	body := searchRequest{
		CriteriaType:     "species",
		TextCriteria:     []any{},
		StatusCriteria:   criteria,
		LocationCriteria: []any{},
		PagingOptions:    pagingOptions{Page: page, RecordsPerPage: c.pageSize},
		SpeciesTaxonomyCriteria: []taxonomyCriterion{{
			ParamType:          "scientificTaxonomy",
			Level:              "family",
			ScientificTaxonomy: familyName,
			Kingdom:            "Animalia",
		}},
	}

	var resp searchResponse
	if err := c.post(ctx, "/data/speciesSearch", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Enrich fetches the full taxon document by element UID and attaches common
// name, full rank, national ranks, and the taxon's own IUCN block.
func (c *Client) Enrich(ctx context.Context, rec *domain.SpeciesRecord) error {
	if rec.ProviderID == "" {
		return nil
	}

	var taxon taxonResponse
	if err := c.get(ctx, "/data/taxon/"+url.PathEscape(rec.ProviderID), &taxon); err != nil {
		return fmt.Errorf("fetch taxon %s: %w", rec.ProviderID, err)
	}

	if rec.CommonName == "" {
		rec.CommonName = taxon.PrimaryCommonName
	}

	assessment := map[string]any{
		"global_rank":      taxon.RoundedGRank,
		"global_rank_full": taxon.GRank,
		"last_modified":    taxon.LastModified,
		"ns_url":           "https://explorer.natureserve.org" + taxon.NsxURL,
	}
	if len(taxon.IUCN) > 0 {
		assessment["iucn"] = taxon.IUCN
	}
	if ranks := nationalRanks(taxon, c.ranks); len(ranks) > 0 {
		assessment["national_ranks"] = ranks
	}

	if rec.Details == nil {
		rec.Details = &domain.Details{}
	}
	rec.Details.Assessment = assessment
	return nil
}

// nationalRanks extracts per-nation ranks that fall in the target set.
func nationalRanks(taxon taxonResponse, table domain.StatusTable) []map[string]any {
	var ranks []map[string]any
	for _, national := range taxon.ElementNationals {
		category, ok := table.Normalize(national.RoundedNRank)
		if !ok {
			continue
		}
		ranks = append(ranks, map[string]any{
			"nation":    national.Nation.NameEn,
			"rank":      national.RoundedNRank,
			"full_rank": national.NRank,
			"status":    string(category),
		})
	}
	return ranks
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal search body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.APIRequestDuration.WithLabelValues(sourceName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.APIRequests.WithLabelValues(sourceName, "error").Inc()
		return fmt.Errorf("natureserve request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.APIRequests.WithLabelValues(sourceName, "http_error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("natureserve API error: status %d: %s", resp.StatusCode, body)
	}

	c.metrics.APIRequests.WithLabelValues(sourceName, "success").Inc()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// NatureServe API request and response types.

type searchRequest struct {
	CriteriaType            string              `json:"criteriaType"`
	TextCriteria            []any               `json:"textCriteria"`
	StatusCriteria          []statusCriterion   `json:"statusCriteria"`
	LocationCriteria        []any               `json:"locationCriteria"`
	PagingOptions           pagingOptions       `json:"pagingOptions"`
	RecordSubtypeCriteria   any                 `json:"recordSubtypeCriteria"`
	ModifiedSince           any                 `json:"modifiedSince"`
	LocationOptions         any                 `json:"locationOptions"`
	ClassificationOptions   any                 `json:"classificationOptions"`
	SpeciesTaxonomyCriteria []taxonomyCriterion `json:"speciesTaxonomyCriteria"`
}

type statusCriterion struct {
	ParamType  string `json:"paramType"`
	GlobalRank string `json:"globalRank"`
}

type pagingOptions struct {
	Page           int `json:"page"`
	RecordsPerPage int `json:"recordsPerPage"`
}

type taxonomyCriterion struct {
	ParamType          string `json:"paramType"`
	Level              string `json:"level"`
	ScientificTaxonomy string `json:"scientificTaxonomy"`
	Kingdom            string `json:"kingdom"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	UniqueID          string `json:"uniqueId"`
	ScientificName    string `json:"scientificName"`
	PrimaryCommonName string `json:"primaryCommonName"`
	RoundedGRank      string `json:"roundedGRank"`
}

type taxonResponse struct {
	UniqueID          string            `json:"uniqueId"`
	ScientificName    string            `json:"scientificName"`
	PrimaryCommonName string            `json:"primaryCommonName"`
	RoundedGRank      string            `json:"roundedGRank"`
	GRank             string            `json:"grank"`
	IUCN              map[string]any    `json:"iucn"`
	LastModified      string            `json:"lastModified"`
	NsxURL            string            `json:"nsxUrl"`
	ElementNationals  []elementNational `json:"elementNationals"`
}

type elementNational struct {
	Nation struct {
		NameEn string `json:"nameEn"`
	} `json:"nation"`
	NRank        string `json:"nrank"`
	RoundedNRank string `json:"roundedNRank"`
}
