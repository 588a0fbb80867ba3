// Package iucn queries the IUCN Red List v4 API for assessed bee species.
//
// Every call is token-authenticated. The API asks for a two-second gap
// between requests, which makes this the slowest of the four sources; the
// limiter is wired accordingly at startup.
package iucn

import (
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

const sourceName = "iucn"

// Client implements pipeline.Source against the IUCN Red List v4 API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	statuses   domain.StatusTable
	limiter    throttle.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an IUCN Red List client. The token is validated at
// config load; an empty token never reaches here.
func NewClient(token string, timeout time.Duration, limiter throttle.Limiter, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://api.iucnredlist.org/api/v4",
		statuses:   domain.IUCNStatuses,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger,
	}
}

func (c *Client) Name() string       { return sourceName }
func (c *Client) Label() string      { return "IUCN Red List" }
func (c *Client) APIVersion() string { return "v4" }

// ResolveFamily is the identity resolution: the taxa search endpoint takes
// the family name directly, uppercase.
func (c *Client) ResolveFamily(_ context.Context, family domain.Family) (string, error) {
	return family.Upper(), nil
}

// ListSpecies searches assessments by taxon and keeps species whose category
// falls in the target set.
func (c *Client) ListSpecies(ctx context.Context, family domain.Family, familyID string) ([]domain.SpeciesRecord, error) {
	params := url.Values{"taxa": {familyID}}
	var resp taxaSearchResponse
	if err := c.get(ctx, "/taxa/search", params, &resp); err != nil {
		return nil, err
	}

	var records []domain.SpeciesRecord
	for _, species := range resp.Results {
		category, ok := c.statuses.Normalize(species.Category)
		if !ok || !category.InTargetSet() {
			continue
		}
		records = append(records, domain.SpeciesRecord{
			ScientificName: species.ScientificName,
			CommonName:     species.MainCommonName,
			Family:         family,
			Category:       category,
			ProviderStatus: species.Category,
		})
	}
	return records, nil
}

// Enrich fetches the assessment document plus threats, habitats, and
// conservation measures. Each sub-fetch is independently optional: a failed
// one is logged and the others still attach.
func (c *Client) Enrich(ctx context.Context, rec *domain.SpeciesRecord) error {
	base := "/species/" + url.PathEscape(rec.ScientificName)
	details := &domain.Details{}

	var assessment assessmentResponse
	if err := c.get(ctx, base, nil, &assessment); err != nil {
		c.logger.Warn("assessment fetch failed", "species", rec.ScientificName, "error", err)
	} else {
		details.Assessment = assessment.Result
	}

	for _, sub := range []struct {
		path string
		dest *[]map[string]any
	}{
		{base + "/threats", &details.Threats},
		{base + "/habitats", &details.Habitats},
		{base + "/conservation_measures", &details.ConservationMeasures},
	} {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var resp detailListResponse
		if err := c.get(ctx, sub.path, nil, &resp); err != nil {
			c.logger.Warn("detail fetch failed", "species", rec.ScientificName, "endpoint", sub.path, "error", err)
			continue
		}
		*sub.dest = resp.Result
	}

	if details.Assessment == nil && details.Threats == nil &&
		details.Habitats == nil && details.ConservationMeasures == nil {
		return nil
	}
	rec.Details = details
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.APIRequestDuration.WithLabelValues(sourceName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.APIRequests.WithLabelValues(sourceName, "error").Inc()
		return fmt.Errorf("iucn request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.APIRequests.WithLabelValues(sourceName, "http_error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("iucn API error: status 401: check BEE_IUCN_TOKEN: %s", body)
		}
		return fmt.Errorf("iucn API error: status %d: %s", resp.StatusCode, body)
	}

	c.metrics.APIRequests.WithLabelValues(sourceName, "success").Inc()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IUCN API response types.

type taxaSearchResponse struct {
	Results []taxonResult `json:"results"`
}

type taxonResult struct {
	ScientificName string `json:"scientific_name"`
	MainCommonName string `json:"main_common_name"`
	Category       string `json:"category"`
}

type assessmentResponse struct {
	Result map[string]any `json:"result"`
}

type detailListResponse struct {
	Result []map[string]any `json:"result"`
}
