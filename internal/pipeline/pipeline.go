// Package pipeline runs the per-source collection loop.
//
// A Source is one provider strategy: it resolves a family to a provider
// taxon identifier, enumerates that family's species of conservation
// concern, and optionally enriches each record with detail documents.
// The loop itself is identical for every provider; only the strategy
// varies. Failures below the run level are absorbed: a family that cannot
// be resolved or listed is skipped with a warning, an enrichment failure
// keeps the record without that detail. Only context cancellation stops a
// run, and a cancelled run writes nothing.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
	"github.com/pollinatorlab/bee-conservation-etl/internal/observability"
)

// Source is the provider strategy interface implemented once per API.
type Source interface {
	// Name is the short identifier used in logs and metric labels.
	Name() string
	// Label is the data_source value stamped into the output document.
	Label() string
	// APIVersion is recorded in the output document when the provider
	// versions its API; empty otherwise.
	APIVersion() string
	// ResolveFamily returns the provider identifier for a bee family.
	// Providers that query by name return the name itself.
	ResolveFamily(ctx context.Context, family domain.Family) (string, error)
	// ListSpecies enumerates the family's species of conservation concern.
	ListSpecies(ctx context.Context, family domain.Family, familyID string) ([]domain.SpeciesRecord, error)
	// Enrich attaches optional detail documents to a record in place.
	Enrich(ctx context.Context, rec *domain.SpeciesRecord) error
}

// Sink receives the finished result document.
type Sink interface {
	Name() string
	Write(ctx context.Context, set domain.ResultSet) error
}

// Collector drives one source through the fixed family list and hands the
// accumulated result set to every sink.
type Collector struct {
	source  Source
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
	runID   string
	ready   atomic.Bool
}

// New creates a Collector for one source.
func New(source Source, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics, runID string) *Collector {
	return &Collector{
		source:  source,
		sinks:   sinks,
		logger:  logger.With("source", source.Name()),
		metrics: metrics,
		runID:   runID,
	}
}

// CheckReadiness returns nil once the collector has accumulated at least
// one record.
func (c *Collector) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("no species records collected yet")
	}
	return nil
}

// Run executes one sequential collection pass: for each of the seven bee
// families, resolve, list, and enrich. The accumulated records become a
// ResultSet which is written to every sink. Run returns the result set so
// callers can render a console summary.
func (c *Collector) Run(ctx context.Context) (domain.ResultSet, error) {
	start := time.Now()
	c.logger.Info("collection started", "run_id", c.runID)
	c.metrics.PipelineRunning.Set(1)
	defer c.metrics.PipelineRunning.Set(0)

	var records []domain.SpeciesRecord
	for _, family := range domain.Families() {
		if ctx.Err() != nil {
			c.logger.Info("collection cancelled", "reason", ctx.Err())
			return domain.ResultSet{}, ctx.Err()
		}
		records = append(records, c.collectFamily(ctx, family)...)
		if len(records) > 0 {
			c.ready.Store(true)
		}
	}
	if ctx.Err() != nil {
		c.logger.Info("collection cancelled", "reason", ctx.Err())
		return domain.ResultSet{}, ctx.Err()
	}

	set := domain.NewResultSet(c.source.Label(), c.source.APIVersion(), c.runID, records)
	c.metrics.RunDuration.WithLabelValues(c.source.Name()).Observe(time.Since(start).Seconds())

	var errs []error
	for _, sink := range c.sinks {
		if err := sink.Write(ctx, set); err != nil {
			c.logger.Error("sink write failed", "sink", sink.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		c.metrics.RecordsWritten.WithLabelValues(sink.Name()).Add(float64(set.TotalSpecies))
	}

	c.logger.Info("collection finished", "total_species", set.TotalSpecies, "duration", time.Since(start))
	return set, errors.Join(errs...)
}

// collectFamily runs resolve, list, and enrich for one family. Any resolve
// or list failure abandons the family; the rest of the run continues.
func (c *Collector) collectFamily(ctx context.Context, family domain.Family) []domain.SpeciesRecord {
	log := c.logger.With("family", family)

	familyID, err := c.source.ResolveFamily(ctx, family)
	if err != nil {
		log.Warn("family resolve failed, skipping family", "error", err)
		c.metrics.FamiliesSkipped.WithLabelValues(c.source.Name()).Inc()
		return nil
	}

	records, err := c.source.ListSpecies(ctx, family, familyID)
	if err != nil {
		log.Warn("species listing failed, skipping family", "error", err)
		c.metrics.FamiliesSkipped.WithLabelValues(c.source.Name()).Inc()
		return nil
	}
	log.Info("family listed", "species", len(records))

	for i := range records {
		if ctx.Err() != nil {
			return records[:i]
		}
		if err := c.source.Enrich(ctx, &records[i]); err != nil {
			log.Warn("enrichment failed, keeping record without details",
				"species", records[i].ScientificName, "error", err)
			c.metrics.EnrichFailures.WithLabelValues(c.source.Name()).Inc()
		}
		c.metrics.SpeciesCollected.WithLabelValues(c.source.Name(), categoryLabel(records[i].Category)).Inc()
	}
	return records
}

func categoryLabel(cat domain.Category) string {
	if cat == "" {
		return "unmapped"
	}
	return string(cat)
}
