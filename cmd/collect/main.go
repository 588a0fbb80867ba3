// Command collect runs the bee conservation collection pipeline for every
// enabled source, writes one JSON result document per source, and prints a
// console summary for each.
//
// Configuration comes from BEE_* environment variables; see internal/config.
// SIGINT or SIGTERM cancels the run; a cancelled run writes no documents
// and starts over from scratch next time.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/pollinatorlab/bee-conservation-etl/internal/adapter/gbif"
	httpadapter "github.com/pollinatorlab/bee-conservation-etl/internal/adapter/http"
	"github.com/pollinatorlab/bee-conservation-etl/internal/adapter/inaturalist"
	"github.com/pollinatorlab/bee-conservation-etl/internal/adapter/iucn"
	"github.com/pollinatorlab/bee-conservation-etl/internal/adapter/jsonfile"
	kafkaadapter "github.com/pollinatorlab/bee-conservation-etl/internal/adapter/kafka"
	"github.com/pollinatorlab/bee-conservation-etl/internal/adapter/natureserve"
	"github.com/pollinatorlab/bee-conservation-etl/internal/config"
	"github.com/pollinatorlab/bee-conservation-etl/internal/observability"
	"github.com/pollinatorlab/bee-conservation-etl/internal/pipeline"
	"github.com/pollinatorlab/bee-conservation-etl/internal/report"
	"github.com/pollinatorlab/bee-conservation-etl/internal/throttle"
)

// taxaCacheSize bounds the iNaturalist species-name resolution cache.
const taxaCacheSize = 512

// outputFiles maps each source to its result document filename.
var outputFiles = map[string]string{
	config.SourceINaturalist: "endangered_bees.json",
	config.SourceGBIF:        "gbif_bees.json",
	config.SourceIUCN:        "iucn_bees.json",
	config.SourceNatureServe: "natureserve_bees.json",
}

func main() {
	if err := run(); err != nil {
		slog.Error("collection failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	runID := uuid.NewString()

	var kafkaSink *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaSink = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		logger.Info("kafka record sink enabled", "topic", cfg.KafkaTopic)
		defer func() {
			if err := kafkaSink.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
	}

	collectors := make([]*pipeline.Collector, 0, len(cfg.Sources))
	for _, name := range cfg.Sources {
		source := buildSource(name, cfg, metrics, logger)
		sinks := []pipeline.Sink{jsonfile.NewSink(cfg.OutputDir, outputFiles[name], logger)}
		if kafkaSink != nil {
			sinks = append(sinks, kafkaSink)
		}
		collectors = append(collectors, pipeline.New(source, sinks, logger, metrics, runID))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, cfg.Sources, anyReady(collectors), logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("ops server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("ops server shutdown error", "error", err)
			}
		}()
	}

	// Sources run one after another; nothing here is concurrent except
	// the ops server.
	var errs []error
	for _, c := range collectors {
		set, err := c.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("run interrupted, remaining sources skipped")
				return err
			}
			errs = append(errs, err)
			continue
		}
		report.Render(os.Stdout, set)
	}
	return errors.Join(errs...)
}

// buildSource wires one provider with its throttle policy.
func buildSource(name string, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) pipeline.Source {
	switch name {
	case config.SourceINaturalist:
		return inaturalist.NewClient(cfg.RequestTimeout, throttle.NewInterval(cfg.INatThrottle), taxaCacheSize, metrics, logger)
	case config.SourceGBIF:
		return gbif.NewClient(cfg.RequestTimeout, throttle.NewInterval(cfg.GBIFThrottle), metrics, logger)
	case config.SourceIUCN:
		return iucn.NewClient(cfg.IUCNToken, cfg.RequestTimeout, throttle.NewInterval(cfg.IUCNThrottle), metrics, logger)
	case config.SourceNatureServe:
		return natureserve.NewClient(cfg.RequestTimeout, cfg.NatureServePageSize, throttle.NewInterval(cfg.NatureServeThrottle), metrics, logger)
	default:
		// config.Load validates source names; this is unreachable.
		panic("unknown source " + name)
	}
}

// anyReady reports ready once any collector has accumulated a record.
type anyReady []*pipeline.Collector

func (a anyReady) CheckReadiness(ctx context.Context) error {
	var err error
	for _, c := range a {
		if err = c.CheckReadiness(ctx); err == nil {
			return nil
		}
	}
	return err
}
