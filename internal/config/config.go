package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Source names accepted in BEE_SOURCES.
const (
	SourceINaturalist = "inaturalist"
	SourceGBIF        = "gbif"
	SourceIUCN        = "iucn"
	SourceNatureServe = "natureserve"
)

// knownSources is the collection order when all sources run.
var knownSources = []string{SourceINaturalist, SourceGBIF, SourceIUCN, SourceNatureServe}

// Config holds all collector settings, populated from BEE_* environment variables.
type Config struct {
	Sources        []string
	OutputDir      string
	RequestTimeout time.Duration

	LogLevel        string
	LogFormat       string
	MetricsAddr     string
	ShutdownTimeout time.Duration

	// Per-source pacing. The IUCN API documents a 2s gap; the others are
	// courtesy delays matching their published guidance.
	INatThrottle        time.Duration
	GBIFThrottle        time.Duration
	IUCNThrottle        time.Duration
	NatureServeThrottle time.Duration

	IUCNToken           string
	NatureServePageSize int

	// Optional Kafka record sink.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from the environment, applying defaults where
// unset. When BEE_SOURCES is not given, the IUCN source is included only if
// a token is configured; naming it explicitly without a token is an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("output_dir", ".")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("shutdown_timeout", "10s")

	v.SetDefault("inat.throttle", "500ms")
	v.SetDefault("gbif.throttle", "300ms")
	v.SetDefault("iucn.throttle", "2s")
	v.SetDefault("natureserve.throttle", "500ms")
	v.SetDefault("natureserve.page_size", 100)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "bee-species-records")

	envBindings := map[string]string{
		"sources":               "BEE_SOURCES",
		"output_dir":            "BEE_OUTPUT_DIR",
		"request_timeout":       "BEE_REQUEST_TIMEOUT",
		"log.level":             "BEE_LOG_LEVEL",
		"log.format":            "BEE_LOG_FORMAT",
		"metrics_addr":          "BEE_METRICS_ADDR",
		"shutdown_timeout":      "BEE_SHUTDOWN_TIMEOUT",
		"inat.throttle":         "BEE_INAT_THROTTLE",
		"gbif.throttle":         "BEE_GBIF_THROTTLE",
		"iucn.throttle":         "BEE_IUCN_THROTTLE",
		"iucn.token":            "BEE_IUCN_TOKEN",
		"natureserve.throttle":  "BEE_NATURESERVE_THROTTLE",
		"natureserve.page_size": "BEE_NATURESERVE_PAGE_SIZE",
		"kafka.enabled":         "BEE_KAFKA_ENABLED",
		"kafka.brokers":         "BEE_KAFKA_BROKERS",
		"kafka.topic":           "BEE_KAFKA_TOPIC",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{
		OutputDir:           v.GetString("output_dir"),
		RequestTimeout:      v.GetDuration("request_timeout"),
		LogLevel:            v.GetString("log.level"),
		LogFormat:           v.GetString("log.format"),
		MetricsAddr:         v.GetString("metrics_addr"),
		ShutdownTimeout:     v.GetDuration("shutdown_timeout"),
		INatThrottle:        v.GetDuration("inat.throttle"),
		GBIFThrottle:        v.GetDuration("gbif.throttle"),
		IUCNThrottle:        v.GetDuration("iucn.throttle"),
		NatureServeThrottle: v.GetDuration("natureserve.throttle"),
		IUCNToken:           v.GetString("iucn.token"),
		NatureServePageSize: v.GetInt("natureserve.page_size"),
		KafkaEnabled:        v.GetBool("kafka.enabled"),
		KafkaBrokers:        splitList(v.GetString("kafka.brokers")),
		KafkaTopic:          v.GetString("kafka.topic"),
	}

	sources, err := resolveSources(v.GetString("sources"), cfg.IUCNToken)
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources

	if cfg.OutputDir == "" {
		return nil, errors.New("BEE_OUTPUT_DIR must not be empty")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, errors.New("invalid BEE_REQUEST_TIMEOUT")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("invalid BEE_SHUTDOWN_TIMEOUT")
	}
	if cfg.NatureServePageSize <= 0 {
		return nil, errors.New("invalid BEE_NATURESERVE_PAGE_SIZE")
	}
	for _, d := range []struct {
		name string
		val  time.Duration
	}{
		{"BEE_INAT_THROTTLE", cfg.INatThrottle},
		{"BEE_GBIF_THROTTLE", cfg.GBIFThrottle},
		{"BEE_IUCN_THROTTLE", cfg.IUCNThrottle},
		{"BEE_NATURESERVE_THROTTLE", cfg.NatureServeThrottle},
	} {
		if d.val < 0 {
			return nil, fmt.Errorf("invalid %s", d.name)
		}
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("BEE_KAFKA_ENABLED is true but BEE_KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("BEE_KAFKA_ENABLED is true but BEE_KAFKA_TOPIC is not set")
	}

	return cfg, nil
}

// SourceEnabled reports whether the named source is part of this run.
func (c *Config) SourceEnabled(name string) bool {
	for _, s := range c.Sources {
		if s == name {
			return true
		}
	}
	return false
}

// resolveSources validates an explicit source list, or derives the default
// one. Explicitly requesting iucn without a token is the one configuration
// error that carries instructions, because the fix lives outside this repo.
func resolveSources(raw, iucnToken string) ([]string, error) {
	if raw == "" {
		sources := make([]string, 0, len(knownSources))
		for _, s := range knownSources {
			if s == SourceIUCN && iucnToken == "" {
				continue
			}
			sources = append(sources, s)
		}
		return sources, nil
	}

	sources := splitList(raw)
	if len(sources) == 0 {
		return nil, errors.New("BEE_SOURCES must name at least one source")
	}
	for _, s := range sources {
		if !isKnownSource(s) {
			return nil, fmt.Errorf("unknown source %q in BEE_SOURCES (valid: %s)", s, strings.Join(knownSources, ", "))
		}
		if s == SourceIUCN && iucnToken == "" {
			return nil, errors.New("BEE_IUCN_TOKEN is required to query the IUCN Red List API; request a free token at https://api.iucnredlist.org/users/sign_up and set BEE_IUCN_TOKEN")
		}
	}
	return sources, nil
}

func isKnownSource(name string) bool {
	for _, s := range knownSources {
		if s == name {
			return true
		}
	}
	return false
}

// splitList parses a comma-separated list, trimming blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
