// Package jsonfile writes result documents to disk, one file per source.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
)

// Sink implements pipeline.Sink by writing the result set as an indented
// JSON document. The file is replaced on every run; there is no merging.
type Sink struct {
	path   string
	logger *slog.Logger
}

// NewSink creates a file sink for dir/filename.
func NewSink(dir, filename string, logger *slog.Logger) *Sink {
	return &Sink{path: filepath.Join(dir, filename), logger: logger}
}

func (s *Sink) Name() string { return "jsonfile" }

// Write serializes the document and replaces the output file. A zero-record
// set still produces a valid document with an empty species array.
func (s *Sink) Write(_ context.Context, set domain.ResultSet) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result set: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	s.logger.Info("result document written", "path", s.path, "total_species", set.TotalSpecies)
	return nil
}
