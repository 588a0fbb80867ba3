// Package kafka publishes collected species records for downstream
// consumers. The sink is optional and feature-flagged; file output is the
// primary delivery path.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pollinatorlab/bee-conservation-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces one message per species record to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the record topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Write publishes every record of the result set in one WriteMessages call.
// Messages are keyed by scientific name so per-species ordering holds across
// repeated runs.
func (w *Writer) Write(ctx context.Context, set domain.ResultSet) error {
	if set.TotalSpecies == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, set.TotalSpecies)
	for i := range set.Species {
		msg, err := serializeToMessage(set, set.Species[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a species record into a Kafka message with
// source and category headers for header-based routing.
func serializeToMessage(set domain.ResultSet, rec domain.SpeciesRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize species record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ScientificName),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "data_source", Value: []byte(set.DataSource)},
			{Key: "category", Value: []byte(rec.Category)},
			{Key: "collected_at", Value: []byte(set.CollectionDate)},
		},
	}, nil
}
