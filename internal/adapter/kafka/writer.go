// Package kafka publishes normalized records to a sink topic, for
// deployments that feed the merged series into downstream consumers
// instead of (or in addition to) the CSV table.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/nowcast-etl/internal/config"
	"github.com/couchcryptid/nowcast-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces normalized records to the configured topic. It
// implements merge.RecordPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishRecords serializes and publishes the records in a single
// WriteMessages call.
func (w *Writer) PublishRecords(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := recordMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// recordMessage marshals a record into a Kafka message keyed by city, so a
// station's series stays on one partition in order.
func recordMessage(rec domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.CityID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(rec.Kind)},
			{Key: "leadtime", Value: []byte(strconv.Itoa(rec.Leadtime))},
		},
	}, nil
}
