package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-linearwind/internal/config"
	"github.com/couchcryptid/storm-linearwind/internal/domain"
)

// Writer publishes event records to a Kafka topic.
// It implements pipeline.EventLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured event topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadEvents publishes the records of one timestep in a single
// WriteMessages call. Records keyed by their initiation cell land on the
// same partition across timesteps.
func (w *Writer) LoadEvents(ctx context.Context, t int, records []domain.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d events for time %d: %w", len(msgs), t, err)
	}
	w.logger.Debug("events published", "timestep", t, "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an EventRecord into a Kafka message.
func serializeToMessage(rec domain.EventRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprintf("%d:%d", rec.InitRow, rec.InitColumn)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(rec.Type)},
			{Key: "recorded_at", Value: []byte(rec.RecordedAt.Format(time.RFC3339))},
		},
	}, nil
}
