package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/ndvi-forecast/internal/config"
	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Notifier publishes anomaly events to a Kafka topic.
// It implements forecast.AnomalyNotifier.
type Notifier struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured anomaly topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaAnomalyTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Notifier{writer: w, topic: cfg.KafkaAnomalyTopic, logger: logger}
}

// NotifyAnomaly serializes and publishes one event, keyed by location so all
// events for a place land on the same partition.
func (n *Notifier) NotifyAnomaly(ctx context.Context, event domain.AnomalyEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish anomaly to %s: %w", n.topic, err)
	}
	n.logger.Debug("anomaly published", "topic", n.topic, "location", event.Location, "date", event.Date)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals an AnomalyEvent into a Kafka message.
func serializeToMessage(event domain.AnomalyEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize anomaly event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "band", Value: []byte(event.Band)},
			{Key: "predicted_ndvi", Value: []byte(strconv.FormatFloat(event.PredictedNDVI, 'f', -1, 64))},
			{Key: "detected_at", Value: []byte(event.DetectedAt.Format(time.RFC3339))},
		},
	}, nil
}
