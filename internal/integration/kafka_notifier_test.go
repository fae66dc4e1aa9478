//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/ndvi-forecast/internal/adapter/kafka"
	"github.com/couchcryptid/ndvi-forecast/internal/config"
	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/forecast"
	"github.com/couchcryptid/ndvi-forecast/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testAnomalyTopic = "test-ndvi-anomalies"

type constantModel float64

func (m constantModel) Predict(_ context.Context, _ domain.Features) (float64, error) {
	return float64(m), nil
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestAnomalyNotifierPublishes drives an anomalous prediction through the
// service and reads the published event back from the topic.
func TestAnomalyNotifierPublishes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAnomalyTopic)

	cfg := &config.Config{
		KafkaBrokers:      []string{broker},
		KafkaAnomalyTopic: testAnomalyTopic,
	}
	logger := observability.DiscardLogger()
	notifier := kafka.NewNotifier(cfg, logger)
	t.Cleanup(func() { _ = notifier.Close() })

	svc := forecast.New(
		domain.DefaultRegistry(),
		domain.NewDateEncoder(nil),
		constantModel(0.82),
		domain.NewAnomalyDetector(0),
		notifier,
		logger,
		observability.NewMetricsForTesting(),
	)

	result, err := svc.Predict(ctx, domain.PredictionRequest{Location: "kisumu", Date: "2024-03-15"})
	require.NoError(t, err)
	require.True(t, result.Anomaly)

	// A normal reading must not be published.
	normal := forecast.New(
		domain.DefaultRegistry(),
		domain.NewDateEncoder(nil),
		constantModel(0.4),
		domain.NewAnomalyDetector(0),
		notifier,
		logger,
		observability.NewMetricsForTesting(),
	)
	_, err = normal.Predict(ctx, domain.PredictionRequest{Location: "Nyeri", Date: "2024-03-15"})
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testAnomalyTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from anomaly topic")

	assert.Equal(t, "Kisumu", string(msg.Key))
	var event domain.AnomalyEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "2024-03-15", event.Date)
	assert.InDelta(t, 0.82, event.PredictedNDVI, 1e-9)
	assert.InDelta(t, domain.DefaultAnomalyThreshold, event.Threshold, 1e-9)
	assert.Equal(t, "very_dense", event.Band)

	// Only one message was produced.
	pollCtx, pollCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pollCancel()
	_, err = consumer.ReadMessage(pollCtx)
	assert.Error(t, err, "expected no second anomaly message")
}
