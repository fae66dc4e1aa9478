package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testEvent() domain.AnomalyEvent {
	return domain.AnomalyEvent{
		Location:      "Kisumu",
		Latitude:      -0.0917,
		Longitude:     34.768,
		Date:          "2024-03-15",
		PredictedNDVI: 0.82,
		Threshold:     0.75,
		Band:          "very_dense",
		DetectedAt:    time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	event := testEvent()

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("Kisumu"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "band", msg.Headers[0].Key)
	assert.Equal(t, []byte("very_dense"), msg.Headers[0].Value)
	assert.Equal(t, "predicted_ndvi", msg.Headers[1].Key)
	assert.Equal(t, []byte("0.82"), msg.Headers[1].Value)
	assert.Equal(t, "detected_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2024-03-15T09:30:00Z"), msg.Headers[2].Value)

	var decoded domain.AnomalyEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestSerializeToMessage_RejectsNonFinite(t *testing.T) {
	event := testEvent()
	event.PredictedNDVI = math.NaN()

	_, err := serializeToMessage(event)
	assert.ErrorContains(t, err, "serialize anomaly event")
}

func TestNotifyAnomaly_WritesOneMessage(t *testing.T) {
	fw := &fakeWriter{}
	n := &Notifier{writer: fw, topic: "ndvi-anomalies", logger: observability.DiscardLogger()}

	require.NoError(t, n.NotifyAnomaly(context.Background(), testEvent()))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "Kisumu", string(fw.msgs[0].Key))

	require.NoError(t, n.Close())
	assert.True(t, fw.closed)
}

func TestNotifyAnomaly_WrapsWriteError(t *testing.T) {
	brokerErr := errors.New("leader not available")
	n := &Notifier{writer: &fakeWriter{err: brokerErr}, topic: "ndvi-anomalies", logger: observability.DiscardLogger()}

	err := n.NotifyAnomaly(context.Background(), testEvent())
	require.ErrorIs(t, err, brokerErr)
	assert.Contains(t, err.Error(), "ndvi-anomalies")
}
