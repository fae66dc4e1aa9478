package model

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_FileWithCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(linearArtifact), 0o644))

	m, err := Open(context.Background(), Options{Source: "file", Path: path, CacheSize: 16},
		observability.NewMetricsForTesting(), observability.DiscardLogger())
	require.NoError(t, err)
	assert.IsType(t, &CachedModel{}, m)
}

func TestOpen_FileWithoutCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(linearArtifact), 0o644))

	m, err := Open(context.Background(), Options{Path: path},
		observability.NewMetricsForTesting(), observability.DiscardLogger())
	require.NoError(t, err)
	assert.IsType(t, &FileModel{}, m)
}

func TestOpen_HTTP(t *testing.T) {
	srv := sidecar(t, domain.FeatureSchema, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_ = json.NewEncoder(w).Encode(predictResponse{Predictions: []float64{0.33}})
	})

	m, err := Open(context.Background(), Options{Source: "http", URL: srv.URL, Timeout: time.Second},
		observability.NewMetricsForTesting(), observability.DiscardLogger())
	require.NoError(t, err)

	v, err := m.Predict(context.Background(), domain.Features{Lat: 1, Lon: 2, Timestamp: 3})
	require.NoError(t, err)
	assert.InDelta(t, 0.33, v, 1e-12)
}

func TestOpen_HTTPSchemaMismatchIsFatal(t *testing.T) {
	srv := sidecar(t, []string{"lon", "lat", "timestamp"}, nil)

	_, err := Open(context.Background(), Options{Source: "http", URL: srv.URL, Timeout: time.Second},
		observability.NewMetricsForTesting(), observability.DiscardLogger())
	require.ErrorIs(t, err, domain.ErrSchemaMismatch)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), Options{Source: "file", Path: filepath.Join(t.TempDir(), "missing.json")},
		observability.NewMetricsForTesting(), observability.DiscardLogger())
	require.Error(t, err)

	_, err = Open(context.Background(), Options{Source: "onnx"},
		observability.NewMetricsForTesting(), observability.DiscardLogger())
	require.ErrorContains(t, err, "unknown model source")
}
