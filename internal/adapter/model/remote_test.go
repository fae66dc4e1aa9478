package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, observability.NewMetricsForTesting(), observability.DiscardLogger())
}

func sidecar(t *testing.T, features []string, predict http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /schema", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(schemaResponse{Features: features, Model: "rf-v3"}))
	})
	if predict != nil {
		mux.HandleFunc("POST /predict", predict)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Connect(t *testing.T) {
	srv := sidecar(t, []string{"lat", "lon", "timestamp"}, nil)

	require.NoError(t, testClient(srv.URL+"/").Connect(context.Background()))
}

func TestClient_Connect_SchemaMismatch(t *testing.T) {
	srv := sidecar(t, []string{"lon", "lat", "timestamp"}, nil)

	err := testClient(srv.URL).Connect(context.Background())
	require.ErrorIs(t, err, domain.ErrSchemaMismatch)
}

func TestClient_Connect_Unreachable(t *testing.T) {
	srv := sidecar(t, domain.FeatureSchema, nil)
	srv.Close()

	err := testClient(srv.URL).Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch model schema")
}

func TestClient_Predict(t *testing.T) {
	srv := sidecar(t, domain.FeatureSchema, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, contentTypeJSON, r.Header.Get(headerContentType))

		var req predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"lat", "lon", "timestamp"}, req.Columns)
		assert.Equal(t, [][]float64{{-0.0917, 34.768, 1710460800}}, req.Rows)

		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(predictResponse{Predictions: []float64{0.82}}))
	})

	v, err := testClient(srv.URL).Predict(context.Background(), domain.Features{Lat: -0.0917, Lon: 34.768, Timestamp: 1710460800})
	require.NoError(t, err)
	assert.Equal(t, 0.82, v)
}

func TestClient_Predict_ServerError(t *testing.T) {
	srv := sidecar(t, domain.FeatureSchema, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})

	_, err := testClient(srv.URL).Predict(context.Background(), domain.Features{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestClient_Predict_WrongRowCount(t *testing.T) {
	srv := sidecar(t, domain.FeatureSchema, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"predictions": []}`))
	})

	_, err := testClient(srv.URL).Predict(context.Background(), domain.Features{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0 predictions")
}

func TestClient_Predict_MalformedJSON(t *testing.T) {
	srv := sidecar(t, domain.FeatureSchema, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"predictions": [`))
	})

	_, err := testClient(srv.URL).Predict(context.Background(), domain.Features{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_CheckReadiness(t *testing.T) {
	srv := sidecar(t, domain.FeatureSchema, nil)
	c := testClient(srv.URL)

	require.NoError(t, c.CheckReadiness(context.Background()))
	srv.Close()
	require.Error(t, c.CheckReadiness(context.Background()))
}
