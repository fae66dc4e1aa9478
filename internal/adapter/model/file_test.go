package model

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linearArtifact = `{
	"features": ["lat", "lon", "timestamp"],
	"kind": "linear",
	"intercept": 0.5,
	"coefficients": [0.1, 0.01, 0]
}`

// forestArtifact has two stumps: one splits on lat at 0, the other on
// timestamp at 1.7e9.
const forestArtifact = `{
	"features": ["lat", "lon", "timestamp"],
	"kind": "forest",
	"trees": [
		{"nodes": [
			{"feature": 0, "threshold": 0, "left": 1, "right": 2},
			{"left": -1, "right": -1, "value": 0.2},
			{"left": -1, "right": -1, "value": 0.6}
		]},
		{"nodes": [
			{"feature": 2, "threshold": 1700000000, "left": 1, "right": 2},
			{"left": -1, "right": -1, "value": 0.4},
			{"left": -1, "right": -1, "value": 0.8}
		]}
	]
}`

func loadString(t *testing.T, s string) (*FileModel, error) {
	t.Helper()
	return Load(strings.NewReader(s), observability.NewMetricsForTesting())
}

func TestLoad_Linear(t *testing.T) {
	m, err := loadString(t, linearArtifact)
	require.NoError(t, err)
	assert.Equal(t, "linear", m.Kind())

	v, err := m.Predict(context.Background(), domain.Features{Lat: 1, Lon: 10, Timestamp: 1710460800})
	require.NoError(t, err)
	assert.InDelta(t, 0.5+0.1+0.1, v, 1e-12)
}

func TestLoad_Forest(t *testing.T) {
	m, err := loadString(t, forestArtifact)
	require.NoError(t, err)

	tests := []struct {
		name string
		f    domain.Features
		want float64
	}{
		{"south early", domain.Features{Lat: -0.09, Timestamp: 1600000000}, (0.2 + 0.4) / 2},
		{"south late", domain.Features{Lat: -0.09, Timestamp: 1710460800}, (0.2 + 0.8) / 2},
		{"north late", domain.Features{Lat: 0.5, Timestamp: 1710460800}, (0.6 + 0.8) / 2},
		{"on threshold goes left", domain.Features{Lat: 0, Timestamp: 1700000000}, (0.2 + 0.4) / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := m.Predict(context.Background(), tt.f)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, v, 1e-12)
		})
	}
}

func TestLoad_Deterministic(t *testing.T) {
	m, err := loadString(t, forestArtifact)
	require.NoError(t, err)

	f := domain.Features{Lat: -0.0917, Lon: 34.768, Timestamp: 1710460800}
	a, err := m.Predict(context.Background(), f)
	require.NoError(t, err)
	b, err := m.Predict(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLoad_SchemaMismatchIsFatal(t *testing.T) {
	for _, features := range []string{
		`["lon", "lat", "timestamp"]`,
		`["lat", "lon"]`,
		`["latitude", "longitude", "timestamp"]`,
	} {
		_, err := loadString(t, `{"features": `+features+`, "kind": "linear", "coefficients": [1, 1, 1]}`)
		require.ErrorIs(t, err, domain.ErrSchemaMismatch, features)
	}
}

func TestLoad_InvalidArtifacts(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{"not json", `not json`, "decode artifact"},
		{"missing kind", `{"features": ["lat", "lon", "timestamp"]}`, "kind is required"},
		{"unknown kind", `{"features": ["lat", "lon", "timestamp"], "kind": "svm"}`, "unsupported model kind"},
		{"coefficient count", `{"features": ["lat", "lon", "timestamp"], "kind": "linear", "coefficients": [1]}`, "3 coefficients"},
		{"no trees", `{"features": ["lat", "lon", "timestamp"], "kind": "forest"}`, "no trees"},
		{"empty tree", `{"features": ["lat", "lon", "timestamp"], "kind": "forest", "trees": [{"nodes": []}]}`, "no nodes"},
		{
			"bad feature index",
			`{"features": ["lat", "lon", "timestamp"], "kind": "forest", "trees": [{"nodes": [
				{"feature": 3, "threshold": 0, "left": 1, "right": 2},
				{"left": -1, "value": 1}, {"left": -1, "value": 2}]}]}`,
			"feature index",
		},
		{
			"cycle",
			`{"features": ["lat", "lon", "timestamp"], "kind": "forest", "trees": [{"nodes": [
				{"feature": 0, "threshold": 0, "left": 0, "right": 1},
				{"left": -1, "value": 1}]}]}`,
			"invalid children",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadString(t, tt.body)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ndvi_predictor.json")
	require.NoError(t, os.WriteFile(path, []byte(linearArtifact), 0o600))

	m, err := LoadFile(path, observability.NewMetricsForTesting())
	require.NoError(t, err)
	assert.Equal(t, "linear", m.Kind())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"), observability.NewMetricsForTesting())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open model artifact")
}
