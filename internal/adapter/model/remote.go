package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/observability"
)

// Client implements domain.Model against a regression sidecar that serves
// the trained artifact over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a sidecar client. Call Connect before serving traffic.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// Connect fetches the sidecar's feature schema and rejects it unless it is
// exactly lat, lon, timestamp.
func (c *Client) Connect(ctx context.Context) error {
	var resp schemaResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/schema", nil, &resp); err != nil {
		return fmt.Errorf("fetch model schema: %w", err)
	}
	if err := domain.CheckSchema(resp.Features); err != nil {
		return err
	}
	c.logger.Info("model sidecar connected", "url", c.baseURL, "model", resp.Model)
	return nil
}

// CheckReadiness reports whether the sidecar is reachable.
func (c *Client) CheckReadiness(ctx context.Context) error {
	var resp schemaResponse
	return c.do(ctx, http.MethodGet, c.baseURL+"/schema", nil, &resp)
}

// Predict sends one row and returns the single predicted value.
func (c *Client) Predict(ctx context.Context, f domain.Features) (float64, error) {
	start := time.Now()
	defer func() {
		c.metrics.ModelDuration.WithLabelValues("http").Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(predictRequest{
		Columns: domain.FeatureSchema,
		Rows:    [][]float64{f.Row()},
	})
	if err != nil {
		return 0, fmt.Errorf("marshal predict request: %w", err)
	}

	var resp predictResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/predict", body, &resp); err != nil {
		return 0, fmt.Errorf("predict request: %w", err)
	}
	if len(resp.Predictions) != 1 {
		return 0, fmt.Errorf("model sidecar returned %d predictions for 1 row", len(resp.Predictions))
	}
	return resp.Predictions[0], nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("model sidecar error: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Sidecar API types.

type schemaResponse struct {
	Features []string `json:"features"`
	Model    string   `json:"model,omitempty"`
}

type predictRequest struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

type predictResponse struct {
	Predictions []float64 `json:"predictions"`
}
