package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/forecast"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds the /predict request body.
const maxBodyBytes = 1 << 16

// Predictor is the forecast service as seen by the HTTP layer.
type Predictor interface {
	Predict(ctx context.Context, req domain.PredictionRequest) (domain.PredictionResult, error)
	Locations() []domain.Location
	CheckReadiness(ctx context.Context) error
}

// Server exposes the prediction API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	predictor  Predictor
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /predict, /locations, /healthz,
// /readyz, and /metrics routes.
func NewServer(addr string, predictor Predictor, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		predictor: predictor,
		logger:    logger,
	}

	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("GET /locations", s.handleLocations)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(predictor))
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer.Handler = withRequestID(withAccessLog(mux, logger))
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// predictBody accepts "city" and "county" as aliases for "location".
type predictBody struct {
	Location string `json:"location"`
	City     string `json:"city"`
	County   string `json:"county"`
	Date     string `json:"date"`
}

func (b predictBody) name() string {
	switch {
	case b.Location != "":
		return b.Location
	case b.County != "":
		return b.County
	default:
		return b.City
	}
}

type errorBody struct {
	Error     string   `json:"error"`
	Kind      string   `json:"kind,omitempty"`
	Supported []string `json:"supported,omitempty"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var body predictBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("malformed request body: %v", err)})
		return
	}

	result, err := s.predictor.Predict(r.Context(), domain.PredictionRequest{
		Location: body.name(),
		Date:     body.Date,
	})
	if err != nil {
		s.writePredictError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writePredictError(w http.ResponseWriter, err error) {
	kind := forecast.KindOf(err)
	switch kind {
	case forecast.KindUnsupportedLocation:
		names := locationNames(s.predictor.Locations())
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:     fmt.Sprintf("%v; supported locations: %s", err, strings.Join(names, ", ")),
			Kind:      kind.String(),
			Supported: names,
		})
	case forecast.KindInvalidDate:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: kind.String()})
	default:
		// Model internals stay in the logs.
		msg := "prediction failed"
		if errors.Is(err, domain.ErrModelFailure) {
			msg = domain.ErrModelFailure.Error()
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msg, Kind: kind.String()})
	}
}

func (s *Server) handleLocations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"locations": s.predictor.Locations()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func locationNames(locs []domain.Location) []string {
	names := make([]string, len(locs))
	for i, l := range locs {
		names[i] = l.Name
	}
	return names
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
