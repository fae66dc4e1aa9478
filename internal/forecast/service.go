package forecast

import (
	"context"
	"log/slog"
	"math"

	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/observability"
)

// AnomalyNotifier receives predictions that crossed the anomaly threshold.
type AnomalyNotifier interface {
	NotifyAnomaly(ctx context.Context, event domain.AnomalyEvent) error
}

// Service resolves, encodes, predicts, and interprets NDVI requests. All of
// its collaborators are read-only after construction, so one Service can
// serve any number of concurrent requests.
type Service struct {
	registry *domain.Registry
	encoder  domain.DateEncoder
	model    domain.Model
	detector domain.AnomalyDetector
	notifier AnomalyNotifier
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Service. Pass a nil notifier to disable anomaly notifications.
func New(
	registry *domain.Registry,
	encoder domain.DateEncoder,
	model domain.Model,
	detector domain.AnomalyDetector,
	notifier AnomalyNotifier,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		registry: registry,
		encoder:  encoder,
		model:    model,
		detector: detector,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
	}
}

// Predict runs resolve, encode, invoke, classify in order and stops at the
// first failure. Failures are *Error values; nothing is retried.
func (s *Service) Predict(ctx context.Context, req domain.PredictionRequest) (domain.PredictionResult, error) {
	result, err := s.predict(ctx, req)
	if err != nil {
		kind := KindOf(err)
		s.metrics.Predictions.WithLabelValues(kind.String()).Inc()
		level := slog.LevelInfo
		if kind == KindModelFailure {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "prediction rejected",
			"location", req.Location,
			"date", req.Date,
			"kind", kind.String(),
			"error", err,
		)
		return domain.PredictionResult{}, err
	}

	s.metrics.Predictions.WithLabelValues("ok").Inc()
	s.metrics.PredictionBands.WithLabelValues(result.Band).Inc()
	s.logger.Debug("prediction served",
		"location", result.Location,
		"date", result.Date,
		"ndvi", result.PredictedNDVI,
		"band", result.Band,
		"anomaly", result.Anomaly,
	)

	if result.Anomaly {
		s.metrics.Anomalies.Inc()
		s.notify(ctx, result)
	}
	return result, nil
}

func (s *Service) predict(ctx context.Context, req domain.PredictionRequest) (domain.PredictionResult, error) {
	loc, err := s.registry.Resolve(req.Location)
	if err != nil {
		return domain.PredictionResult{}, newError(KindUnsupportedLocation, err)
	}

	ts, err := s.encoder.Encode(req.Date)
	if err != nil {
		return domain.PredictionResult{}, newError(KindInvalidDate, err)
	}

	features := domain.Features{Lat: loc.Lat, Lon: loc.Lon, Timestamp: ts}
	if err := features.Validate(); err != nil {
		return domain.PredictionResult{}, modelFailure("%w", err)
	}
	if s.model == nil {
		return domain.PredictionResult{}, modelFailure("model not loaded")
	}

	v, err := s.model.Predict(ctx, features)
	if err != nil {
		return domain.PredictionResult{}, modelFailure("%w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.PredictionResult{}, modelFailure("non-finite prediction %v", v)
	}

	band := domain.Classify(v)
	return domain.PredictionResult{
		Location:       loc.Name,
		Latitude:       loc.Lat,
		Longitude:      loc.Lon,
		Date:           req.Date,
		PredictedNDVI:  v,
		Interpretation: band.Label,
		Band:           band.Key,
		Anomaly:        s.detector.IsAnomaly(v),
	}, nil
}

// notify hands an anomalous result to the notifier. Notification failures
// never fail the prediction.
func (s *Service) notify(ctx context.Context, result domain.PredictionResult) {
	if s.notifier == nil {
		return
	}
	event := domain.NewAnomalyEvent(result, s.detector.Threshold)
	if err := s.notifier.NotifyAnomaly(ctx, event); err != nil {
		s.metrics.AnomalyNotifications.WithLabelValues("error").Inc()
		s.logger.Warn("anomaly notification failed",
			"location", result.Location,
			"date", result.Date,
			"error", err,
		)
		return
	}
	s.metrics.AnomalyNotifications.WithLabelValues("success").Inc()
}

// Locations lists the supported locations.
func (s *Service) Locations() []domain.Location {
	return s.registry.Locations()
}

// Threshold reports the anomaly cutoff in use.
func (s *Service) Threshold() float64 {
	return s.detector.Threshold
}

// CheckReadiness reports whether the model can serve predictions.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if s.model == nil {
		return modelFailure("model not loaded")
	}
	if rc, ok := s.model.(interface{ CheckReadiness(context.Context) error }); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}
