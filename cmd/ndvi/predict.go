package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/ndvi-forecast/internal/adapter/model"
	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/forecast"
	"github.com/couchcryptid/ndvi-forecast/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict NDVI for a location and date",
		Example: `  ndvi predict --location Kisumu --date 2024-03-15
  ndvi predict --location "homa bay" --date 2024-07-01 --model-source http --model-url http://localhost:8000`,
		Args: cobra.NoArgs,
		RunE: runPredict,
	}

	f := cmd.Flags()
	f.String("location", "", "location name (case-insensitive)")
	f.String("date", "", "date as YYYY-MM-DD")
	f.String("model-source", "file", "model backend (file, http)")
	f.String("model-path", "model/ndvi_model.json", "model artifact for --model-source=file")
	f.String("model-url", "", "sidecar base URL for --model-source=http")
	f.Duration("model-timeout", 5*time.Second, "sidecar request timeout")
	f.String("timezone", "UTC", "IANA zone whose midnight encodes the date")
	f.Float64("threshold", domain.DefaultAnomalyThreshold, "anomaly threshold")
	f.String("registry-file", "", "JSON location list replacing the built-in registry")
	_ = cmd.MarkFlagRequired("location")
	_ = cmd.MarkFlagRequired("date")
	for _, name := range []string{"model-source", "model-path", "model-url", "model-timeout", "timezone", "threshold", "registry-file"} {
		_ = viper.BindPFlag(name, f.Lookup(name))
	}
	return cmd
}

func runPredict(cmd *cobra.Command, _ []string) error {
	location, _ := cmd.Flags().GetString("location")
	date, _ := cmd.Flags().GetString("date")
	logger := slog.Default()
	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())

	registry, err := domain.OpenRegistry(viper.GetString("registry-file"))
	if err != nil {
		return err
	}
	tz, err := time.LoadLocation(viper.GetString("timezone"))
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	m, err := model.Open(cmd.Context(), model.Options{
		Source:  viper.GetString("model-source"),
		Path:    viper.GetString("model-path"),
		URL:     viper.GetString("model-url"),
		Timeout: viper.GetDuration("model-timeout"),
	}, metrics, logger)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	svc := forecast.New(registry, domain.NewDateEncoder(tz), m,
		domain.NewAnomalyDetector(viper.GetFloat64("threshold")), nil, logger, metrics)

	result, err := svc.Predict(cmd.Context(), domain.PredictionRequest{Location: location, Date: date})
	if err != nil {
		if forecast.KindOf(err) == forecast.KindUnsupportedLocation {
			return fmt.Errorf("%w\navailable locations: %s", err, strings.Join(registry.Names(), ", "))
		}
		return err
	}
	writeReport(cmd.OutOrStdout(), result)
	return nil
}

func writeReport(w io.Writer, r domain.PredictionResult) {
	fmt.Fprintln(w, "NDVI Prediction Result")
	fmt.Fprintf(w, "Location: %s - (%v, %v)\n", r.Location, r.Latitude, r.Longitude)
	fmt.Fprintf(w, "Date: %s\n", r.Date)
	fmt.Fprintf(w, "Predicted NDVI: %.4f\n", r.PredictedNDVI)
	fmt.Fprintf(w, "Meaning: %s\n", r.Interpretation)
	if r.Anomaly {
		fmt.Fprintln(w, "Anomaly Detected: Possible invasive bloom or algal growth!")
	} else {
		fmt.Fprintln(w, "Normal vegetation conditions.")
	}
}
