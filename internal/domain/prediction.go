package domain

import "time"

// PredictionRequest asks for the NDVI forecast at a named location on a date.
type PredictionRequest struct {
	Location string
	Date     string
}

// PredictionResult is the interpreted model output for one request.
type PredictionResult struct {
	Location       string  `json:"location"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Date           string  `json:"date"`
	PredictedNDVI  float64 `json:"predicted_ndvi"`
	Interpretation string  `json:"interpretation"`
	Band           string  `json:"band"`
	Anomaly        bool    `json:"anomaly"`
}

// AnomalyEvent is published when a prediction crosses the anomaly threshold.
type AnomalyEvent struct {
	Location      string    `json:"location"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Date          string    `json:"date"`
	PredictedNDVI float64   `json:"predicted_ndvi"`
	Threshold     float64   `json:"threshold"`
	Band          string    `json:"band"`
	DetectedAt    time.Time `json:"detected_at"`
}

// NewAnomalyEvent builds an event from an anomalous result, stamped with the
// package clock.
func NewAnomalyEvent(r PredictionResult, threshold float64) AnomalyEvent {
	return AnomalyEvent{
		Location:      r.Location,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		Date:          r.Date,
		PredictedNDVI: r.PredictedNDVI,
		Threshold:     threshold,
		Band:          r.Band,
		DetectedAt:    clock.Now().UTC(),
	}
}
