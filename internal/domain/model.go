package domain

import (
	"context"
	"fmt"
	"math"
	"slices"
)

// FeatureSchema is the column order the regression model was trained with.
var FeatureSchema = []string{"lat", "lon", "timestamp"}

// Features is one model input row.
type Features struct {
	Lat       float64
	Lon       float64
	Timestamp int64
}

// Row packs the features in FeatureSchema order.
func (f Features) Row() []float64 {
	return []float64{f.Lat, f.Lon, float64(f.Timestamp)}
}

// Validate rejects non-finite or out-of-range coordinates.
func (f Features) Validate() error {
	if math.IsNaN(f.Lat) || math.IsInf(f.Lat, 0) || f.Lat < -90 || f.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", f.Lat)
	}
	if math.IsNaN(f.Lon) || math.IsInf(f.Lon, 0) || f.Lon < -180 || f.Lon > 180 {
		return fmt.Errorf("longitude %v out of range", f.Lon)
	}
	return nil
}

// Model is a deterministic regression function of (lat, lon, timestamp).
type Model interface {
	Predict(ctx context.Context, f Features) (float64, error)
}

// CheckSchema returns ErrSchemaMismatch unless columns equal FeatureSchema
// exactly, including order.
func CheckSchema(columns []string) error {
	if !slices.Equal(columns, FeatureSchema) {
		return fmt.Errorf("%w: got %v, want %v", ErrSchemaMismatch, columns, FeatureSchema)
	}
	return nil
}
