package domain

// DefaultAnomalyThreshold is the NDVI value above which a prediction is flagged.
const DefaultAnomalyThreshold = 0.75

// Band is one interval of the NDVI interpretation scale.
type Band struct {
	Key   string
	Label string
	// Lower is the inclusive lower bound of the band; the lowest band has none.
	Lower float64
}

// Bands in ascending order. Each band covers [Lower, next.Lower).
var (
	BandBare = Band{
		Key:   "bare",
		Label: "Bare land or urban area — no vegetation.",
	}
	BandSparse = Band{
		Key:   "sparse",
		Label: "Sparse vegetation — likely dry grass or scrubland.",
		Lower: 0.10,
	}
	BandModerate = Band{
		Key:   "moderate",
		Label: "Moderate vegetation — healthy shrubs or seasonal crops.",
		Lower: 0.30,
	}
	BandDense = Band{
		Key:   "dense",
		Label: "Dense vegetation — lush and green, normal bloom.",
		Lower: 0.50,
	}
	BandVeryDense = Band{
		Key:   "very_dense",
		Label: "Very dense vegetation — potential invasive or algal bloom!",
		Lower: 0.70,
	}
)

// Bands returns the interpretation scale from lowest to highest.
func Bands() []Band {
	return []Band{BandBare, BandSparse, BandModerate, BandDense, BandVeryDense}
}

// Classify maps an NDVI value to its band. Intervals are half-open, so a
// value equal to a boundary belongs to the upper band.
func Classify(v float64) Band {
	switch {
	case v < BandSparse.Lower:
		return BandBare
	case v < BandModerate.Lower:
		return BandSparse
	case v < BandDense.Lower:
		return BandModerate
	case v < BandVeryDense.Lower:
		return BandDense
	default:
		return BandVeryDense
	}
}

// AnomalyDetector flags values strictly above a cutoff.
type AnomalyDetector struct {
	Threshold float64
}

// NewAnomalyDetector returns a detector with the given cutoff, or the default
// cutoff when threshold is zero.
func NewAnomalyDetector(threshold float64) AnomalyDetector {
	if threshold == 0 {
		threshold = DefaultAnomalyThreshold
	}
	return AnomalyDetector{Threshold: threshold}
}

// IsAnomaly reports whether v exceeds the threshold.
func (d AnomalyDetector) IsAnomaly(v float64) bool {
	return v > d.Threshold
}

// IsAnomaly applies the default threshold.
func IsAnomaly(v float64) bool {
	return v > DefaultAnomalyThreshold
}
