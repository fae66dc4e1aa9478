package domain

import "errors"

var (
	// ErrUnsupportedLocation is returned when a location name is not in the registry.
	ErrUnsupportedLocation = errors.New("unsupported location")

	// ErrInvalidDate is returned when a date string is not a valid YYYY-MM-DD calendar date.
	ErrInvalidDate = errors.New("invalid date format, use YYYY-MM-DD")

	// ErrModelFailure is returned when the regression model cannot produce a usable value.
	ErrModelFailure = errors.New("model failure")

	// ErrSchemaMismatch is returned when a model artifact declares a feature
	// schema other than lat, lon, timestamp.
	ErrSchemaMismatch = errors.New("model feature schema mismatch")
)
