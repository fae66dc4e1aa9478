// Package domain models NDVI forecasting for named Kenyan locations.
//
// # NDVI
//
// The Normalized Difference Vegetation Index is (NIR - Red) / (NIR + Red)
// computed from satellite reflectance. It ranges from -1 to 1; water and bare
// ground sit near or below zero and dense canopy approaches 1. The forecasts
// here come from a regression model trained on MODIS MOD13Q1 16-day 250m
// composites (see package conversion for the raster side).
//
// # Model inputs
//
// The model takes exactly three columns, in this order:
//
//	lat        decimal degrees, WGS-84
//	lon        decimal degrees, WGS-84
//	timestamp  seconds since the Unix epoch at midnight of the requested date
//
// Dates are anchored to a fixed zone (UTC unless configured), never to the
// host's local zone, so the same date always encodes to the same integer.
//
// # Interpretation scale
//
// Half-open bands, each boundary belonging to the upper band:
//
//	< 0.10        bare
//	[0.10, 0.30)  sparse
//	[0.30, 0.50)  moderate
//	[0.50, 0.70)  dense
//	>= 0.70       very_dense
//
// Anomaly flagging is a separate test: value > threshold (default 0.75).
// A value of 0.72 is very_dense but not anomalous.
//
// # Locations
//
// Names are matched after canonicalization (trim, then title-case each
// word). "  nairobi ", "NAIROBI" and "Nairobi" are the same location; "Nairobi
// City" is not.
package domain
