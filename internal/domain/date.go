package domain

import (
	"fmt"
	"time"
)

// DateLayout is the only accepted request date format.
const DateLayout = "2006-01-02"

// DateEncoder turns calendar dates into the integer timestamps the model was
// trained on: seconds since the Unix epoch at midnight in a fixed zone.
type DateEncoder struct {
	loc *time.Location
}

// NewDateEncoder returns an encoder anchored to loc. A nil loc means UTC.
func NewDateEncoder(loc *time.Location) DateEncoder {
	if loc == nil {
		loc = time.UTC
	}
	return DateEncoder{loc: loc}
}

// Encode parses a zero-padded YYYY-MM-DD date and returns its midnight
// timestamp. Any other shape, including out-of-range months or days, fails
// with ErrInvalidDate.
func (e DateEncoder) Encode(date string) (int64, error) {
	t, err := time.ParseInLocation(DateLayout, date, e.location())
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t.Unix(), nil
}

// Location reports the zone dates are anchored to.
func (e DateEncoder) Location() *time.Location { return e.location() }

func (e DateEncoder) location() *time.Location {
	if e.loc == nil {
		return time.UTC
	}
	return e.loc
}
