package forecast

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/ndvi-forecast/internal/domain"
)

// Kind classifies a prediction failure so callers can map it to a response code.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedLocation
	KindInvalidDate
	KindModelFailure
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedLocation:
		return "unsupported_location"
	case KindInvalidDate:
		return "invalid_date"
	case KindModelFailure:
		return "model_failure"
	default:
		return "unknown"
	}
}

// Error is returned by Service.Predict. Err wraps the matching domain
// sentinel, so errors.Is(err, domain.ErrInvalidDate) and friends work.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func modelFailure(format string, args ...any) *Error {
	return newError(KindModelFailure, fmt.Errorf("%w: "+format, append([]any{domain.ErrModelFailure}, args...)...))
}
