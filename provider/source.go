package provider

import (
	"context"
	"errors"
	"time"

	"github.com/robotomize/ratechain/label"
)

var (
	// ErrTransport marks network, DNS, timeout and non-200 failures while calling a source
	ErrTransport = errors.New("source transport failed")
	// ErrInvalidPayload marks a response that is structurally unusable
	ErrInvalidPayload = errors.New("source payload is not valid")
	// ErrDateFormat marks a publication date that could not be parsed
	ErrDateFormat = errors.New("source date has unexpected format")
)

// Source is an interface for getting data from external sources. Source takes care of receiving data
// and decoding it into a Payload, validation is left to the caller
//
//go:generate mockgen -source source.go -destination mock_source.go -package provider
type Source interface {
	// Name identifies the source in logs, metrics and results
	Name() string

	// Fetch requests the latest rates for base. Errors wrap ErrTransport or ErrInvalidPayload
	Fetch(ctx context.Context, base label.Symbol) (Payload, error)
}

// Payload is a decoded source response
type Payload interface {
	// Validate returns nil when the payload carries a usable rate for the pair,
	// otherwise an error wrapping ErrInvalidPayload
	Validate(base, target label.Symbol) error

	// Rate extracts the rate for the pair. The payload is validated again before extraction
	Rate(base, target label.Symbol) (float64, error)

	// Date returns the publication date, errors wrap ErrDateFormat
	Date() (time.Time, error)
}
