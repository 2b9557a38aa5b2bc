package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrGatewayUnavailable means the search gateway could not be reached,
	// timed out, or answered with a server-side failure.
	ErrGatewayUnavailable = errors.New("search gateway unavailable")

	// ErrMapping means the gateway returned a document or bucket that violates
	// the expected shape.
	ErrMapping = errors.New("unexpected search result shape")

	// ErrInvalidFilterValue is reserved for filter validation. No filter value
	// is rejected today.
	ErrInvalidFilterValue = errors.New("invalid filter value")
)

// MappingError describes a required field that is absent or malformed in a
// raw gateway result.
type MappingError struct {
	// DocumentID falls back to the engine's _id when the source has no id,
	// and is empty when the error concerns an aggregation bucket.
	DocumentID string
	Field      string
	Reason     string
}

func (e *MappingError) Error() string {
	if e.DocumentID == "" {
		return fmt.Sprintf("%s: field %q %s", ErrMapping, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: document %s: field %q %s", ErrMapping, e.DocumentID, e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrMapping) match any *MappingError.
func (e *MappingError) Is(target error) bool {
	return target == ErrMapping
}
