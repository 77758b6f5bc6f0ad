// Package generate runs idempotent generation cycles: for one period it finds
// the units still missing, asks a content provider for them, normalizes the
// results and upserts them through the generic repository.
package generate

import (
	"errors"
	"fmt"
	"strings"

	"astrofeed/internal/domain/entity"
)

// ErrMalformedDraft indicates the provider answered but the answer could not
// be turned into an entity (e.g. an article without a body).
var ErrMalformedDraft = errors.New("malformed draft")

// UnitFailure records why one unit of a cycle was not persisted.
type UnitFailure struct {
	Unit string
	// Stage is "generate" or "persist".
	Stage  string
	Reason string
	Err    error
}

// PartialGenerationFailure reports the units of a cycle that failed.
// errors.Is matches the failures' underlying kinds.
type PartialGenerationFailure struct {
	Kind      entity.Kind
	Period    entity.Period
	Attempted int
	Failed    []UnitFailure
}

// Error returns a one-line summary naming the failed units.
func (e *PartialGenerationFailure) Error() string {
	units := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		units[i] = f.Unit
	}
	return fmt.Sprintf("partial generation failure: %s %s: %d of %d units failed (%s)",
		e.Kind, e.Period, len(e.Failed), e.Attempted, strings.Join(units, ", "))
}

// Unwrap exposes each unit's error.
func (e *PartialGenerationFailure) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// reason renders a short classification for logs and summaries.
func reason(err error) string {
	switch {
	case errors.Is(err, entity.ErrProviderTimeout):
		return "provider timeout"
	case errors.Is(err, entity.ErrProviderRejected):
		return "provider rejected"
	case errors.Is(err, entity.ErrProviderUnavailable):
		return "provider unavailable"
	case errors.Is(err, entity.ErrStorageUnavailable):
		return "storage unavailable"
	case errors.Is(err, entity.ErrDuplicateKey):
		return "duplicate key"
	case errors.Is(err, ErrMalformedDraft):
		return "malformed draft"
	case errors.Is(err, entity.ErrValidationFailed), errors.Is(err, entity.ErrInvalidInput):
		return "invalid entity"
	default:
		return "unexpected error"
	}
}
