// File: internal/profile/store.go
package profile

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a tier-level store failure.
type ErrorKind int

const (
	// KindUnavailable covers connectivity and timeout failures; safe to
	// fall through to the next tier.
	KindUnavailable ErrorKind = iota
	// KindPermissionDenied is transient to the cascade but logged as a
	// configuration concern.
	KindPermissionDenied
	// KindInvalid is a schema or validation failure. The cascade still
	// falls through, but these are logged distinctly for diagnostics.
	KindInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// StoreError wraps a tier failure with its classification and the tier
// name, so the orchestrator can log the fallthrough decision.
type StoreError struct {
	Tier string
	Kind ErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("profile store %s: %s: %v", e.Tier, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError builds a classified tier error.
func NewStoreError(tier string, kind ErrorKind, err error) *StoreError {
	return &StoreError{Tier: tier, Kind: kind, Err: err}
}

// AsStoreError extracts a *StoreError if err carries one.
func AsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ErrProfileNotFound is returned by Get when a tier has no record for the
// uid. Distinct from a StoreError: the tier answered, the answer is "no".
var ErrProfileNotFound = errors.New("profile not found")

// Store is the uniform contract every tier implements. Upsert must be
// idempotent: read-before-write, preserve the original CreatedAt, and never
// produce two records for one uid.
type Store interface {
	// Name identifies the tier in logs and cascade outcomes.
	Name() string
	Upsert(ctx context.Context, uid string, fields Fields) (*Profile, error)
	Get(ctx context.Context, uid string) (*Profile, error)
}
