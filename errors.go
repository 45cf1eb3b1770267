package subclust

import (
	"errors"
	"fmt"

	"github.com/hupe1980/subclust/core"
	"github.com/hupe1980/subclust/hierarchy"
)

// ErrMalformedOrder indicates a cluster order the builder cannot work with:
// empty input, an entry whose preference vector width does not match the data
// space, or a vector that cannot be related to any built cluster. This is a
// caller or upstream bug and is never retried.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrMalformedOrder struct {
	Reason string
	cause  error
}

func (e *ErrMalformedOrder) Error() string {
	return fmt.Sprintf("malformed cluster order: %s", e.Reason)
}

func (e *ErrMalformedOrder) Unwrap() error { return e.cause }

// ErrSinkUnavailable indicates the destination sink refused a directory or
// unit operation. Units flushed before the failure remain in place; there is
// no rollback.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrSinkUnavailable struct {
	Target string
	cause  error
}

func (e *ErrSinkUnavailable) Error() string {
	return fmt.Sprintf("sink unavailable: %s", e.Target)
}

func (e *ErrSinkUnavailable) Unwrap() error { return e.cause }

// ErrIncompatibleRestoration indicates a member value the configured
// restoration function cannot process. The materialization stops at the
// offending member; units flushed before the failure remain in place.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrIncompatibleRestoration struct {
	ID    core.ObjectID
	cause error
}

func (e *ErrIncompatibleRestoration) Error() string {
	return fmt.Sprintf("member %d: value incompatible with restoration", e.ID)
}

func (e *ErrIncompatibleRestoration) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Builder input and invariant violations.
	if errors.Is(err, hierarchy.ErrEmptyOrder) {
		return &ErrMalformedOrder{Reason: "empty cluster order", cause: err}
	}
	var ed *hierarchy.ErrInvalidDimensionality
	if errors.As(err, &ed) {
		return &ErrMalformedOrder{Reason: ed.Error(), cause: err}
	}
	var em *hierarchy.ErrDimensionMismatch
	if errors.As(err, &em) {
		return &ErrMalformedOrder{Reason: em.Error(), cause: err}
	}
	var eu *hierarchy.ErrUnrelatedVector
	if errors.As(err, &eu) {
		return &ErrMalformedOrder{Reason: eu.Error(), cause: err}
	}

	return err
}
