package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every rejection wraps exactly one of these so callers can
// branch with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrStateConflict = errors.New("state conflict")
	ErrTemporal      = errors.New("temporal error")
	ErrPersistence   = errors.New("persistence error")
	ErrDownstream    = errors.New("downstream error")
)

type Reason string

const (
	ReasonMissingFields     Reason = "missing_fields"
	ReasonInvalidField      Reason = "invalid_field"
	ReasonMalformedDate     Reason = "malformed_date"
	ReasonMalformedTime     Reason = "malformed_time"
	ReasonCarNotFound       Reason = "car_not_found"
	ReasonBookingNotFound   Reason = "booking_not_found"
	ReasonCarUnavailable    Reason = "car_unavailable"
	ReasonOverlapping       Reason = "overlapping_booking"
	ReasonWindowInvalid     Reason = "window_invalid"
	ReasonPastDated         Reason = "past_dated"
	ReasonNotModifiable     Reason = "not_modifiable"
	ReasonNotRenter         Reason = "not_renter"
	ReasonNotOwner          Reason = "not_owner"
	ReasonNotLive           Reason = "not_live"
	ReasonInvalidTransition Reason = "invalid_transition"
	ReasonInvoiceFailed     Reason = "invoice_failed"
	ReasonInvoiceNotFound   Reason = "invoice_not_found"
	ReasonStoreFailure      Reason = "store_failure"
)

// RejectionError is a classified failure of a domain operation.
type RejectionError struct {
	Kind    error
	Reason  Reason
	Message string
	Err     error
}

func (e *RejectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RejectionError) Is(target error) bool {
	return target == e.Kind
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// ClientFault reports whether the rejection was caused by the caller's
// request rather than a failing dependency.
func (e *RejectionError) ClientFault() bool {
	return e.Kind != ErrPersistence && e.Kind != ErrDownstream
}

// Reject builds a RejectionError of the given kind.
func Reject(kind error, reason Reason, format string, args ...any) *RejectionError {
	return &RejectionError{
		Kind:    kind,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap classifies a lower-level error. An error that is already a
// RejectionError is returned unchanged.
func Wrap(kind error, reason Reason, err error, format string, args ...any) error {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return err
	}
	return &RejectionError{
		Kind:    kind,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// KindOf names the error kind for API responses.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, ErrTemporal):
		return "temporal"
	case errors.Is(err, ErrDownstream):
		return "downstream"
	default:
		return "persistence"
	}
}

// ReasonOf extracts the rejection reason, or "" for unclassified errors.
func ReasonOf(err error) Reason {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Reason
	}
	return ""
}
