package http

import (
	"errors"
	"net/http"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/logger"
)

type errorDetail struct {
	Kind    string `json:"kind"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error   errorDetail      `json:"error"`
	Booking *BookingResponse `json:"booking,omitempty"`
}

var errorKinds = []struct {
	sentinel error
	kind     string
	status   int
}{
	{domain.ErrValidation, "validation", http.StatusBadRequest},
	{domain.ErrNotFound, "not_found", http.StatusNotFound},
	{domain.ErrForbidden, "forbidden", http.StatusForbidden},
	{domain.ErrStateConflict, "state_conflict", http.StatusConflict},
	{domain.ErrTemporal, "temporal", http.StatusUnprocessableEntity},
	{domain.ErrPersistence, "persistence", http.StatusInternalServerError},
	{domain.ErrDownstream, "downstream", http.StatusBadGateway},
}

// classify maps an error to its wire kind and HTTP status. Unclassified
// errors are internal.
func classify(err error) (string, int) {
	for _, k := range errorKinds {
		if errors.Is(err, k.sentinel) {
			return k.kind, k.status
		}
	}
	return "internal", http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorWithBooking(w, r, err, nil)
}

func writeErrorWithBooking(w http.ResponseWriter, r *http.Request, err error, booking *BookingResponse) {
	kind, status := classify(err)

	message := err.Error()
	var rej *domain.RejectionError
	if errors.As(err, &rej) {
		message = rej.Message
	} else if status == http.StatusInternalServerError {
		message = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	}

	writeJSON(w, status, errorResponse{
		Error: errorDetail{
			Kind:    kind,
			Reason:  string(domain.ReasonOf(err)),
			Message: message,
		},
		Booking: booking,
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, errorResponse{
		Error: errorDetail{Kind: "unauthenticated", Message: message},
	})
}
