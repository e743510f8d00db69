package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/logger"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "status", status, "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Wrap(domain.ErrValidation, domain.ReasonInvalidField, err, "request body is not valid JSON")
	}
	return nil
}

// pathID parses the uuid route variable name.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, domain.Wrap(domain.ErrValidation, domain.ReasonInvalidField, err, "%s %q is not a valid id", name, raw)
	}
	return id, nil
}

// principal returns the caller or writes a 401 and reports false.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
	}
	return p, ok
}
