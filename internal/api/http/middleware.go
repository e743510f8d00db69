package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"rentrush-backend/internal/config"
	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/security"
)

type AuthMiddleware struct {
	tokenManager security.TokenManager
	cookieName   string
}

func NewAuthMiddleware(tm security.TokenManager, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm, cookieName: cookieName}
}

// Handler authenticates requests to non-public routes and places the
// caller on the request context.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.SecurityAdmin
		if route := mux.CurrentRoute(r); route != nil {
			level = config.GetSecurityLevel(route.GetName())
		}

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := m.extractToken(r)
		if token == "" {
			writeUnauthorized(w, "authorization token is not provided")
			return
		}

		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			writeUnauthorized(w, fmt.Sprintf("invalid token: %v", err))
			return
		}
		if claims.Type != security.TokenTypeAccess {
			writeUnauthorized(w, security.ErrWrongTokenType.Error())
			return
		}
		p, err := claims.Principal()
		if err != nil {
			writeUnauthorized(w, err.Error())
			return
		}

		if err := checkSecurityLevel(level, p); err != nil {
			writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// extractToken reads the bearer token, falling back to the session cookie.
func (m *AuthMiddleware) extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		token := header
		// Remove Bearer prefix if present
		if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
			token = token[7:]
		}
		return strings.TrimSpace(token)
	}
	if m.cookieName != "" {
		if c, err := r.Cookie(m.cookieName); err == nil {
			return c.Value
		}
	}
	return ""
}

func checkSecurityLevel(level config.SecurityLevel, p domain.Principal) error {
	switch level {
	case config.SecurityShowroom:
		if !p.IsShowroom() && !p.IsAdmin() {
			return domain.Reject(domain.ErrForbidden, domain.ReasonNotOwner, "showroom account required")
		}
	case config.SecurityAdmin:
		if !p.IsAdmin() {
			return domain.Reject(domain.ErrForbidden, domain.ReasonNotOwner, "admin account required")
		}
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// LoggingMiddleware writes one access log line per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		r = r.WithContext(logger.WithAttrs(r.Context(), "request_id", requestID))

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		route := ""
		if cur := mux.CurrentRoute(r); cur != nil {
			route = cur.GetName()
		}
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		logger.InfoContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// RecoveryMiddleware turns a handler panic into a 500.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Handler panicked", "method", r.Method, "path", r.URL.Path, "panic", rec)
				writeError(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
