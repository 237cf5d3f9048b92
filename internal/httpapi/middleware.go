// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// contextKey is a private type for request context values.
type contextKey int

// principalKey carries the authenticated *auth.User.
const principalKey contextKey = iota

// PrincipalFromContext returns the authenticated user for the request,
// or nil when the path did not require authentication.
func PrincipalFromContext(ctx context.Context) *auth.User {
	user, _ := ctx.Value(principalKey).(*auth.User)
	return user
}

// authMiddleware enforces the access gate: excluded paths pass through
// untouched, everything else must resolve a principal or is rejected
// with a uniform 401.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.gate.RequireAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw := s.gate.ExtractCredential(r)
		user, err := s.gate.ResolvePrincipal(r.Context(), raw)
		if err != nil {
			// Missing, malformed, and invalid credentials are all the
			// same "unauthorized" to the caller.
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestMetrics counts requests by route pattern and status. The
// matched mux pattern keeps the label set bounded; the raw request path
// would let arbitrary clients mint new series.
func (s *Server) requestMetrics(mux *http.ServeMux, next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		_, pattern := mux.Handler(r)
		if pattern == "" {
			pattern = "unmatched"
		}
		s.metrics.RequestsTotal.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()
	})
}
