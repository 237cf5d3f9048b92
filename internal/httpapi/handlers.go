// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/gate"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// credentialsRequest is the body for registration and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the public view of a user. Hashes and tokens never
// leave the service in a response body.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := s.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		if errors.Is(err, auth.ErrValidation) {
			writeError(w, http.StatusBadRequest, "email is not a valid address")
			return
		}
		errutil.LogError(s.logger, "registration failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if s.metrics != nil {
		s.metrics.RegistrationsTotal.Inc()
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"email":   user.Email,
		"message": "user created",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := s.svc.UserFromCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			if s.metrics != nil {
				s.metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			}
			writeError(w, http.StatusUnauthorized, "wrong email or password")
			return
		}
		errutil.LogError(s.logger, "login failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if s.metrics != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	}

	// A session is only worth persisting when the gate can read it back
	// from a cookie; under basic auth every request re-proves itself.
	if s.gate.Scheme() == gate.SchemeSession {
		token, err := s.svc.CreateSession(r.Context(), user.Email)
		if err != nil {
			errutil.LogError(s.logger, "session creation failed", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if s.metrics != nil {
			s.metrics.SessionsCreated.Inc()
		}

		http.SetCookie(w, &http.Cookie{
			Name:     s.gate.CookieName(),
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	writeJSON(w, http.StatusOK, userResponse{ID: user.ID.String(), Email: user.Email})
}

// handleLogout destroys the caller's session. It succeeds whether or
// not a session existed.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookieName := s.gate.CookieName(); cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil {
			if user, resolveErr := s.svc.UserFromSession(r.Context(), cookie.Value); resolveErr == nil {
				if destroyErr := s.svc.DestroySession(r.Context(), user.ID); destroyErr != nil {
					errutil.LogError(s.logger, "session destroy failed", destroyErr)
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
				if s.metrics != nil {
					s.metrics.SessionsDestroyed.Inc()
				}
			}
		}

		// Expire the cookie client-side regardless
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	writeJSON(w, http.StatusOK, map[string]string{})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := PrincipalFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: user.ID.String(), Email: user.Email})
}

// decodeCredentials parses and validates a credentials body, writing
// the error response itself when validation fails.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email missing")
		return req, false
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password missing")
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write error means the client went away
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
