// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/auth/memory"
	"github.com/gatehouse/gatehouse/internal/gate"
	"github.com/gatehouse/gatehouse/internal/httpapi"
)

const cookieName = "_gatehouse_session"

var publicPaths = []string{"/api/v1/status", "/api/v1/users", "/api/v1/sessions"}

// newTestHandler wires a full stack on the in-memory store: service,
// session gate, and routes.
func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	svc, err := auth.NewService(memory.NewUserRepository(), auth.NewArgon2idHasher(), auth.NewRandomTokenGenerator())
	require.NoError(t, err)

	g, err := gate.New(gate.SchemeSession, cookieName, publicPaths, svc)
	require.NoError(t, err)

	srv, err := httpapi.NewServer("127.0.0.1:0", svc, g, nil, nil)
	require.NoError(t, err)

	return srv.Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		r.AddCookie(c)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestHandleStatus(t *testing.T) {
	handler := newTestHandler(t)

	w := doJSON(t, handler, http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", decodeBody(t, w)["status"])
}

func TestHandleRegister(t *testing.T) {
	t.Run("creates user", func(t *testing.T) {
		handler := newTestHandler(t)

		w := doJSON(t, handler, http.MethodPost, "/api/v1/users",
			`{"email":"bob@holberton.io","password":"secret"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "bob@holberton.io", body["email"])
		assert.Equal(t, "user created", body["message"])
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		handler := newTestHandler(t)

		first := doJSON(t, handler, http.MethodPost, "/api/v1/users",
			`{"email":"bob@holberton.io","password":"secret"}`)
		require.Equal(t, http.StatusCreated, first.Code)

		second := doJSON(t, handler, http.MethodPost, "/api/v1/users",
			`{"email":"bob@holberton.io","password":"other"}`)
		assert.Equal(t, http.StatusConflict, second.Code)
		assert.Equal(t, "email already registered", decodeBody(t, second)["error"])
	})

	t.Run("validation failures", func(t *testing.T) {
		handler := newTestHandler(t)

		tests := []struct {
			name string
			body string
			want string
		}{
			{"missing email", `{"password":"secret"}`, "email missing"},
			{"missing password", `{"email":"bob@holberton.io"}`, "password missing"},
			{"malformed json", `{not json`, "invalid request body"},
			{"invalid email", `{"email":"not-an-email","password":"secret"}`, "email is not a valid address"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := doJSON(t, handler, http.MethodPost, "/api/v1/users", tt.body)
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, tt.want, decodeBody(t, w)["error"])
			})
		}
	})
}

func TestHandleLogin(t *testing.T) {
	register := func(t *testing.T, handler http.Handler) {
		t.Helper()
		w := doJSON(t, handler, http.MethodPost, "/api/v1/users",
			`{"email":"bob@holberton.io","password":"secret"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("sets session cookie", func(t *testing.T) {
		handler := newTestHandler(t)
		register(t, handler)

		w := doJSON(t, handler, http.MethodPost, "/api/v1/sessions",
			`{"email":"bob@holberton.io","password":"secret"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		cookie := sessionCookie(t, w)
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)

		body := decodeBody(t, w)
		assert.Equal(t, "bob@holberton.io", body["email"])
		assert.NotEmpty(t, body["id"])
	})

	t.Run("wrong password and unknown email both 401", func(t *testing.T) {
		handler := newTestHandler(t)
		register(t, handler)

		wrong := doJSON(t, handler, http.MethodPost, "/api/v1/sessions",
			`{"email":"bob@holberton.io","password":"wrong"}`)
		unknown := doJSON(t, handler, http.MethodPost, "/api/v1/sessions",
			`{"email":"ghost@holberton.io","password":"secret"}`)

		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, decodeBody(t, wrong)["error"], decodeBody(t, unknown)["error"])
	})

	t.Run("missing fields 400", func(t *testing.T) {
		handler := newTestHandler(t)

		w := doJSON(t, handler, http.MethodPost, "/api/v1/sessions", `{"email":"bob@holberton.io"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("second login invalidates the first session", func(t *testing.T) {
		handler := newTestHandler(t)
		register(t, handler)

		first := doJSON(t, handler, http.MethodPost, "/api/v1/sessions",
			`{"email":"bob@holberton.io","password":"secret"}`)
		firstCookie := sessionCookie(t, first)

		second := doJSON(t, handler, http.MethodPost, "/api/v1/sessions",
			`{"email":"bob@holberton.io","password":"secret"}`)
		secondCookie := sessionCookie(t, second)

		assert.NotEqual(t, firstCookie.Value, secondCookie.Value)

		stale := doJSON(t, handler, http.MethodGet, "/api/v1/users/me", "", firstCookie)
		assert.Equal(t, http.StatusUnauthorized, stale.Code)

		fresh := doJSON(t, handler, http.MethodGet, "/api/v1/users/me", "", secondCookie)
		assert.Equal(t, http.StatusOK, fresh.Code)
	})
}

func TestHandleLogin_BasicSchemeSkipsSession(t *testing.T) {
	repo := memory.NewUserRepository()
	svc, err := auth.NewService(repo, auth.NewArgon2idHasher(), auth.NewRandomTokenGenerator())
	require.NoError(t, err)

	g, err := gate.New(gate.SchemeBasic, "", publicPaths, svc)
	require.NoError(t, err)

	srv, err := httpapi.NewServer("127.0.0.1:0", svc, g, nil, nil)
	require.NoError(t, err)
	handler := srv.Handler()

	created := doJSON(t, handler, http.MethodPost, "/api/v1/users",
		`{"email":"bob@holberton.io","password":"secret"}`)
	require.Equal(t, http.StatusCreated, created.Code)

	login := doJSON(t, handler, http.MethodPost, "/api/v1/sessions",
		`{"email":"bob@holberton.io","password":"secret"}`)
	assert.Equal(t, http.StatusOK, login.Code)
	assert.Empty(t, login.Result().Cookies())

	// No orphan session hash is persisted for a token no client holds
	stored, err := repo.GetByEmail(context.Background(), "bob@holberton.io")
	require.NoError(t, err)
	assert.False(t, stored.HasSession())
}

func TestHandleLogout(t *testing.T) {
	t.Run("destroys the session", func(t *testing.T) {
		handler := newTestHandler(t)

		doJSON(t, handler, http.MethodPost, "/api/v1/users",
			`{"email":"bob@holberton.io","password":"secret"}`)
		login := doJSON(t, handler, http.MethodPost, "/api/v1/sessions",
			`{"email":"bob@holberton.io","password":"secret"}`)
		cookie := sessionCookie(t, login)

		logout := doJSON(t, handler, http.MethodDelete, "/api/v1/sessions", "", cookie)
		assert.Equal(t, http.StatusOK, logout.Code)

		// Cookie is expired client-side
		cleared := sessionCookie(t, logout)
		assert.Empty(t, cleared.Value)
		assert.Negative(t, cleared.MaxAge)

		// And the token no longer resolves
		me := doJSON(t, handler, http.MethodGet, "/api/v1/users/me", "", cookie)
		assert.Equal(t, http.StatusUnauthorized, me.Code)
	})

	t.Run("idempotent without a session", func(t *testing.T) {
		handler := newTestHandler(t)

		w := doJSON(t, handler, http.MethodDelete, "/api/v1/sessions", "")
		assert.Equal(t, http.StatusOK, w.Code)

		again := doJSON(t, handler, http.MethodDelete, "/api/v1/sessions", "",
			&http.Cookie{Name: cookieName, Value: "stale-token"})
		assert.Equal(t, http.StatusOK, again.Code)
	})
}

func TestHandleCurrentUser(t *testing.T) {
	handler := newTestHandler(t)

	doJSON(t, handler, http.MethodPost, "/api/v1/users",
		`{"email":"bob@holberton.io","password":"secret"}`)
	login := doJSON(t, handler, http.MethodPost, "/api/v1/sessions",
		`{"email":"bob@holberton.io","password":"secret"}`)
	cookie := sessionCookie(t, login)

	t.Run("returns the authenticated profile", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/users/me", "", cookie)
		assert.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "bob@holberton.io", body["email"])
		assert.NotEmpty(t, body["id"])
	})

	t.Run("no cookie 401", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/users/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown token 401", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/api/v1/users/me", "",
			&http.Cookie{Name: cookieName, Value: "stale-token"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
