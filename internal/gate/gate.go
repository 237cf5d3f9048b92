// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package gate decides, per request path, whether a caller must
// present valid credentials, and resolves the authenticated principal
// from the configured credential scheme.
package gate

import (
	"context"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// Scheme selects how a gate extracts and resolves credentials.
type Scheme string

// Supported credential schemes.
const (
	// SchemeNone disables authentication entirely.
	SchemeNone Scheme = "none"
	// SchemeBasic reads base64 email:password pairs from the
	// Authorization header.
	SchemeBasic Scheme = "basic"
	// SchemeSession reads an opaque session token from a named cookie.
	SchemeSession Scheme = "session"
)

// ParseScheme validates a configured scheme name.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeNone, SchemeBasic, SchemeSession:
		return Scheme(s), nil
	default:
		return "", oops.Code("GATE_INVALID_SCHEME").
			With("scheme", s).
			Errorf("unknown auth scheme %q", s)
	}
}

// PrincipalResolver is the slice of the auth service the gate needs.
type PrincipalResolver interface {
	UserFromSession(ctx context.Context, token string) (*auth.User, error)
	UserFromCredentials(ctx context.Context, email, password string) (*auth.User, error)
}

// compiledPattern holds an excluded-path pattern and its compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Gate is a per-request authorization gate configured once at startup.
// It is immutable after construction and safe for concurrent use.
type Gate struct {
	scheme     Scheme
	cookieName string
	excluded   []compiledPattern
	resolver   PrincipalResolver
}

// New creates a Gate. Excluded patterns are glob-compiled once;
// an invalid pattern is a configuration error and fails construction.
// The resolver may be nil only for SchemeNone.
func New(scheme Scheme, cookieName string, excluded []string, resolver PrincipalResolver) (*Gate, error) {
	if _, err := ParseScheme(string(scheme)); err != nil {
		return nil, err
	}
	if scheme != SchemeNone && resolver == nil {
		return nil, oops.Code("GATE_INVALID").Errorf("principal resolver is required for scheme %q", scheme)
	}
	if scheme == SchemeSession && cookieName == "" {
		return nil, oops.Code("GATE_INVALID").Errorf("session cookie name is required for the session scheme")
	}

	compiled := make([]compiledPattern, 0, len(excluded))
	for _, p := range excluded {
		g, err := glob.Compile(normalizePath(p))
		if err != nil {
			return nil, oops.Code("GATE_INVALID_PATTERN").
				With("pattern", p).
				Wrap(err)
		}
		compiled = append(compiled, compiledPattern{pattern: p, glob: g})
	}

	return &Gate{
		scheme:     scheme,
		cookieName: cookieName,
		excluded:   compiled,
		resolver:   resolver,
	}, nil
}

// Scheme returns the configured credential scheme.
func (g *Gate) Scheme() Scheme {
	return g.scheme
}

// CookieName returns the configured session cookie name.
func (g *Gate) CookieName() string {
	return g.cookieName
}

// RequireAuth reports whether the path requires authentication. It is
// false only when the path matches an excluded pattern; an empty path
// or an empty exclusion list always requires auth.
func (g *Gate) RequireAuth(path string) bool {
	if g.scheme == SchemeNone {
		return false
	}
	if path == "" || len(g.excluded) == 0 {
		return true
	}

	normalized := normalizePath(path)
	for _, p := range g.excluded {
		if p.glob.Match(normalized) {
			return false
		}
	}
	return true
}

// RequireAuth is the pure form of Gate.RequireAuth: it reports whether
// path requires authentication given the excluded patterns. Matching
// is case-sensitive, a single trailing slash is stripped from both
// sides, and '*' matches any run of characters including '/'.
// Patterns that fail to compile never match.
func RequireAuth(path string, excluded []string) bool {
	if path == "" || len(excluded) == 0 {
		return true
	}

	normalized := normalizePath(path)
	for _, pattern := range excluded {
		g, err := glob.Compile(normalizePath(pattern))
		if err != nil {
			continue
		}
		if g.Match(normalized) {
			return false
		}
	}
	return true
}

// normalizePath strips exactly one trailing slash.
func normalizePath(p string) string {
	if strings.HasSuffix(p, "/") {
		return p[:len(p)-1]
	}
	return p
}
