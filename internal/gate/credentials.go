// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package gate

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// basicPrefix is the scheme marker on Authorization header values.
const basicPrefix = "Basic "

// ExtractCredential pulls the raw credential for the configured scheme
// out of the request: the base64 payload after "Basic " for the basic
// scheme, or the named cookie's value for the session scheme. Returns
// "" when the credential is absent or malformed.
func (g *Gate) ExtractCredential(r *http.Request) string {
	if r == nil {
		return ""
	}

	switch g.scheme {
	case SchemeBasic:
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, basicPrefix) {
			return ""
		}
		return header[len(basicPrefix):]
	case SchemeSession:
		cookie, err := r.Cookie(g.cookieName)
		if err != nil {
			return ""
		}
		return cookie.Value
	default:
		return ""
	}
}

// ResolvePrincipal resolves the authenticated user from a raw
// credential. Decode failures, malformed payloads, bad credentials,
// and unknown session tokens all yield the same wrapped
// auth.ErrNotFound, so callers answer with one uniform "unauthorized".
func (g *Gate) ResolvePrincipal(ctx context.Context, raw string) (*auth.User, error) {
	if raw == "" {
		return nil, oops.Code("GATE_NO_CREDENTIAL").Wrap(auth.ErrNotFound)
	}

	switch g.scheme {
	case SchemeBasic:
		email, password, ok := decodeBasic(raw)
		if !ok {
			return nil, oops.Code("GATE_MALFORMED_CREDENTIAL").Wrap(auth.ErrNotFound)
		}
		return g.resolver.UserFromCredentials(ctx, email, password)
	case SchemeSession:
		return g.resolver.UserFromSession(ctx, raw)
	default:
		return nil, oops.Code("GATE_NO_CREDENTIAL").Wrap(auth.ErrNotFound)
	}
}

// decodeBasic decodes a base64 email:password payload, splitting on
// the first colon so passwords may contain colons.
func decodeBasic(payload string) (email, password string, ok bool) {
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", "", false
	}

	email, password, found := strings.Cut(string(decoded), ":")
	if !found || email == "" {
		return "", "", false
	}
	return email, password, true
}
