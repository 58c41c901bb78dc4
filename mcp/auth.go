package mcp

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerAuth validates shared-secret bearer credentials per RFC 6750. The
// server models no user identity; a request either carries the expected
// token or it does not.
type BearerAuth struct {
	// Token is the expected bearer token. An empty value means the server
	// is misconfigured and every request fails closed.
	Token string

	// Scope is an optional required scope advertised in challenges.
	Scope string
}

// authError describes an HTTP-level authentication failure. Tag carries the
// RFC 6750 error attribute for the WWW-Authenticate challenge; it is empty
// when the request supplied no credentials at all.
type authError struct {
	status int
	tag    string
	detail string
}

// Authenticate checks the Authorization header against the expected token.
// It returns nil when the request is authorized.
func (a *BearerAuth) Authenticate(r *http.Request) *authError {
	if a.Token == "" {
		return &authError{
			status: http.StatusInternalServerError,
			detail: "server is not configured: auth token is missing",
		}
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return &authError{
			status: http.StatusUnauthorized,
			detail: "missing Authorization header",
		}
	}

	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return &authError{
			status: http.StatusUnauthorized,
			tag:    "invalid_request",
			detail: "expected Authorization: Bearer <token>",
		}
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) != 1 {
		return &authError{
			status: http.StatusForbidden,
			tag:    "invalid_token",
			detail: "forbidden: invalid token",
		}
	}

	return nil
}
