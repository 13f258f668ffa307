package auth

import (
	"slices"
	"time"
)

// Method indicates how a caller was authenticated.
type Method string

const (
	MethodAPIKey    Method = "api_key"
	MethodJWT       Method = "jwt"
	MethodAnonymous Method = "anonymous"
)

// Scopes understood by the HTTP API.
const (
	ScopeTranslate = "translate"
	ScopeRead      = "read"
)

// Identity is an authenticated API caller.
type Identity struct {
	Principal string
	Scopes    []string
	Method    Method

	// Claims holds token claims or key metadata.
	Claims map[string]any

	// ExpiresAt is zero when the credential never expires.
	ExpiresAt time.Time
}

// HasScope reports whether the identity was granted scope. An identity
// with the "*" scope has every scope.
func (id *Identity) HasScope(scope string) bool {
	return slices.Contains(id.Scopes, scope) || slices.Contains(id.Scopes, "*")
}

// IsExpired reports whether ExpiresAt has passed.
func (id *Identity) IsExpired() bool {
	return !id.ExpiresAt.IsZero() && time.Now().After(id.ExpiresAt)
}

// AnonymousIdentity is attached to requests when authentication is disabled.
func AnonymousIdentity() *Identity {
	return &Identity{
		Principal: "anonymous",
		Scopes:    []string{"*"},
		Method:    MethodAnonymous,
	}
}
