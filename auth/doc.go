// Package auth authenticates callers of the gptshell HTTP API.
//
// Two credential types are supported: static API keys sent in the
// X-API-Key header, and HS256 bearer tokens. A Chain tries authenticators
// in order and Middleware rejects unauthenticated requests with 401.
package auth
