package auth

import (
	"context"
	"net/http"
)

// Authenticator validates the credentials on a request.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Context: Authenticate should honor cancellation.
//   - Errors: a rejected credential is reported as a Result with
//     Authenticated false and a nil error. A non-nil error means the
//     check itself could not run.
type Authenticator interface {
	// Name identifies the authenticator in logs.
	Name() string

	// Supports reports whether the request carries a credential this
	// authenticator understands.
	Supports(r *http.Request) bool

	Authenticate(ctx context.Context, r *http.Request) (*Result, error)
}

// Result is the outcome of one authentication attempt.
type Result struct {
	Authenticated bool
	Identity      *Identity
	Err           error
	Method        Method
}

// Success returns an authenticated Result for id.
func Success(id *Identity) *Result {
	return &Result{Authenticated: true, Identity: id, Method: id.Method}
}

// Failure returns a rejected Result.
func Failure(err error, method Method) *Result {
	return &Result{Err: err, Method: method}
}

// Func adapts plain functions to Authenticator.
type Func struct {
	ID         string
	SupportsFn func(r *http.Request) bool
	Fn         func(ctx context.Context, r *http.Request) (*Result, error)
}

func (f *Func) Name() string { return f.ID }

func (f *Func) Supports(r *http.Request) bool {
	if f.SupportsFn == nil {
		return true
	}
	return f.SupportsFn(r)
}

func (f *Func) Authenticate(ctx context.Context, r *http.Request) (*Result, error) {
	return f.Fn(ctx, r)
}

var _ Authenticator = (*Func)(nil)
