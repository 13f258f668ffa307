package auth

import (
	"context"
	"net/http"
)

// Chain tries authenticators in order and returns the first success.
type Chain []Authenticator

func (c Chain) Name() string { return "chain" }

// Supports reports whether any member supports r.
func (c Chain) Supports(r *http.Request) bool {
	for _, a := range c {
		if a.Supports(r) {
			return true
		}
	}
	return false
}

// Authenticate skips members that do not support r. When none succeed it
// returns the last rejection, or ErrMissingCredentials if nothing applied.
func (c Chain) Authenticate(ctx context.Context, r *http.Request) (*Result, error) {
	var last *Result
	for _, a := range c {
		if !a.Supports(r) {
			continue
		}
		res, err := a.Authenticate(ctx, r)
		if err != nil {
			return nil, err
		}
		if res.Authenticated {
			return res, nil
		}
		last = res
	}
	if last != nil {
		return last, nil
	}
	return Failure(ErrMissingCredentials, ""), nil
}

var _ Authenticator = Chain(nil)
