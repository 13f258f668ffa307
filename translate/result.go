package translate

import (
	"time"

	"github.com/jonwraymond/gptshell/provider"
	"github.com/jonwraymond/gptshell/validate"
)

// Context describes where the command will run.
type Context = provider.Context

// Outcome names the pipeline branch that produced a Result.
type Outcome string

const (
	OutcomeCache       Outcome = "cache"
	OutcomePrimary     Outcome = "primary"
	OutcomeFallback    Outcome = "fallback"
	OutcomeDegraded    Outcome = "degraded"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeRejected    Outcome = "rejected"
)

// Outcomes lists every Outcome.
var Outcomes = []Outcome{
	OutcomeCache, OutcomePrimary, OutcomeFallback,
	OutcomeDegraded, OutcomeRateLimited, OutcomeRejected,
}

// Messages of the degraded translation.
const (
	DegradedExplanation = "Service temporarily unavailable. Please try again."
	DegradedWarning     = "All LLM services are currently unavailable."
)

// Result is the answer to one Translate call.
type Result struct {
	// Translation is nil for OutcomeRateLimited and OutcomeRejected.
	Translation *provider.Translation `json:"translation,omitempty"`
	Outcome     Outcome               `json:"outcome"`
	Provider    string                `json:"provider,omitempty"`
	Fingerprint string                `json:"fingerprint,omitempty"`
	Latency     time.Duration         `json:"latency"`

	// Rejection is set for OutcomeRejected.
	Rejection *validate.Rejection `json:"rejection,omitempty"`

	// Err is the cause behind a degraded, rate-limited or rejected result.
	Err error `json:"-"`
}

// OK reports whether the Result carries a usable command.
func (r Result) OK() bool {
	return r.Translation != nil && r.Translation.Command != "" &&
		r.Outcome != OutcomeDegraded
}

// Degraded returns the translation served when no provider answered.
func Degraded() *provider.Translation {
	warning := DegradedWarning
	return &provider.Translation{
		Explanation: DegradedExplanation,
		Warning:     &warning,
		Safe:        false,
	}
}
