package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Risk grades a piece of input.
type Risk string

const (
	// RiskLow marks input that is safe to send, or rejected only for
	// being empty or too short.
	RiskLow Risk = "low"

	// RiskMedium marks overlong input or input that mentions secrets.
	RiskMedium Risk = "medium"

	// RiskHigh marks input carrying injection patterns or null bytes.
	RiskHigh Risk = "high"
)

const (
	// DefaultMaxLength is the longest input accepted, in characters.
	DefaultMaxLength = 10000

	// DefaultMinLength is the shortest input accepted, in characters.
	DefaultMinLength = 1

	longInputThreshold = 1000
)

// SuspiciousPatterns match fragments that look like shell injection.
var SuspiciousPatterns = []string{
	`;\s*rm\s+-rf`,
	`\$\(.*\)`,
	"`.*`",
	`&&\s*rm`,
	`\|\s*sh`,
	`>\s*/dev/`,
	`<\s*\(`,
	`eval\s+`,
	`exec\s+`,
}

var sensitiveKeywords = []string{"password", "secret", "token", "key"}

// Rejection explains why input was refused.
type Rejection struct {
	Reason string `json:"reason"`
	Risk   Risk   `json:"risk"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("validate: %s (risk %s)", r.Reason, r.Risk)
}

// Validator checks and sanitizes input. Safe for concurrent use.
type Validator struct {
	suspicious *regexp.Regexp
	minLength  int
	maxLength  int
}

// Option configures a Validator.
type Option func(*Validator)

// WithMaxLength overrides DefaultMaxLength.
func WithMaxLength(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.maxLength = n
		}
	}
}

// New creates a Validator with SuspiciousPatterns.
func New(opts ...Option) *Validator {
	v := &Validator{
		suspicious: regexp.MustCompile("(?i)" + strings.Join(SuspiciousPatterns, "|")),
		minLength:  DefaultMinLength,
		maxLength:  DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns the sanitized input, or a Rejection.
func (v *Validator) Validate(raw string) (string, *Rejection) {
	n := utf8.RuneCountInString(raw)
	if n < v.minLength {
		return "", &Rejection{Reason: "Input is too short", Risk: RiskLow}
	}
	if n > v.maxLength {
		return "", &Rejection{
			Reason: fmt.Sprintf("Input exceeds maximum length of %d characters", v.maxLength),
			Risk:   RiskMedium,
		}
	}
	if v.suspicious.MatchString(raw) {
		return "", &Rejection{Reason: "Input contains potentially dangerous patterns", Risk: RiskHigh}
	}
	if strings.ContainsRune(raw, 0) {
		return "", &Rejection{Reason: "Input contains null bytes", Risk: RiskHigh}
	}

	clean := Sanitize(raw)
	if clean == "" {
		return "", &Rejection{Reason: "Input is too short", Risk: RiskLow}
	}
	return clean, nil
}

// SafeForLLM reports whether raw validates at low risk.
func (v *Validator) SafeForLLM(raw string) bool {
	_, rej := v.Validate(raw)
	return rej == nil
}

// Assess grades raw and explains the grade. Valid input that mentions
// credentials is medium risk.
func (v *Validator) Assess(raw string) (Risk, string) {
	if _, rej := v.Validate(raw); rej != nil {
		return rej.Risk, rej.Reason
	}

	lower := strings.ToLower(raw)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return RiskMedium, "Input may contain sensitive information"
		}
	}
	if utf8.RuneCountInString(raw) > longInputThreshold {
		return RiskLow, "Input is unusually long"
	}
	return RiskLow, "Input appears safe"
}

// Sanitize trims, drops null bytes and collapses internal whitespace.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.Join(strings.Fields(s), " ")
}
