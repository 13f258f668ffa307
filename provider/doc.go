// Package provider talks to the remote language models that turn a request
// into a shell command.
//
// A Provider sends one completion request and returns the raw model text.
// ParseTranslation pulls the structured answer out of that text. Two
// clients are included: OpenAI (and compatible) chat completions, and
// Gemini generateContent.
package provider
