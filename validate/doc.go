// Package validate screens natural-language input before it reaches a
// model: length limits, injection-looking fragments and null bytes are
// rejected, and accepted input is whitespace-normalized.
package validate
