package provider

import (
	"encoding/json"
	"strings"
)

// Translation is the structured answer a model returns for a request.
type Translation struct {
	Command     string  `json:"command"`
	Explanation string  `json:"explanation"`
	Warning     *string `json:"warning"`
	Safe        bool    `json:"safe"`
}

// WarningText returns the warning or "".
func (t *Translation) WarningText() string {
	if t == nil || t.Warning == nil {
		return ""
	}
	return *t.Warning
}

// ParseTranslation decodes the first balanced JSON object in text that
// carries a non-empty command. Models often wrap the object in prose or
// code fences, and the prose may itself hold braces ("-exec rm {} ;");
// spans that do not decode or have no command are skipped. It returns
// false when no object qualifies.
func ParseTranslation(text string) (*Translation, bool) {
	for from := 0; ; {
		i := strings.IndexByte(text[from:], '{')
		if i < 0 {
			return nil, false
		}
		start := from + i
		if end, ok := balancedEnd(text, start); ok {
			var t Translation
			if err := json.Unmarshal([]byte(text[start:end]), &t); err == nil && strings.TrimSpace(t.Command) != "" {
				return &t, true
			}
		}
		from = start + 1
	}
}

// balancedEnd returns the index just past the '}' closing the '{' at
// start, skipping braces inside string literals.
func balancedEnd(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escape:
				escape = false
			case c == '\\':
				escape = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
