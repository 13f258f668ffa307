package shell

import (
	"fmt"
	"strings"
)

// DangerousFragments are substrings that mark a command as destructive or
// disruptive. Matching is case-insensitive.
var DangerousFragments = []string{
	"rm -rf", "mkfs", "dd", "format", "fdisk",
	"shutdown", "reboot", "init 0", "init 6",
	"kill -9", "killall", ":(){:|:&};:",
}

// IsDangerous reports whether command contains any DangerousFragments.
// Matching is by substring, so "dd" also matches "add".
func IsDangerous(command string) bool {
	lower := strings.ToLower(command)
	for _, frag := range DangerousFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// DefaultMaxOutputLines is the default cap for TruncateLines.
const DefaultMaxOutputLines = 1000

// TruncateLines keeps the first max lines of s and appends a marker with
// the number of lines dropped. max <= 0 uses DefaultMaxOutputLines.
func TruncateLines(s string, max int) string {
	if max <= 0 {
		max = DefaultMaxOutputLines
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	return strings.Join(lines[:max], "\n") + fmt.Sprintf("\n... (%d more lines)", len(lines)-max)
}
