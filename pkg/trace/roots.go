package trace

import (
	"os"
	"strings"
)

// Roots lists the install and data root locations used to decide whether a
// captured path is a directory boundary and which bucket it belongs to. It is
// passed in explicitly so classification stays testable against fabricated
// roots instead of reading process environment state.
type Roots struct {
	Program []string // "Program Files" family
	Data    []string // ProgramData / per-user AppData family
}

// Data-location markers recognized even when no explicit root matches.
var dataMarkers = []string{`\appdata\`, `\programdata\`}

// DefaultRoots builds the conventional Windows root set from the environment,
// with hard-coded fallbacks for the program roots.
func DefaultRoots() Roots {
	roots := Roots{
		Program: []string{
			envOr("ProgramFiles", `C:\Program Files`),
			envOr("ProgramFiles(x86)", `C:\Program Files (x86)`),
		},
	}
	roots.Data = append(roots.Data, envOr("ProgramData", `C:\ProgramData`))
	for _, name := range []string{"APPDATA", "LOCALAPPDATA"} {
		if value := os.Getenv(name); value != "" {
			roots.Data = append(roots.Data, value)
		}
	}
	return roots
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// isProgram reports whether path sits under one of the program roots.
func (r Roots) isProgram(path string) bool {
	lower := strings.ToLower(path)
	for _, root := range r.Program {
		if root != "" && strings.HasPrefix(lower, strings.ToLower(root)) {
			return true
		}
	}
	return false
}

// isKnown reports whether path resolves under any recognized root or carries
// a data-location marker.
func (r Roots) isKnown(path string) bool {
	lower := strings.ToLower(path)
	for _, root := range append(append([]string{}, r.Program...), r.Data...) {
		if root != "" && strings.HasPrefix(lower, strings.ToLower(root)) {
			return true
		}
	}
	for _, marker := range dataMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// classify tags a directory boundary as program or data. Anything not under a
// program root is data, matching the capture layout's two buckets.
func (r Roots) classify(path string) string {
	if r.isProgram(path) {
		return "program"
	}
	return "data"
}
