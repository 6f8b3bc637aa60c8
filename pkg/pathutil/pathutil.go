// Package pathutil provides the string transforms shared by trace
// classification and packaging. Paths handled here are Windows-style
// strings; nothing in this package touches the filesystem.
package pathutil

import (
	"os"
	"strings"
)

// Separator is the path separator used throughout captured manifests.
const Separator = `\`

// Normalize canonicalizes a raw path-like value: surrounding whitespace and
// quotes are trimmed, forward slashes become backslashes, and a bare drive
// letter ("C:") gains a trailing separator. Normalize is idempotent.
func Normalize(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.Trim(value, `"`)
	value = strings.ReplaceAll(value, "/", Separator)
	if strings.HasSuffix(value, ":") {
		value += Separator
	}
	return value
}

// IsSubpath reports whether child is equal to parent or contained beneath it.
// The comparison is case-insensitive and separator-aligned, so "C:\Foo" does
// not contain "C:\Foobar".
func IsSubpath(child, parent string) bool {
	childNorm := strings.ToLower(strings.TrimRight(child, Separator))
	parentNorm := strings.ToLower(strings.TrimRight(parent, Separator))
	return childNorm == parentNorm || strings.HasPrefix(childNorm, parentNorm+Separator)
}

// SanitizeName maps an arbitrary key/service/task name onto a filesystem-safe
// file name: alphanumerics, '-', '_' and '.' pass through, everything else
// becomes '_'.
func SanitizeName(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// BaseName returns the final path component of a backslash path, ignoring a
// trailing separator.
func BaseName(path string) string {
	trimmed := strings.TrimRight(path, Separator)
	if idx := strings.LastIndex(trimmed, Separator); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// HasExtension reports whether the final component of path carries a
// filename-style extension.
func HasExtension(path string) bool {
	base := BaseName(path)
	idx := strings.LastIndex(base, ".")
	return idx > 0 && idx < len(base)-1
}

// ParentDir returns the directory containing path, or path itself when it has
// no parent component.
func ParentDir(path string) string {
	trimmed := strings.TrimRight(path, Separator)
	idx := strings.LastIndex(trimmed, Separator)
	if idx < 0 {
		return path
	}
	parent := trimmed[:idx]
	if strings.HasSuffix(parent, ":") {
		parent += Separator
	}
	return parent
}

// Expand resolves %VAR% and $VAR environment references plus a leading "~"
// before a source path is validated or copied.
func Expand(path string) string {
	value := strings.TrimSpace(path)
	if strings.HasPrefix(value, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			value = home + value[1:]
		}
	}
	var b strings.Builder
	rest := value
	for {
		start := strings.Index(rest, "%")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+1:], "%")
		if end < 0 {
			b.WriteString(rest)
			break
		}
		name := rest[start+1 : start+1+end]
		b.WriteString(rest[:start])
		b.WriteString(os.Getenv(name))
		rest = rest[start+2+end:]
	}
	return os.Expand(b.String(), os.Getenv)
}
