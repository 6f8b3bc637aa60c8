package packager

import (
	"fmt"
	"strings"
)

// ❌ ValidationError aggregates every manifest source path that does not
// exist, so the caller sees the complete list in one report.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("the following source paths were not found:\n%s", strings.Join(e.Missing, "\n"))
}

// ❌ OutputNotEmptyError is raised before any mutation when the destination
// already holds content; packaging refuses to merge into an occupied folder.
type OutputNotEmptyError struct {
	Path string
}

func (e *OutputNotEmptyError) Error() string {
	return fmt.Sprintf("output directory %q is not empty: provide an empty path or remove its contents", e.Path)
}

// ❌ FileSystemError wraps an IO failure with the offending path
type FileSystemError struct {
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("filesystem error at %q: %v", e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}
