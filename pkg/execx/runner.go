// Package execx wraps blocking external tool invocations. Each tool carries
// its own success predicate: robocopy treats exit codes 0-7 as informational,
// everything else in the capture pipeline demands exact zero.
package execx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/portapak/pkg/uilog"
	"gitlab.com/tozd/go/errors"
)

// SuccessFunc decides whether an exit code counts as success for one tool.
type SuccessFunc func(code int) bool

// ExactZero is the strict convention used by reg.exe, sc.exe and schtasks.
func ExactZero(code int) bool { return code == 0 }

// Band accepts any exit code in the inclusive [lo, hi] range. Robocopy's
// documented "all informational, no fatal" band is 0-7.
func Band(lo, hi int) SuccessFunc {
	return func(code int) bool { return code >= lo && code <= hi }
}

// 🔧 Invocation describes one external tool call
type Invocation struct {
	Tool    string
	Args    []string
	Success SuccessFunc // nil means ExactZero
}

// CommandLine renders the invocation the way it is echoed to the sink.
func (inv Invocation) CommandLine() string {
	return strings.Join(append([]string{inv.Tool}, inv.Args...), " ")
}

// 📤 Output carries the captured streams of a completed invocation
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ❌ ExternalCommandError reports a tool invocation whose exit code failed
// its success predicate. Both streams are preserved verbatim: they are the
// only diagnostic an opaque system tool offers.
type ExternalCommandError struct {
	Cmd      string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExternalCommandError) Error() string {
	return fmt.Sprintf("command failed with exit code %d: %s", e.ExitCode, e.Cmd)
}

// Diagnostic returns the full captured output for logging.
func (e *ExternalCommandError) Diagnostic() string {
	return fmt.Sprintf("command: %s\nexit code: %d\nSTDOUT:\n%s\nSTDERR:\n%s", e.Cmd, e.ExitCode, e.Stdout, e.Stderr)
}

// ExecFunc is the process-spawning seam. Tests inject a fake so no real
// system tool ever runs.
type ExecFunc func(ctx context.Context, tool string, args []string) (stdout, stderr string, exitCode int, err error)

// 🏃 Runner invokes external tools synchronously
type Runner struct {
	sink *uilog.Logger
	exec ExecFunc
}

// Option customizes a Runner.
type Option func(*Runner)

// WithExec replaces the process-spawning function.
func WithExec(fn ExecFunc) Option {
	return func(r *Runner) { r.exec = fn }
}

// 🏭 NewRunner creates a runner echoing invocations to sink
func NewRunner(sink *uilog.Logger, opts ...Option) *Runner {
	r := &Runner{
		sink: sink,
		exec: realExec,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// 🏃 Run logs the invocation unconditionally, then executes it unless dryRun
// is set. A dry run returns an empty Output and no error.
func (r *Runner) Run(ctx context.Context, inv Invocation, dryRun bool) (Output, error) {
	logger := zerolog.Ctx(ctx)
	cmdline := inv.CommandLine()
	r.sink.Command(cmdline)
	logger.Debug().Str("cmd", cmdline).Bool("dry_run", dryRun).Msg("running external tool")

	if dryRun {
		return Output{}, nil
	}

	stdout, stderr, exitCode, err := r.exec(ctx, inv.Tool, inv.Args)
	if err != nil {
		return Output{}, errors.Errorf("starting %s: %w", inv.Tool, err)
	}

	out := Output{Stdout: stdout, Stderr: stderr, ExitCode: exitCode}
	success := inv.Success
	if success == nil {
		success = ExactZero
	}
	if !success(exitCode) {
		return out, &ExternalCommandError{
			Cmd:      cmdline,
			ExitCode: exitCode,
			Stdout:   stdout,
			Stderr:   stderr,
		}
	}
	return out, nil
}

func realExec(ctx context.Context, tool string, args []string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, tool, args...)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdoutBuf.String(), stderrBuf.String(), exitErr.ExitCode(), nil
		}
		return "", "", 0, err
	}
	return stdoutBuf.String(), stderrBuf.String(), 0, nil
}
