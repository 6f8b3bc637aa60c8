package packager

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/walteh/portapak/pkg/execx"
	"github.com/walteh/portapak/pkg/manifest"
	"github.com/walteh/portapak/pkg/pathutil"
)

// robocopyFlags is the fixed flag set for directory mirroring: full tree
// sync, ACL/attribute preservation, two retries with a two second wait,
// quiet file/dir/progress output.
var robocopyFlags = []string{"/MIR", "/COPYALL", "/R:2", "/W:2", "/NFL", "/NDL", "/NP"}

func (p *Packager) captureDirectory(ctx context.Context, entry manifest.DirectoryEntry, outputDir string, dryRun bool) error {
	source := pathutil.Expand(entry.Path)
	bucket := DirProgramFiles
	if entry.Type == manifest.TypeData {
		bucket = DirProgramData
	}
	dest := filepath.Join(outputDir, bucket, entry.TargetOrBase())

	p.sink.Capture("dir", fmt.Sprintf("%s -> %s", source, dest))
	if !dryRun {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return &FileSystemError{Path: dest, Err: err}
		}
	}

	inv := execx.Invocation{
		Tool:    "robocopy",
		Args:    append([]string{source, dest}, robocopyFlags...),
		Success: execx.Band(0, 7),
	}
	_, err := p.runner.Run(ctx, inv, dryRun)
	return err
}

func (p *Packager) captureFile(ctx context.Context, file string, outputDir string, dryRun bool) error {
	source := pathutil.Expand(file)
	dest := filepath.Join(outputDir, DirProgramFiles, filepath.Base(source))

	p.sink.Capture("file", fmt.Sprintf("%s -> %s", source, dest))
	if dryRun {
		return nil
	}
	return copyFile(source, dest)
}

func (p *Packager) captureRegistryKey(ctx context.Context, key string, outputDir string, dryRun bool) error {
	dest := filepath.Join(outputDir, DirRegistry, pathutil.SanitizeName(key)+".reg")

	p.sink.Capture("registry", key)
	inv := execx.Invocation{
		Tool: "reg",
		Args: []string{"export", key, dest, "/y"},
	}
	_, err := p.runner.Run(ctx, inv, dryRun)
	return err
}

func (p *Packager) captureService(ctx context.Context, service string, outputDir string, dryRun bool) error {
	dest := filepath.Join(outputDir, DirServices, pathutil.SanitizeName(service)+".txt")

	p.sink.Capture("service", service)
	config, err := p.runner.Run(ctx, execx.Invocation{
		Tool: "sc.exe",
		Args: []string{"qc", service},
	}, dryRun)
	if err != nil {
		return err
	}

	// The description query is best-effort: a service without one fails the
	// query, which must not fail the capture.
	description, err := p.runner.Run(ctx, execx.Invocation{
		Tool: "sc.exe",
		Args: []string{"qdescription", service},
	}, dryRun)
	if err != nil {
		p.sink.Warn("description query failed for %s, capturing configuration only", service)
		description = execx.Output{}
	}

	if dryRun {
		return nil
	}

	contents := config.Stdout + "\n" + description.Stdout
	if err := os.WriteFile(dest, []byte(contents), 0o644); err != nil {
		return &FileSystemError{Path: dest, Err: err}
	}
	return nil
}

func (p *Packager) captureScheduledTask(ctx context.Context, task string, outputDir string, dryRun bool) error {
	sanitized := pathutil.SanitizeName(strings.Trim(task, `\/`))
	dest := filepath.Join(outputDir, DirTasks, sanitized+".xml")

	p.sink.Capture("task", task)
	out, err := p.runner.Run(ctx, execx.Invocation{
		Tool: "schtasks",
		Args: []string{"/query", "/tn", task, "/xml"},
	}, dryRun)
	if err != nil {
		return err
	}

	if dryRun {
		return nil
	}
	if err := os.WriteFile(dest, []byte(out.Stdout), 0o644); err != nil {
		return &FileSystemError{Path: dest, Err: err}
	}
	return nil
}

func (p *Packager) captureShortcut(ctx context.Context, shortcut string, outputDir string, dryRun bool) error {
	source := pathutil.Expand(shortcut)
	dest := filepath.Join(outputDir, DirShortcuts, filepath.Base(source))

	p.sink.Capture("shortcut", fmt.Sprintf("%s -> %s", source, dest))
	if dryRun {
		return nil
	}
	return copyFile(source, dest)
}

// copyFile copies a single file preserving mode and modification time.
func copyFile(source, dest string) error {
	info, err := os.Stat(source)
	if err != nil {
		return &FileSystemError{Path: source, Err: err}
	}

	in, err := os.Open(source)
	if err != nil {
		return &FileSystemError{Path: source, Err: err}
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return &FileSystemError{Path: dest, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &FileSystemError{Path: dest, Err: err}
	}
	if err := out.Close(); err != nil {
		return &FileSystemError{Path: dest, Err: err}
	}
	if err := os.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
		return &FileSystemError{Path: dest, Err: err}
	}
	return nil
}
