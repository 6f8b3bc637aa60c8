// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package packager executes a capture manifest: it mirrors directories,
// copies files, exports registry keys and snapshots service and task
// definitions into a self-contained portable package directory.
package packager

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/portapak/pkg/execx"
	"github.com/walteh/portapak/pkg/manifest"
	"github.com/walteh/portapak/pkg/pathutil"
	"github.com/walteh/portapak/pkg/uilog"
	"gitlab.com/tozd/go/errors"
)

// 📂 Output layout of a portable package
const (
	DirProgramFiles = "ProgramFiles"
	DirProgramData  = "ProgramData"
	DirRegistry     = "Registry"
	DirServices     = "Services"
	DirTasks        = "Tasks"
	DirShortcuts    = "Shortcuts"

	ManifestFileName = "manifest.json"
	RestoreFileName  = "Restore_Template.cmd"
)

// 📊 Result summarizes a successful packaging run
type Result struct {
	Directories    int
	Files          int
	RegistryKeys   int
	Services       int
	ScheduledTasks int
	Shortcuts      int
	OutputDir      string
}

// 🏃 Packager drives the Validating → Preparing → Capturing → Finalizing
// sequence. Any step failure aborts the run; already-written output is left
// in place (no rollback).
type Packager struct {
	sink   *uilog.Logger
	runner *execx.Runner
	now    func() time.Time
}

// Option customizes a Packager.
type Option func(*Packager)

// WithClock replaces the timestamp source for the persisted manifest record.
func WithClock(now func() time.Time) Option {
	return func(p *Packager) { p.now = now }
}

// 🏭 New creates a packager reporting progress to sink and invoking external
// tools through runner.
func New(sink *uilog.Logger, runner *execx.Runner, opts ...Option) *Packager {
	p := &Packager{
		sink:   sink,
		runner: runner,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// 🏃 Run packages the manifest into outputDir. With dryRun set, every
// mutating step is skipped while the intended commands are still logged, so
// a dry run is a faithful preview of exactly what would execute.
func (p *Packager) Run(ctx context.Context, m *manifest.Manifest, outputDir string, dryRun bool) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	if err := m.Validate(); err != nil {
		return nil, errors.Errorf("validating manifest: %w", err)
	}

	appName := m.AppName
	p.sink.Line("packaging %q into %s", appName, outputDir)
	logger.Info().Str("app", appName).Str("output", outputDir).Bool("dry_run", dryRun).Msg("packaging run starting")

	if err := p.validateSources(m); err != nil {
		return nil, errors.Errorf("validating source paths: %w", err)
	}

	if err := p.prepareOutput(outputDir, dryRun); err != nil {
		return nil, errors.Errorf("preparing output directory: %w", err)
	}

	if err := p.capture(ctx, m, outputDir, dryRun); err != nil {
		return nil, err
	}

	if err := p.finalize(ctx, m, outputDir, dryRun); err != nil {
		return nil, err
	}

	p.sink.Line("portable package created")
	return &Result{
		Directories:    len(m.Directories),
		Files:          len(m.Files),
		RegistryKeys:   len(m.RegistryKeys),
		Services:       len(m.Services),
		ScheduledTasks: len(m.ScheduledTasks),
		Shortcuts:      len(m.Shortcuts),
		OutputDir:      outputDir,
	}, nil
}

// validateSources stats every declared source path and aggregates all missing
// ones into a single error, before any mutation occurs.
func (p *Packager) validateSources(m *manifest.Manifest) error {
	var missing []string
	check := func(path string) {
		expanded := pathutil.Expand(path)
		if _, err := os.Stat(expanded); err != nil {
			missing = append(missing, expanded)
		}
	}
	for _, dir := range m.Directories {
		check(dir.Path)
	}
	for _, file := range m.Files {
		check(file)
	}
	for _, shortcut := range m.Shortcuts {
		check(shortcut)
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// prepareOutput refuses a non-empty destination, then creates the output root
// and its category subfolders. The emptiness check is still evaluated for a
// dry run but only reported, never fatal.
func (p *Packager) prepareOutput(outputDir string, dryRun bool) error {
	entries, err := os.ReadDir(outputDir)
	if err == nil && len(entries) > 0 {
		if dryRun {
			p.sink.Warn("output directory %s is not empty (a real run would abort here)", outputDir)
		} else {
			return &OutputNotEmptyError{Path: outputDir}
		}
	}

	if dryRun {
		p.sink.Line("would create output layout under %s", outputDir)
		return nil
	}

	for _, sub := range []string{"", DirProgramFiles, DirProgramData, DirRegistry, DirServices, DirTasks, DirShortcuts} {
		path := filepath.Join(outputDir, sub)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return &FileSystemError{Path: path, Err: err}
		}
	}
	return nil
}

// capture runs the per-category steps strictly sequentially, in manifest
// order within each category. The first failure fails the run.
func (p *Packager) capture(ctx context.Context, m *manifest.Manifest, outputDir string, dryRun bool) error {
	for _, entry := range m.Directories {
		if err := p.captureDirectory(ctx, entry, outputDir, dryRun); err != nil {
			return errors.Errorf("capturing directory %s: %w", entry.Path, err)
		}
	}
	for _, file := range m.Files {
		if err := p.captureFile(ctx, file, outputDir, dryRun); err != nil {
			return errors.Errorf("capturing file %s: %w", file, err)
		}
	}
	for _, key := range m.RegistryKeys {
		if err := p.captureRegistryKey(ctx, key, outputDir, dryRun); err != nil {
			return errors.Errorf("capturing registry key %s: %w", key, err)
		}
	}
	for _, service := range m.Services {
		if err := p.captureService(ctx, service, outputDir, dryRun); err != nil {
			return errors.Errorf("capturing service %s: %w", service, err)
		}
	}
	for _, task := range m.ScheduledTasks {
		if err := p.captureScheduledTask(ctx, task, outputDir, dryRun); err != nil {
			return errors.Errorf("capturing scheduled task %s: %w", task, err)
		}
	}
	for _, shortcut := range m.Shortcuts {
		if err := p.captureShortcut(ctx, shortcut, outputDir, dryRun); err != nil {
			return errors.Errorf("capturing shortcut %s: %w", shortcut, err)
		}
	}
	return nil
}

// finalize writes the timestamped manifest record and the human-completable
// restore template into the output root.
func (p *Packager) finalize(ctx context.Context, m *manifest.Manifest, outputDir string, dryRun bool) error {
	manifestPath := filepath.Join(outputDir, ManifestFileName)
	p.sink.Line("[manifest] %s", manifestPath)
	if !dryRun {
		if err := manifest.SaveRecord(ctx, manifestPath, m, p.now()); err != nil {
			return errors.Errorf("writing manifest record: %w", err)
		}
	}

	restorePath := filepath.Join(outputDir, RestoreFileName)
	p.sink.Line("[restore stub] %s", restorePath)
	if !dryRun {
		contents := buildRestoreTemplate(m)
		if err := os.WriteFile(restorePath, []byte(contents), 0o644); err != nil {
			return &FileSystemError{Path: restorePath, Err: err}
		}
	}
	return nil
}
