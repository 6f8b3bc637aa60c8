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

// Package manifest defines the capture manifest exchanged between trace
// classification and snapshot packaging, and its on-disk record form.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📁 Directory entry kinds. The kind decides which top-level bucket of the
// portable package a mirrored directory lands under.
const (
	TypeProgram = "program"
	TypeData    = "data"
)

// 📦 DirectoryEntry describes one directory tree to mirror
type DirectoryEntry struct {
	Path   string `json:"path"`   // Absolute source path
	Target string `json:"target"` // Relative path under the category bucket
	Type   string `json:"type"`   // "program" or "data"
}

// 📚 Manifest is the full description of everything a packaging run captures
type Manifest struct {
	AppName        string           `json:"app_name"`
	Directories    []DirectoryEntry `json:"directories"`
	Files          []string         `json:"files"`
	RegistryKeys   []string         `json:"registry_keys"`
	Services       []string         `json:"services"`
	ScheduledTasks []string         `json:"scheduled_tasks"`
	Shortcuts      []string         `json:"shortcuts"`
}

// 🕐 Record wraps a manifest with its generation timestamp for persistence
type Record struct {
	GeneratedAt time.Time `json:"generated_at"`
	Payload     Manifest  `json:"payload"`
}

// ❌ MalformedInputError reports an unparsable document or a manifest with
// structural problems. All problems found in one pass are aggregated.
type MalformedInputError struct {
	Source   string
	Problems []string
}

func (e *MalformedInputError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("malformed input: %s", e.Source)
	}
	return fmt.Sprintf("malformed input: %s: %s", e.Source, strings.Join(e.Problems, "; "))
}

// 🔍 Validate checks the manifest's structure and collects every problem
// before reporting, so a hand-authored manifest is fixed in one round trip.
func (m *Manifest) Validate() error {
	var problems []string
	if strings.TrimSpace(m.AppName) == "" {
		problems = append(problems, "app_name must not be empty")
	}
	for i, dir := range m.Directories {
		if dir.Path == "" {
			problems = append(problems, fmt.Sprintf("directories[%d]: path must not be empty", i))
		}
		if dir.Type != TypeProgram && dir.Type != TypeData {
			problems = append(problems, fmt.Sprintf("directories[%d]: type must be %q or %q, got %q", i, TypeProgram, TypeData, dir.Type))
		}
	}
	for i, file := range m.Files {
		if file == "" {
			problems = append(problems, fmt.Sprintf("files[%d]: path must not be empty", i))
		}
	}
	for i, key := range m.RegistryKeys {
		if key == "" {
			problems = append(problems, fmt.Sprintf("registry_keys[%d]: key must not be empty", i))
		}
	}
	if len(problems) > 0 {
		return &MalformedInputError{Source: "manifest", Problems: problems}
	}
	return nil
}

// 🎯 TargetOrBase returns the directory entry's relative destination, falling back
// to the source's final path component when no target was set.
func (d DirectoryEntry) TargetOrBase() string {
	if d.Target != "" {
		return d.Target
	}
	trimmed := strings.TrimRight(d.Path, `\`)
	if idx := strings.LastIndex(trimmed, `\`); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// 💾 SaveRecord writes the manifest wrapped in a timestamped record as
// indented JSON.
func SaveRecord(ctx context.Context, path string, m *Manifest, generatedAt time.Time) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("writing manifest record")

	record := Record{
		GeneratedAt: generatedAt.UTC(),
		Payload:     *m,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.Errorf("encoding manifest record: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Errorf("writing manifest record: %w", err)
	}
	return nil
}

// 💾 Save writes the bare manifest payload as indented JSON, creating parent
// directories as needed.
func Save(ctx context.Context, path string, m *Manifest) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("writing manifest")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Errorf("creating manifest directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Errorf("writing manifest: %w", err)
	}
	return nil
}
