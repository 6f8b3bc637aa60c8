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

// Package trace turns a traced-data XML export (paths, registry keys,
// service and task names observed during an installation) into a minimal,
// categorized capture manifest.
package trace

import (
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/portapak/pkg/manifest"
	"github.com/walteh/portapak/pkg/pathutil"
	"github.com/walteh/portapak/pkg/uilog"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options configures a classification run
type Options struct {
	// AppName overrides the manifest's app name (defaults to the trace
	// file's base name)
	AppName string
	// Roots are the install/data root locations used for directory tagging
	Roots Roots
	// IgnoreGlobs drops matching path values before bucketing. Patterns use
	// forward slashes (doublestar syntax); captured paths are slash-converted
	// for matching.
	IgnoreGlobs []string
	// Sink receives human-readable progress lines; nil discards them
	Sink *uilog.Logger
}

// Attribute names that carry path-like values, matched case-insensitively.
var pathAttrs = []string{"path", "location", "target"}

// 🌲 node is a generic XML element tree
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []node     `xml:",any"`
}

// 🎯 ClassifyFile parses the trace document at path and classifies it.
func ClassifyFile(ctx context.Context, path string, opts Options) (*manifest.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading trace document: %w", err)
	}
	if opts.AppName == "" {
		base := filepath.Base(path)
		opts.AppName = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return Classify(ctx, data, opts)
}

// 🎯 Classify extracts every path-like reference from the trace document,
// buckets each by shape, reduces the file-path set to its topmost ancestors
// and assembles the manifest. An empty manifest is valid output.
func Classify(ctx context.Context, doc []byte, opts Options) (*manifest.Manifest, error) {
	logger := zerolog.Ctx(ctx)
	sink := opts.Sink
	if sink == nil {
		sink = uilog.New(nil, zerolog.Nop())
	}

	var root node
	if err := xml.Unmarshal(doc, &root); err != nil {
		return nil, errors.Errorf("parsing trace document: %w",
			&manifest.MalformedInputError{Source: "trace document", Problems: []string{err.Error()}})
	}

	c := collector{
		opts:      opts,
		filePaths: map[string]string{},
		registry:  map[string]string{},
		services:  map[string]string{},
		tasks:     map[string]string{},
	}
	c.walk(root)

	logger.Debug().
		Int("file_paths", len(c.filePaths)).
		Int("registry_keys", len(c.registry)).
		Int("services", len(c.services)).
		Int("tasks", len(c.tasks)).
		Msg("collected trace references")
	sink.Line("collected %d paths, %d registry keys, %d services, %d tasks",
		len(c.filePaths), len(c.registry), len(c.services), len(c.tasks))

	reduced := reducePaths(values(c.filePaths))
	directories, files := c.pickDirectoriesAndFiles(reduced)
	sink.Line("reduced %d paths to %d directory boundaries and %d loose files",
		len(c.filePaths), len(directories), len(files))

	m := &manifest.Manifest{
		AppName:        opts.AppName,
		Directories:    directories,
		Files:          files,
		RegistryKeys:   sortedValues(c.registry),
		Services:       sortedValues(c.services),
		ScheduledTasks: sortedValues(c.tasks),
		Shortcuts:      []string{},
	}
	if m.AppName == "" {
		m.AppName = "PortableApp"
	}
	return m, nil
}

// collector accumulates case-insensitively deduplicated references.
type collector struct {
	opts      Options
	filePaths map[string]string
	registry  map[string]string
	services  map[string]string
	tasks     map[string]string
}

func (c *collector) walk(n node) {
	for _, attr := range n.Attrs {
		if !isPathAttr(attr.Name.Local) || attr.Value == "" {
			continue
		}
		norm := pathutil.Normalize(attr.Value)
		if c.ignored(norm) {
			continue
		}
		switch {
		case strings.HasPrefix(strings.ToUpper(norm), "HK"):
			put(c.registry, norm)
		case strings.HasPrefix(norm, `\`) && !strings.HasPrefix(norm, `\\`):
			// Heuristic: a single-leading-separator value is taken to be a
			// scheduled task name rather than a malformed file path.
			put(c.tasks, norm)
		case strings.Contains(norm, ":") || strings.HasPrefix(norm, `\\`):
			put(c.filePaths, norm)
		}
	}

	tag := strings.ToLower(n.XMLName.Local)
	if name := nameAttr(n); name != "" {
		if strings.HasPrefix(tag, "service") {
			put(c.services, name)
		}
		if strings.HasPrefix(tag, "task") {
			put(c.tasks, name)
		}
	}

	for _, child := range n.Children {
		c.walk(child)
	}
}

func (c *collector) ignored(norm string) bool {
	slashed := strings.ReplaceAll(norm, `\`, "/")
	for _, pattern := range c.opts.IgnoreGlobs {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
	}
	return false
}

// pickDirectoriesAndFiles splits the reduced path set into directory
// boundaries under a recognized root and standalone files everywhere else.
func (c *collector) pickDirectoriesAndFiles(reduced []string) ([]manifest.DirectoryEntry, []string) {
	dirMap := map[string]manifest.DirectoryEntry{}
	files := []string{}

	for _, raw := range reduced {
		if !c.opts.Roots.isKnown(raw) {
			files = append(files, raw)
			continue
		}
		candidate := raw
		if pathutil.HasExtension(raw) && !strings.HasSuffix(raw, pathutil.Separator) {
			candidate = pathutil.ParentDir(raw)
		}
		if _, ok := dirMap[candidate]; ok {
			continue
		}
		target := pathutil.BaseName(candidate)
		if target == "" || strings.HasSuffix(target, ":") {
			target = strings.ReplaceAll(candidate, ":", "")
		}
		dirMap[candidate] = manifest.DirectoryEntry{
			Path:   candidate,
			Target: target,
			Type:   c.opts.Roots.classify(candidate),
		}
	}

	keys := make([]string, 0, len(dirMap))
	for key := range dirMap {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})

	directories := make([]manifest.DirectoryEntry, 0, len(keys))
	for _, key := range keys {
		directories = append(directories, dirMap[key])
	}
	return directories, files
}

// reducePaths keeps only the topmost ancestors: shortest first, a path
// survives unless it is a subpath of one already kept.
func reducePaths(paths []string) []string {
	sorted := append([]string{}, paths...)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) < len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})

	result := []string{}
	for _, path := range sorted {
		contained := false
		for _, kept := range result {
			if pathutil.IsSubpath(path, kept) {
				contained = true
				break
			}
		}
		if !contained {
			result = append(result, path)
		}
	}
	return result
}

func isPathAttr(name string) bool {
	for _, candidate := range pathAttrs {
		if strings.EqualFold(name, candidate) {
			return true
		}
	}
	return false
}

func nameAttr(n node) string {
	for _, attr := range n.Attrs {
		if strings.EqualFold(attr.Name.Local, "name") && attr.Value != "" {
			return strings.TrimSpace(attr.Value)
		}
	}
	return ""
}

func put(set map[string]string, value string) {
	key := strings.ToLower(value)
	if _, ok := set[key]; !ok {
		set[key] = value
	}
}

func values(set map[string]string) []string {
	out := make([]string, 0, len(set))
	for _, v := range set {
		out = append(out, v)
	}
	return out
}

func sortedValues(set map[string]string) []string {
	out := values(set)
	sort.Strings(out)
	return out
}
