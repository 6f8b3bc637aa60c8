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

package manifest

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for manifest parsers
type Parser interface {
	// 📝 Parse parses the manifest from bytes
	Parse(ctx context.Context, data []byte) (*Manifest, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🎯 Load reads, parses and validates a manifest file
func Load(ctx context.Context, path string) (*Manifest, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading manifest")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading manifest file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	m, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, errors.Errorf("validating manifest: %w", err)
	}

	return m, nil
}

// 🔧 JSONParser implements the Parser interface for JSON files
type JSONParser struct{}

func init() {
	Register(&JSONParser{})
}

func (p *JSONParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".json")
}

func (p *JSONParser) Parse(ctx context.Context, data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", &MalformedInputError{Source: "manifest", Problems: []string{err.Error()}})
	}
	return &m, nil
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Manifest, error) {
	var doc yamlManifest
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", &MalformedInputError{Source: "manifest", Problems: []string{err.Error()}})
	}
	return doc.toManifest(), nil
}

// yamlManifest mirrors Manifest with yaml tags so the JSON wire names stay
// authoritative.
type yamlManifest struct {
	AppName        string          `yaml:"app_name"`
	Directories    []yamlDirectory `yaml:"directories"`
	Files          []string        `yaml:"files"`
	RegistryKeys   []string        `yaml:"registry_keys"`
	Services       []string        `yaml:"services"`
	ScheduledTasks []string        `yaml:"scheduled_tasks"`
	Shortcuts      []string        `yaml:"shortcuts"`
}

type yamlDirectory struct {
	Path   string `yaml:"path"`
	Target string `yaml:"target"`
	Type   string `yaml:"type"`
}

func (y yamlManifest) toManifest() *Manifest {
	m := &Manifest{
		AppName:        y.AppName,
		Files:          y.Files,
		RegistryKeys:   y.RegistryKeys,
		Services:       y.Services,
		ScheduledTasks: y.ScheduledTasks,
		Shortcuts:      y.Shortcuts,
	}
	for _, d := range y.Directories {
		m.Directories = append(m.Directories, DirectoryEntry{Path: d.Path, Target: d.Target, Type: d.Type})
	}
	return m
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func init() {
	Register(&HCLParser{})
}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// hclManifest mirrors Manifest with hcl tags; directories appear as repeated
// `directory` blocks.
type hclManifest struct {
	AppName        string         `hcl:"app_name"`
	Directories    []hclDirectory `hcl:"directory,block"`
	Files          []string       `hcl:"files,optional"`
	RegistryKeys   []string       `hcl:"registry_keys,optional"`
	Services       []string       `hcl:"services,optional"`
	ScheduledTasks []string       `hcl:"scheduled_tasks,optional"`
	Shortcuts      []string       `hcl:"shortcuts,optional"`
}

type hclDirectory struct {
	Path   string `hcl:"path"`
	Target string `hcl:"target,optional"`
	Type   string `hcl:"type"`
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Manifest, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "manifest.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %w", &MalformedInputError{Source: "manifest", Problems: []string{diags.Error()}})
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var doc hclManifest
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &doc)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %w", &MalformedInputError{Source: "manifest", Problems: []string{diags.Error()}})
	}

	m := &Manifest{
		AppName:        doc.AppName,
		Files:          doc.Files,
		RegistryKeys:   doc.RegistryKeys,
		Services:       doc.Services,
		ScheduledTasks: doc.ScheduledTasks,
		Shortcuts:      doc.Shortcuts,
	}
	for _, d := range doc.Directories {
		m.Directories = append(m.Directories, DirectoryEntry{Path: d.Path, Target: d.Target, Type: d.Type})
	}
	return m, nil
}
