package manifest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestManifest_Validate(t *testing.T) {
	tests := []struct {
		name         string
		manifest     Manifest
		wantProblems int
	}{
		{
			name: "valid",
			manifest: Manifest{
				AppName: "Foo",
				Directories: []DirectoryEntry{
					{Path: `C:\X\Y`, Target: "Y", Type: TypeProgram},
				},
			},
			wantProblems: 0,
		},
		{
			name:         "missing_app_name",
			manifest:     Manifest{},
			wantProblems: 1,
		},
		{
			name: "aggregates_all_problems",
			manifest: Manifest{
				AppName: " ",
				Directories: []DirectoryEntry{
					{Path: "", Target: "Y", Type: "bogus"},
				},
				Files:        []string{""},
				RegistryKeys: []string{""},
			},
			wantProblems: 5,
		},
		{
			name: "bad_directory_type",
			manifest: Manifest{
				AppName: "Foo",
				Directories: []DirectoryEntry{
					{Path: `C:\X`, Type: "shared"},
				},
			},
			wantProblems: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manifest.Validate()
			if tt.wantProblems == 0 {
				require.NoError(t, err)
				return
			}
			var malformed *MalformedInputError
			require.ErrorAs(t, err, &malformed)
			assert.Len(t, malformed.Problems, tt.wantProblems)
		})
	}
}

func TestDirectoryEntry_TargetOrBase(t *testing.T) {
	assert.Equal(t, "Y", DirectoryEntry{Path: `C:\X\Y`, Target: "Y"}.TargetOrBase())
	assert.Equal(t, "Y", DirectoryEntry{Path: `C:\X\Y`}.TargetOrBase())
	assert.Equal(t, "Y", DirectoryEntry{Path: `C:\X\Y\`}.TargetOrBase())
	assert.Equal(t, "custom", DirectoryEntry{Path: `C:\X\Y`, Target: "custom"}.TargetOrBase())
}

func TestSaveRecord_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := &Manifest{
		AppName:        "Foo",
		Directories:    []DirectoryEntry{{Path: `C:\X\Y`, Target: "Y", Type: TypeProgram}},
		Files:          []string{},
		RegistryKeys:   []string{`HKCU\Software\Foo`},
		Services:       []string{},
		ScheduledTasks: []string{},
		Shortcuts:      []string{},
	}
	generated := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, SaveRecord(ctx, path, m, generated))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record Record
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, generated, record.GeneratedAt)
	assert.Equal(t, *m, record.Payload)
}

func TestSaveRecord_WireNames(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "manifest.json")

	m := &Manifest{AppName: "Foo"}
	require.NoError(t, SaveRecord(ctx, path, m, time.Now()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "generated_at")
	require.Contains(t, raw, "payload")

	payload, ok := raw["payload"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"app_name", "directories", "files", "registry_keys", "services", "scheduled_tasks", "shortcuts"} {
		assert.Contains(t, payload, key)
	}
}

func TestLoad_JSON(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
  "app_name": "Foo",
  "directories": [{"path": "C:\\X\\Y", "target": "Y", "type": "program"}],
  "files": ["C:\\X\\loose.dat"],
  "registry_keys": ["HKCU\\Software\\Foo"],
  "services": ["FooSvc"],
  "scheduled_tasks": ["\\Foo\\Update"],
  "shortcuts": []
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Foo", m.AppName)
	require.Len(t, m.Directories, 1)
	assert.Equal(t, `C:\X\Y`, m.Directories[0].Path)
	assert.Equal(t, TypeProgram, m.Directories[0].Type)
	assert.Equal(t, []string{`C:\X\loose.dat`}, m.Files)
	assert.Equal(t, []string{"FooSvc"}, m.Services)
}

func TestLoad_YAML(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `app_name: Foo
directories:
  - path: C:\X\Y
    target: Y
    type: data
registry_keys:
  - HKLM\SOFTWARE\Foo
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Foo", m.AppName)
	require.Len(t, m.Directories, 1)
	assert.Equal(t, TypeData, m.Directories[0].Type)
	assert.Equal(t, []string{`HKLM\SOFTWARE\Foo`}, m.RegistryKeys)
}

func TestLoad_HCL(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.hcl")
	content := `app_name = "Foo"

directory {
  path   = "C:\\X\\Y"
  target = "Y"
  type   = "program"
}

services = ["FooSvc"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Foo", m.AppName)
	require.Len(t, m.Directories, 1)
	assert.Equal(t, `C:\X\Y`, m.Directories[0].Path)
	assert.Equal(t, []string{"FooSvc"}, m.Services)
}

func TestLoad_Malformed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(ctx, path)
	require.Error(t, err)
	var malformed *MalformedInputError
	assert.True(t, errors.As(err, &malformed))
}

func TestLoad_UnknownExtension(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	_, err := Load(ctx, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no parser found")
}

func TestLoad_ValidationFailure(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app_name": ""}`), 0o644))

	_, err := Load(ctx, path)
	require.Error(t, err)
	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Problems[0], "app_name")
}
