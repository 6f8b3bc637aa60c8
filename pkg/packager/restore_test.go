package packager

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/portapak/pkg/manifest"
)

func TestDestinationBase_PrecedenceOrder(t *testing.T) {
	tests := []struct {
		name  string
		entry manifest.DirectoryEntry
		want  string
	}{
		{
			name:  "localappdata_marker_wins",
			entry: manifest.DirectoryEntry{Target: `LocalAppData\Foo`, Type: manifest.TypeProgram},
			want:  "%LocalAppData%",
		},
		{
			name:  "appdata_local_segments",
			entry: manifest.DirectoryEntry{Target: `AppData\Local\Foo`, Type: manifest.TypeData},
			want:  "%LocalAppData%",
		},
		{
			name:  "appdata_marker_second",
			entry: manifest.DirectoryEntry{Target: `AppData\Roaming\Foo`, Type: manifest.TypeProgram},
			want:  "%AppData%",
		},
		{
			name:  "program_kind_third",
			entry: manifest.DirectoryEntry{Target: "Foo", Type: manifest.TypeProgram},
			want:  "%ProgramFiles%",
		},
		{
			name:  "data_fallback",
			entry: manifest.DirectoryEntry{Target: "Foo", Type: manifest.TypeData},
			want:  "%ProgramData%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, destinationBase(tt.entry))
		})
	}
}

func TestDestinationSuffix(t *testing.T) {
	tests := []struct {
		name  string
		entry manifest.DirectoryEntry
		want  string
	}{
		{
			name:  "strips_localappdata_prefix",
			entry: manifest.DirectoryEntry{Target: `LocalAppData\Foo\Bar`},
			want:  `Foo\Bar`,
		},
		{
			name:  "bare_localappdata_becomes_dot",
			entry: manifest.DirectoryEntry{Target: "LocalAppData"},
			want:  ".",
		},
		{
			name:  "strips_appdata_local_segments",
			entry: manifest.DirectoryEntry{Target: `AppData\Local\Foo`},
			want:  "Foo",
		},
		{
			name:  "strips_appdata_prefix",
			entry: manifest.DirectoryEntry{Target: `AppData\Roaming\Foo`},
			want:  `Roaming\Foo`,
		},
		{
			name:  "plain_target_unchanged",
			entry: manifest.DirectoryEntry{Target: "Foo"},
			want:  "Foo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, destinationSuffix(tt.entry))
		})
	}
}

func TestBuildRestoreTemplate(t *testing.T) {
	m := &manifest.Manifest{
		AppName: "Foo",
		Directories: []manifest.DirectoryEntry{
			{Path: `C:\X\Y`, Target: "Y", Type: manifest.TypeProgram},
			{Path: `C:\ProgramData\FooData`, Target: "FooData", Type: manifest.TypeData},
		},
		RegistryKeys:   []string{`HKCU\Software\Foo`},
		Services:       []string{"FooSvc"},
		ScheduledTasks: []string{`\Foo\Update`},
	}

	contents := buildRestoreTemplate(m)
	lines := strings.Split(contents, "\r\n")
	require.Greater(t, len(lines), 10)

	assert.Equal(t, "@echo off", lines[0])
	assert.Equal(t, "setlocal", lines[1])
	assert.Contains(t, contents, "echo === Restore template for Foo ===")
	assert.Contains(t, contents, `REM robocopy "%~dp0ProgramFiles\Y" "%ProgramFiles%\Y" /MIR /COPYALL /R:2 /W:2 /NFL /NDL /NP`)
	assert.Contains(t, contents, `REM robocopy "%~dp0ProgramData\FooData" "%ProgramData%\FooData"`)
	assert.Contains(t, contents, `REM reg import "%~dp0Registry\HKCU_Software_Foo.reg"`)
	assert.Contains(t, contents, `REM type "%~dp0Services\FooSvc.txt"`)
	assert.Contains(t, contents, "REM sc create ... (fill in based on captured configuration)")
	assert.Contains(t, contents, `REM schtasks /create /tn "\Foo\Update" /xml "%~dp0Tasks\Foo_Update.xml" /f`)
	assert.Contains(t, contents, "pause")

	// Every actionable line is commented out
	for _, line := range lines {
		if strings.HasPrefix(line, "robocopy") || strings.HasPrefix(line, "reg ") || strings.HasPrefix(line, "schtasks") {
			t.Fatalf("actionable line %q must be commented", line)
		}
	}
}

func TestBuildRestoreTemplate_EmptyManifestStillValid(t *testing.T) {
	m := &manifest.Manifest{AppName: "Empty"}
	contents := buildRestoreTemplate(m)
	assert.Contains(t, contents, "echo === Restore template for Empty ===")
	assert.NotContains(t, contents, "REM ===")
}
