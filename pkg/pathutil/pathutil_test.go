package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "forward_slashes",
			raw:  "C:/Program Files/Foo",
			want: `C:\Program Files\Foo`,
		},
		{
			name: "surrounding_quotes",
			raw:  `"C:\Tools\bin"`,
			want: `C:\Tools\bin`,
		},
		{
			name: "whitespace",
			raw:  "  C:\\Tools  ",
			want: `C:\Tools`,
		},
		{
			name: "bare_drive_letter",
			raw:  "D:",
			want: `D:\`,
		},
		{
			name: "registry_key_untouched",
			raw:  `HKLM\SOFTWARE\Foo`,
			want: `HKLM\SOFTWARE\Foo`,
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"C:/a/b",
		`"quoted/path"`,
		"D:",
		"  spaced  ",
		`\\server\share\dir`,
		`\Microsoft\Windows\SomeTask`,
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", in)
	}
}

func TestNormalize_EquivalentSlashStyles(t *testing.T) {
	assert.Equal(t, Normalize(`C:\Foo\Bar`), Normalize("C:/Foo/Bar"))
	assert.Equal(t, Normalize("C:/Foo/Bar"), Normalize(`C:/Foo\Bar`))
}

func TestIsSubpath(t *testing.T) {
	tests := []struct {
		name   string
		child  string
		parent string
		want   bool
	}{
		{"equal", `C:\Foo`, `C:\Foo`, true},
		{"equal_case_insensitive", `c:\foo`, `C:\FOO`, true},
		{"direct_child", `C:\Foo\Bar`, `C:\Foo`, true},
		{"deep_child", `C:\Foo\Bar\baz.txt`, `C:\Foo`, true},
		{"sibling_prefix", `C:\Foobar`, `C:\Foo`, false},
		{"parent_of", `C:\Foo`, `C:\Foo\Bar`, false},
		{"trailing_separator", `C:\Foo\Bar\`, `C:\Foo\`, true},
		{"unrelated", `D:\Foo`, `C:\Foo`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSubpath(tt.child, tt.parent))
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"registry_key", `HKCU\Software\Foo`, "HKCU_Software_Foo"},
		{"plain", "MyService", "MyService"},
		{"kept_punctuation", "svc-name_1.2", "svc-name_1.2"},
		{"spaces_and_slashes", `Foo Bar/Baz`, "Foo_Bar_Baz"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.value))
		})
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "Foo", BaseName(`C:\Program Files\Foo`))
	assert.Equal(t, "Foo", BaseName(`C:\Program Files\Foo\`))
	assert.Equal(t, "app.exe", BaseName(`C:\bin\app.exe`))
	assert.Equal(t, "standalone", BaseName("standalone"))
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension(`C:\bin\app.exe`))
	assert.True(t, HasExtension(`C:\data\settings.ini`))
	assert.False(t, HasExtension(`C:\Program Files\Foo`))
	assert.False(t, HasExtension(`C:\dotdir\.config`))
}

func TestParentDir(t *testing.T) {
	assert.Equal(t, `C:\Program Files\Foo\bin`, ParentDir(`C:\Program Files\Foo\bin\app.exe`))
	assert.Equal(t, `C:\`, ParentDir(`C:\Foo`))
	assert.Equal(t, "plain", ParentDir("plain"))
}
