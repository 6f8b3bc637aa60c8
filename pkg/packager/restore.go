package packager

import (
	"fmt"
	"strings"

	"github.com/walteh/portapak/pkg/manifest"
	"github.com/walteh/portapak/pkg/pathutil"
)

// buildRestoreTemplate renders Restore_Template.cmd: a commented batch
// script enumerating, per captured category, the reverse operation a human
// must uncomment and adapt. CRLF line endings, since the script targets
// cmd.exe.
func buildRestoreTemplate(m *manifest.Manifest) string {
	var lines []string
	lines = append(lines,
		"@echo off",
		"setlocal",
		fmt.Sprintf("echo === Restore template for %s ===", m.AppName),
		"echo Customize the commands below before running on the target machine.",
		"",
	)

	if len(m.Directories) > 0 {
		lines = append(lines,
			"REM === Copy directory trees ===",
			"REM Remove 'REM ' prefix once destinations look correct.",
		)
		for _, entry := range m.Directories {
			sourceRoot := DirProgramData
			if entry.Type == manifest.TypeProgram {
				sourceRoot = DirProgramFiles
			}
			source := fmt.Sprintf(`%%~dp0%s\%s`, sourceRoot, entry.TargetOrBase())
			dest := fmt.Sprintf(`%s\%s`, destinationBase(entry), destinationSuffix(entry))
			lines = append(lines, fmt.Sprintf(`REM robocopy "%s" "%s" %s`, source, dest, strings.Join(robocopyFlags, " ")))
		}
		lines = append(lines, "")
	}

	if len(m.RegistryKeys) > 0 {
		lines = append(lines, "REM === Import registry snapshots ===")
		for _, key := range m.RegistryKeys {
			lines = append(lines, fmt.Sprintf(`REM reg import "%%~dp0Registry\%s.reg"`, pathutil.SanitizeName(key)))
		}
		lines = append(lines, "")
	}

	if len(m.Services) > 0 {
		lines = append(lines, "REM === Recreate services ===")
		for _, service := range m.Services {
			lines = append(lines, fmt.Sprintf(`REM type "%%~dp0Services\%s.txt"`, pathutil.SanitizeName(service)))
			lines = append(lines, "REM sc create ... (fill in based on captured configuration)")
		}
		lines = append(lines, "")
	}

	if len(m.ScheduledTasks) > 0 {
		lines = append(lines, "REM === Recreate scheduled tasks ===")
		for _, task := range m.ScheduledTasks {
			fileName := pathutil.SanitizeName(strings.Trim(task, `\/`)) + ".xml"
			lines = append(lines, fmt.Sprintf(`REM schtasks /create /tn "%s" /xml "%%~dp0Tasks\%s" /f`, task, fileName))
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		"echo Template complete. Remove REM lines after customizing.",
		"pause",
	)
	return strings.Join(lines, "\r\n") + "\r\n"
}

// destinationBase picks the restore destination's base token from the
// entry's target. The substring checks overlap; their order is load-bearing
// and later rules are reached only when earlier checks fail.
func destinationBase(entry manifest.DirectoryEntry) string {
	lower := strings.ToLower(entry.TargetOrBase())
	if strings.Contains(lower, "localappdata") ||
		strings.Contains(lower, `\appdata\local`) ||
		strings.Contains(lower, `appdata\local`) {
		return "%LocalAppData%"
	}
	if strings.Contains(lower, "appdata") {
		return "%AppData%"
	}
	if entry.Type == manifest.TypeProgram {
		return "%ProgramFiles%"
	}
	return "%ProgramData%"
}

// destinationSuffix strips the base-indicating prefix segments from the
// target, preserving the remaining path components.
func destinationSuffix(entry manifest.DirectoryEntry) string {
	target := entry.TargetOrBase()
	lower := strings.ToLower(target)

	if strings.Contains(lower, "localappdata") {
		parts := strings.Split(target, `\`)
		if len(parts) > 0 && strings.ToLower(parts[0]) == "localappdata" {
			return joinOrDot(parts[1:])
		}
	}
	if strings.HasPrefix(lower, `appdata\local\`) {
		parts := strings.Split(target, `\`)
		return joinOrDot(parts[2:])
	}
	if (strings.Contains(lower, `\appdata\`) || strings.HasPrefix(lower, `appdata\`)) &&
		strings.HasPrefix(lower, `appdata\`) {
		return strings.SplitN(target, `\`, 2)[1]
	}
	return target
}

func joinOrDot(parts []string) string {
	joined := strings.Join(parts, `\`)
	if joined == "" {
		return "."
	}
	return joined
}
