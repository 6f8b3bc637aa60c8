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

// Package uilog is the human-readable progress sink for classification and
// packaging runs: one line per step, mirrored to zerolog at debug level.
package uilog

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	stepIndent  = 2  // spaces to indent step entries
	prefixWidth = 10 // width for the step-kind prefix
)

// 🎯 Logger emits individual human-readable progress lines
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	lines   int
}

// 🏭 New creates a logger writing to console. A nil console discards the
// human-readable lines (zerolog output is configured by the caller).
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	if console == nil {
		console = io.Discard
	}
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 📝 Line emits a plain progress line
func (l *Logger) Line(format string, args ...any) {
	l.emit("", fmt.Sprintf(format, args...))
}

// 💻 Command echoes an external tool invocation. Dry runs rely on this being
// called for every command that would execute.
func (l *Logger) Command(cmdline string) {
	l.emit(color.CyanString("[cmd]"), cmdline)
}

// ✅ Capture reports one completed (or previewed) capture step
func (l *Logger) Capture(kind, detail string) {
	l.emit(color.GreenString("[%s]", kind), detail)
}

// ⚠️ Warn reports a tolerated problem
func (l *Logger) Warn(format string, args ...any) {
	l.emit(color.YellowString("[warn]"), fmt.Sprintf(format, args...))
}

// 🔢 Lines returns how many lines have been emitted so far
func (l *Logger) Lines() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lines
}

func (l *Logger) emit(prefix, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines++

	line := text
	if prefix != "" {
		line = fmt.Sprintf("%-*s %s", prefixWidth, prefix, text)
	}
	fmt.Fprintf(l.console, "%s%s\n", strings.Repeat(" ", stepIndent), line)
	l.zlog.Debug().Msg(text)
}
