// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package ux

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#6C7A89")
	ColorTitle   = lipgloss.Color("#20B9B4")
)

// Glyphs printed after a check or step message.
const (
	GlyphPass    = "✓"
	GlyphCross   = "✗"
	GlyphSkipped = "SKIPPED"
)

// Styles groups the lipgloss styles of one Console.
type Styles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(ColorTitle),
		Success: r.NewStyle().Foreground(ColorSuccess),
		Warning: r.NewStyle().Foreground(ColorWarning),
		Error:   r.NewStyle().Foreground(ColorError),
		Muted:   r.NewStyle().Foreground(ColorMuted),
	}
}

// Console writes user-facing output. It is safe for concurrent use.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	terminal bool
	styles   Styles
}

// NewConsole returns a Console writing to w. Colour is used only when w is a
// terminal.
func NewConsole(w io.Writer) *Console {
	return &Console{
		out:      w,
		terminal: IsTerminal(w),
		styles:   newStyles(lipgloss.NewRenderer(w)),
	}
}

// Stdout returns a Console bound to os.Stdout.
func Stdout() *Console {
	return NewConsole(os.Stdout)
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Terminal reports whether the console is attached to a terminal.
func (c *Console) Terminal() bool { return c.terminal }

// Styles returns the console styles.
func (c *Console) Styles() Styles { return c.styles }

// Writer returns the underlying writer.
func (c *Console) Writer() io.Writer { return c.out }

// Print writes text without a trailing newline.
func (c *Console) Print(text string) {
	c.write(text)
}

// Println writes text followed by a newline.
func (c *Console) Println(text string) {
	c.write(text + "\n")
}

// Printf formats and writes without adding a newline.
func (c *Console) Printf(format string, args ...any) {
	c.write(fmt.Sprintf(format, args...))
}

// Title writes a bold heading line.
func (c *Console) Title(text string) {
	c.write(c.styles.Title.Render(text) + "\n")
}

// Success writes a green line.
func (c *Console) Success(text string) {
	c.write(c.styles.Success.Render(text) + "\n")
}

// Warning writes a yellow line.
func (c *Console) Warning(text string) {
	c.write(c.styles.Warning.Render(text) + "\n")
}

// Error writes a red line.
func (c *Console) Error(text string) {
	c.write(c.styles.Error.Render(text) + "\n")
}

// Pass terminates the current status line with a green tick.
func (c *Console) Pass() {
	c.write(" " + c.styles.Success.Render(GlyphPass) + "\n")
}

// Warned terminates the current status line with a yellow cross and the
// warning text on the next line.
func (c *Console) Warned(detail string) {
	c.write(" " + c.styles.Warning.Render(GlyphCross) + "\n")
	if detail != "" {
		c.write(c.styles.Warning.Render(detail) + "\n")
	}
}

// Failed terminates the current status line with a red cross and the error
// text on the next line.
func (c *Console) Failed(detail string) {
	c.write(" " + c.styles.Error.Render(GlyphCross) + "\n")
	if detail != "" {
		c.write(c.styles.Error.Render(detail) + "\n")
	}
}

// Skipped terminates the current status line with SKIPPED.
func (c *Console) Skipped(detail string) {
	c.write(" " + c.styles.Muted.Render(GlyphSkipped) + "\n")
	if detail != "" {
		c.write(c.styles.Muted.Render(detail) + "\n")
	}
}

func (c *Console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, s)
}
