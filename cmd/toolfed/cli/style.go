// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles renders tool diagnostics. The zero value, and any Styles for
// a non-terminal writer, passes text through unchanged.
type Styles struct {
	enabled bool
	stderr  lipgloss.Style
	fault   lipgloss.Style
}

// NewStyles returns Styles for output written to file: colored on a
// terminal, plain otherwise.
func NewStyles(file *os.File) Styles {
	return newStyles(IsTerminal(file))
}

func newStyles(enabled bool) Styles {
	return Styles{
		enabled: enabled,
		stderr:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		fault:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

// Stderr styles each line of a tool's standard error. Line structure
// is kept so the terminal never sees a style span across newlines.
func (s Styles) Stderr(text string) string {
	if !s.enabled || text == "" {
		return text
	}
	lines := strings.SplitAfter(text, "\n")
	for index, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		if body == "" {
			continue
		}
		lines[index] = s.stderr.Render(body) + line[len(body):]
	}
	return strings.Join(lines, "")
}

// Fault styles a tool fault message.
func (s Styles) Fault(message string) string {
	if !s.enabled {
		return message
	}
	return s.fault.Render(message)
}
