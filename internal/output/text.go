// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"

	"github.com/tfctl/deepcmp/internal/difference"
)

const (
	guide   = "│ "
	branch  = "├── "
	comment = "│┄ "
)

// Text writes the indented tree form.
type Text struct {
	color  bool
	styles map[string]lipgloss.Style
}

// NewText returns a text renderer, styled when color is set.
func NewText(color bool) *Text {
	t := &Text{color: color}
	if color {
		p := getColors()
		t.styles = map[string]lipgloss.Style{
			"title":   lipgloss.NewStyle().Bold(true).Foreground(p.title),
			"added":   lipgloss.NewStyle().Foreground(p.added),
			"removed": lipgloss.NewStyle().Foreground(p.removed),
			"hunk":    lipgloss.NewStyle().Foreground(p.hunk),
			"comment": lipgloss.NewStyle().Italic(true).Foreground(p.comment),
		}
	}
	return t
}

func (t *Text) style(name, s string) string {
	if !t.color {
		return s
	}
	return t.styles[name].Render(s)
}

// Write renders d and its descendants.
func (t *Text) Write(w io.Writer, d *difference.Difference) {
	fmt.Fprintln(w, t.style("title", "--- "+d.LeftName))
	fmt.Fprintln(w, t.style("title", "+++ "+d.RightName))
	t.node(w, d, "", guide)
}

// node prints d. Nested nodes share one prefix for their branch guides and
// their body, the root body has a guide of its own.
func (t *Text) node(w io.Writer, d *difference.Difference, prefix, body string) {
	for _, c := range d.Comments {
		for _, line := range strings.Split(c, "\n") {
			fmt.Fprintln(w, prefix+comment+t.style("comment", line))
		}
	}
	for _, line := range bodyLines(d.Body) {
		fmt.Fprintln(w, body+t.bodyLine(line))
	}
	for _, c := range d.Children {
		fmt.Fprintln(w, prefix+branch+t.style("title", c.Name))
		t.node(w, c, prefix+guide, prefix+guide)
	}
}

func (t *Text) bodyLine(line string) string {
	switch {
	case strings.HasPrefix(line, "@@"):
		return t.style("hunk", line)
	case strings.HasPrefix(line, "+"):
		return t.style("added", line)
	case strings.HasPrefix(line, "-"):
		return t.style("removed", line)
	default:
		return line
	}
}

func bodyLines(body string) []string {
	if body == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(body, "\n"), "\n")
}
