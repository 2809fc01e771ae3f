// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tfctl/deepcmp/internal/difference"
)

var (
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	commentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Run opens the browser on d and blocks until the user quits.
func Run(d *difference.Difference) error {
	_, err := tea.NewProgram(newModel(d), tea.WithAltScreen()).Run()
	return err
}

type entry struct {
	depth int
	path  string
	node  *difference.Difference
}

func flatten(d *difference.Difference) []entry {
	var entries []entry
	_ = d.Walk(func(depth int, n *difference.Difference) error {
		entries = append(entries, entry{depth: depth, node: n})
		return nil
	})
	// Walk is pre-order, so a parent's path is ready before its children.
	var stack []string
	for i := range entries {
		stack = append(stack[:entries[i].depth], entries[i].node.Name)
		entries[i].path = path.Join(stack[1:]...)
	}
	return entries
}

type model struct {
	entries  []entry
	cursor   int
	offset   int
	detail   bool
	viewport viewport.Model
	width    int
	height   int
}

func newModel(d *difference.Difference) model {
	return model{
		entries:  flatten(d),
		viewport: viewport.New(80, 20),
		width:    80,
		height:   24,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		m.clampOffset()
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
		if m.detail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m model) updateList(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(m.entries)-1, 0)
	case "enter", " ":
		if len(m.entries) > 0 {
			m.detail = true
			m.viewport.SetContent(detail(m.entries[m.cursor].node))
			m.viewport.GotoTop()
		}
	}
	m.clampOffset()
	return m, nil
}

func (m model) updateDetail(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc", "backspace", "left", "h":
		m.detail = false
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

// clampOffset keeps the cursor inside the visible window of the list.
func (m *model) clampOffset() {
	rows := m.listRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

func (m model) listRows() int {
	return max(m.height-2, 1)
}

func (m model) View() string {
	if m.detail {
		e := m.entries[m.cursor]
		return fmt.Sprintf("%s\n%s\n%s",
			cursorStyle.Render(title(e)),
			m.viewport.View(),
			helpStyle.Render(fmt.Sprintf("%3.f%%  ↑/↓ scroll, esc back, q quit", m.viewport.ScrollPercent()*100)))
	}

	var b strings.Builder
	if len(m.entries) == 0 {
		b.WriteString("No differences.\n")
	}
	end := min(m.offset+m.listRows(), len(m.entries))
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		line := strings.Repeat("  ", e.depth) + e.node.Name + marker(e.node)
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + styleFor(e.node).Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move, enter open, q quit"))
	return b.String()
}

func title(e entry) string {
	if e.path == "" {
		return e.node.LeftName + " vs " + e.node.RightName
	}
	return e.path
}

func marker(d *difference.Difference) string {
	switch d.Change {
	case difference.Added:
		return " (added)"
	case difference.Removed:
		return " (removed)"
	}
	if len(d.Comments) > 0 {
		return " *"
	}
	return ""
}

func styleFor(d *difference.Difference) lipgloss.Style {
	switch d.Change {
	case difference.Added:
		return addedStyle
	case difference.Removed:
		return removedStyle
	}
	return lipgloss.NewStyle()
}

// detail renders a node's own comments and body.
func detail(d *difference.Difference) string {
	var b strings.Builder
	for _, c := range d.Comments {
		for _, line := range strings.Split(c, "\n") {
			b.WriteString(commentStyle.Render("┄ "+line) + "\n")
		}
	}
	for _, line := range strings.Split(strings.TrimSuffix(d.Body, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			b.WriteString(helpStyle.Render(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(addedStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(removedStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	if d.Body == "" && len(d.Comments) == 0 {
		fmt.Fprintf(&b, "%d nested differences.\n", len(d.Children))
	}
	return b.String()
}
