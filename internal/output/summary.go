// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"path"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"

	"github.com/tfctl/deepcmp/internal/difference"
)

// Row is one changed path of a summary.
type Row struct {
	Path   string
	Change string
	Lines  int
	Note   string
}

// Rows lists every node that carries a body or a comment, in tree order.
func Rows(d *difference.Difference) []Row {
	var rows []Row
	var visit func(n *difference.Difference, parts []string)
	visit = func(n *difference.Difference, parts []string) {
		if n.Body != "" || len(n.Comments) > 0 {
			r := Row{
				Path:   path.Join(parts...),
				Change: n.Change.String(),
				Lines:  changedLines(n.Body),
			}
			if len(n.Comments) > 0 {
				r.Note, _, _ = strings.Cut(n.Comments[0], "\n")
			}
			if r.Path == "" {
				r.Path = "."
			}
			rows = append(rows, r)
		}
		for _, c := range n.Children {
			visit(c, append(parts[:len(parts):len(parts)], c.Name))
		}
	}
	if d != nil {
		visit(d, nil)
	}
	return rows
}

func changedLines(body string) int {
	n := 0
	for _, line := range bodyLines(body) {
		if (strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-")) && !strings.HasPrefix(line, "@@") {
			n++
		}
	}
	return n
}

// SummaryTable renders Rows(d) as a borderless table.
func SummaryTable(d *difference.Difference, color bool) *table.Table {
	var (
		headerStyle = lipgloss.NewStyle().Align(lipgloss.Left).Bold(true)
		cellStyle   = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		addedStyle  = cellStyle
		removeStyle = cellStyle
	)
	if color {
		p := getColors()
		headerStyle = headerStyle.Foreground(p.title)
		addedStyle = addedStyle.Foreground(p.added)
		removeStyle = removeStyle.Foreground(p.removed)
	}

	rows := Rows(d)
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Path, r.Change, strconv.Itoa(r.Lines), r.Note})
	}

	return table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := cellStyle
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case rows[row].Change == "added":
				style = addedStyle
			case rows[row].Change == "removed":
				style = removeStyle
			}
			if col > 0 {
				style = style.PaddingLeft(2)
			}
			return style
		}).
		Headers("PATH", "CHANGE", "LINES", "NOTE").
		Rows(cells...)
}
