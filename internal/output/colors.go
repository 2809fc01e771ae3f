// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"image/color"
	"os"

	"github.com/charmbracelet/lipgloss/v2"

	"github.com/tfctl/deepcmp/internal/config"
)

// palette holds the text output colors.
type palette struct {
	title, added, removed, hunk, comment color.Color
}

// getColors resolves the palette from output.colors.* in the config, falling
// back to defaults chosen for the terminal background.
func getColors() palette {
	isDark := lipgloss.HasDarkBackground(os.Stdin, os.Stdout)

	resolve := func(key, light, dark string) color.Color {
		if c, err := config.GetString("output.colors." + key); err == nil {
			return lipgloss.Color(c)
		}
		if isDark {
			return lipgloss.Color(dark)
		}
		return lipgloss.Color(light)
	}

	return palette{
		title:   resolve("title", "#b08800", "#f6be00"),
		added:   resolve("added", "#22863a", "#85e89d"),
		removed: resolve("removed", "#b31d28", "#f97583"),
		hunk:    resolve("hunk", "#0088a0", "#00c8f0"),
		comment: resolve("comment", "#6a737d", "#959da5"),
	}
}
