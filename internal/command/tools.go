// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/deepcmp/internal/comparators"
	"github.com/tfctl/deepcmp/internal/meta"
	"github.com/tfctl/deepcmp/internal/tool"
)

// toolsCommandAction lists the external tools and the comparators deepcmp
// can dispatch to.
func toolsCommandAction(ctx context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer
	set := tool.Detect(disabledTools(cmd)...)

	fmt.Fprintln(w, "tools:")
	for _, name := range tool.Known {
		state := "missing"
		if set.Available(name) {
			state = "available"
		}
		fmt.Fprintf(w, "  %-10s %s\n", name, state)
	}

	fmt.Fprintln(w, "comparators:")
	for _, tag := range comparators.Default().Tags() {
		fmt.Fprintf(w, "  %s\n", tag)
	}
	return nil
}

func toolsCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:  "tools",
		Usage: "list external tools and comparators",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:      "disable-tool",
				Usage:     "external tool to leave unused; repeatable",
				Validator: func(v []string) error { return FlagValidators(v, ToolValidator) },
			},
		},
		Action: toolsCommandAction,
	}
}
