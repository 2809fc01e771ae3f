// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/deepcmp/internal/config"
	"github.com/tfctl/deepcmp/internal/log"
	"github.com/tfctl/deepcmp/internal/meta"
)

// Names lists the subcommands. main uses it to route bare LEFT RIGHT
// invocations to compare.
var Names = []string{"cache", "compare", "completion", "tools"}

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the subcommand
	// and also the namespace key used when retrieving config values. arg[1]
	// could be -h/--help, so ignore it if it appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// A missing config file is normal. Flags then fall back to env and
	// defaults.
	cfg, err := config.Load()
	if err != nil {
		log.Debugf("config not loaded: %v", err)
	}
	cfg.Namespace = ns
	config.Config = cfg

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		ConfigFile:  cfg.Source,
		Context:     ctx,
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:  "deepcmp",
		Usage: "Deep recursive comparison of files, archives and directories",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "deepcmp version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		cacheCommandBuilder(meta),
		compareCommandBuilder(meta),
		completionCommandBuilder(meta),
		toolsCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
