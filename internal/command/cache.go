// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/deepcmp/internal/cacheutil"
	"github.com/tfctl/deepcmp/internal/meta"
)

func cacheCommandAction(ctx context.Context, cmd *cli.Command) error {
	dir, ok := cacheutil.Dir()
	if !ok || !cacheutil.Enabled() {
		fmt.Fprintln(cmd.Root().Writer, "cache disabled")
		return nil
	}

	if cmd.IsSet("purge") {
		if err := cacheutil.Purge(cmd.Int("purge")); err != nil {
			return fmt.Errorf("failed to purge %s: %w", dir, err)
		}
	}
	fmt.Fprintln(cmd.Root().Writer, dir)
	return nil
}

func cacheCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "show or purge the download cache",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:      "purge",
				Usage:     "remove entries older than this many hours",
				Validator: func(v int) error { return FlagValidators(v, PositiveValidator) },
			},
		},
		Action: cacheCommandAction,
	}
}
