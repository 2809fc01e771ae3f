// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"

	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/tfctl/deepcmp/internal/aws"
	"github.com/tfctl/deepcmp/internal/browse"
	"github.com/tfctl/deepcmp/internal/config"
	"github.com/tfctl/deepcmp/internal/engine"
	"github.com/tfctl/deepcmp/internal/fetch"
	"github.com/tfctl/deepcmp/internal/filters"
	"github.com/tfctl/deepcmp/internal/log"
	"github.com/tfctl/deepcmp/internal/meta"
	"github.com/tfctl/deepcmp/internal/output"
	"github.com/tfctl/deepcmp/internal/tool"
	"github.com/tfctl/deepcmp/internal/unit"
)

var (
	// ErrDifferencesFound is returned by compare when the inputs differ. It
	// maps to exit status 1.
	ErrDifferencesFound = errors.New("differences found")

	ErrUsage = errors.New("usage error")
)

// newS3Client builds the client used for s3:// inputs.
var newS3Client = func(ctx context.Context, cmd *cli.Command) (fetch.S3API, error) {
	cfg, err := aws.LoadAWSConfig(ctx,
		aws.WithProfile(cmd.String("profile")),
		aws.WithRegion(cmd.String("region")),
		aws.WithMaxAttempts(cmd.Int("s3-retries")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var optFns []func(*s3v2.Options)
	if ep := cmd.String("endpoint"); ep != "" {
		optFns = append(optFns, aws.WithS3Endpoint(ep, true))
	}
	return aws.NewS3(cfg, optFns...), nil
}

func compareCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "recursively compare two files, directories or archives",
		UsageText: "deepcmp compare [options] LEFT RIGHT",
		Description: "LEFT and RIGHT are local paths, s3://bucket/key objects or\n" +
			"s3://bucket/prefix/ trees. Exit status is 0 when they are\n" +
			"equivalent, 1 when they differ and 2 on error.",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  NewCompareFlags("compare", meta.ConfigFile),
		Action: compareCommandAction,
	}
}

func compareCommandAction(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 2 {
		return fmt.Errorf("%w: compare needs LEFT and RIGHT, got %d argument(s)", ErrUsage, len(args))
	}

	opts := engineOptions(cmd)
	opts.Tools = tool.Detect(disabledTools(cmd)...)
	exclude, err := filters.BuildSet(configSlice(cmd.StringSlice("exclude"), "compare.exclude"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	opts.Exclude = exclude
	log.Debugf("compare opts: depth=%d elements=%d jobs=%d timeout=%s tools=%v",
		opts.MaxDepth, opts.MaxElements, opts.Jobs, opts.Timeout, opts.Tools.Names())

	paths, cleanup, err := resolveInputs(ctx, cmd, args)
	if err != nil {
		return err
	}
	defer cleanup()

	root, err := rootPair(args, paths)
	if err != nil {
		return err
	}

	d, err := engine.New(opts).Run(ctx, root)
	if err != nil {
		return err
	}

	if cmd.Bool("browse") {
		if err := browse.Run(d); err != nil {
			return err
		}
	} else {
		err := output.Write(cmd.Root().Writer, d, output.Options{
			Format:  cmd.String("output"),
			Color:   useColor(cmd),
			Summary: cmd.Bool("summary"),
		})
		if err != nil {
			return err
		}
	}

	if !d.Empty() {
		return ErrDifferencesFound
	}
	return nil
}

// resolveInputs downloads remote arguments. The returned cleanup removes any
// downloads.
func resolveInputs(ctx context.Context, cmd *cli.Command, args []string) ([]string, func(), error) {
	if !fetch.IsRemote(args[0]) && !fetch.IsRemote(args[1]) {
		return args, func() {}, nil
	}

	client, err := newS3Client(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}
	f, err := fetch.New(client, cmd.String("tempdir"))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := f.Close(); err != nil {
			log.Warnf("failed to remove downloads: %s", err)
		}
	}

	paths := make([]string, len(args))
	for i, a := range args {
		if paths[i], err = f.Resolve(ctx, a); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return paths, cleanup, nil
}

// rootPair opens both roots. Displayed names are the arguments as given.
func rootPair(args, paths []string) (unit.Pair, error) {
	sides := make([]*unit.Unit, 2)
	for i := range sides {
		u, err := unit.FromPath(paths[i])
		if err != nil {
			return unit.Pair{}, fmt.Errorf("%s: %w", args[i], err)
		}
		u.Name = args[i]
		sides[i] = u
	}
	return unit.Pair{Name: args[0], Left: sides[0], Right: sides[1]}, nil
}

func disabledTools(cmd *cli.Command) []string {
	return configSlice(cmd.StringSlice("disable-tool"), "tools.disabled")
}

// configSlice appends the list at key in the config file to values.
func configSlice(values []string, key string) []string {
	if fromCfg, err := config.GetStringSlice(key); err == nil {
		values = append(values, fromCfg...)
	}
	return values
}

// useColor honors an explicit --color and otherwise colors only terminals.
func useColor(cmd *cli.Command) bool {
	if cmd.IsSet("color") {
		return cmd.Bool("color")
	}
	f, ok := cmd.Root().Writer.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
