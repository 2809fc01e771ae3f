// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"strings"

	"github.com/dustin/go-humanize"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/deepcmp/internal/comparators"
	"github.com/tfctl/deepcmp/internal/engine"
	"github.com/tfctl/deepcmp/internal/sandbox"
	"github.com/tfctl/deepcmp/internal/textdiff"
)

// NewCompareFlags builds the compare flags. Values resolve from the flag,
// then DEEPCMP_<FLAG>, then ns.<flag> and finally <flag> in the config file
// at path. Config keys spell dashes as underscores.
func NewCompareFlags(ns, path string) []cli.Flag {
	src := func(name string) cli.ValueSourceChain {
		return ValueChain(ns, path, name)
	}

	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "browse",
			Aliases: []string{"b"},
			Usage:   "open the interactive browser instead of printing",
		},
		&cli.BoolFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "color text output. Defaults to on for terminals",
			Sources: src("color"),
		},
		&cli.IntFlag{
			Name:      "context",
			Usage:     "unchanged lines shown around each change",
			Value:     textdiff.DefaultContext,
			Sources:   src("context"),
			Validator: func(v int) error { return FlagValidators(v, PositiveValidator) },
		},
		&cli.StringSliceFlag{
			Name:      "disable-tool",
			Usage:     "external tool to leave unused; repeatable",
			Validator: func(v []string) error { return FlagValidators(v, ToolValidator) },
		},
		&cli.StringSliceFlag{
			Name:      "exclude",
			Aliases:   []string{"x"},
			Usage:     "leave out members matching a glob or filter expression; repeatable",
			Validator: func(v []string) error { return FlagValidators(v, ExcludeValidator) },
		},
		&cli.StringFlag{
			Name:    "endpoint",
			Usage:   "S3-compatible endpoint for s3:// inputs",
			Sources: src("endpoint"),
		},
		&cli.IntFlag{
			Name:      "jobs",
			Aliases:   []string{"j"},
			Usage:     "comparator steps run at once. 0 uses every CPU",
			Sources:   src("jobs"),
			Validator: func(v int) error { return FlagValidators(v, PositiveValidator) },
		},
		&cli.IntFlag{
			Name:      "max-depth",
			Usage:     "container nesting depth that is unpacked",
			Value:     engine.DefaultMaxDepth,
			Sources:   src("max-depth"),
			Validator: func(v int) error { return FlagValidators(v, PositiveValidator) },
		},
		&cli.StringFlag{
			Name:      "max-diff-size",
			Usage:     "combined text size above which only a summary is shown",
			Value:     humanize.IBytes(uint64(textdiff.DefaultMaxBytes)),
			Sources:   src("max-diff-size"),
			Validator: func(v string) error { return FlagValidators(v, SizeValidator) },
		},
		&cli.IntFlag{
			Name:      "max-elements",
			Usage:     "entries compared in one run",
			Value:     engine.DefaultMaxElements,
			Sources:   src("max-elements"),
			Validator: func(v int) error { return FlagValidators(v, PositiveValidator) },
		},
		&cli.IntFlag{
			Name:      "max-extracted-files",
			Usage:     "files one container may extract",
			Value:     sandbox.DefaultMaxFiles,
			Sources:   src("max-extracted-files"),
			Validator: func(v int) error { return FlagValidators(v, PositiveValidator) },
		},
		&cli.StringFlag{
			Name:      "max-extracted-size",
			Usage:     "bytes one container may extract",
			Value:     humanize.IBytes(uint64(sandbox.DefaultMaxBytes)),
			Sources:   src("max-extracted-size"),
			Validator: func(v string) error { return FlagValidators(v, SizeValidator) },
		},
		&cli.StringFlag{
			Name:      "output",
			Aliases:   []string{"o"},
			Usage:     "output format",
			Value:     "text",
			Sources:   src("output"),
			Validator: func(v string) error { return FlagValidators(v, OutputValidator) },
		},
		&cli.StringFlag{
			Name:    "profile",
			Usage:   "AWS shared config profile for s3:// inputs",
			Sources: cli.NewValueSourceChain(cli.EnvVar("AWS_PROFILE")),
		},
		&cli.StringFlag{
			Name:    "region",
			Usage:   "AWS region for s3:// inputs",
			Sources: cli.NewValueSourceChain(cli.EnvVar("AWS_REGION")),
		},
		&cli.IntFlag{
			Name:      "s3-retries",
			Usage:     "attempts per S3 call for s3:// inputs. 0 keeps the SDK default",
			Sources:   src("s3-retries"),
			Validator: func(v int) error { return FlagValidators(v, PositiveValidator) },
		},
		&cli.BoolFlag{
			Name:    "summary",
			Aliases: []string{"s"},
			Usage:   "append a table of changed paths to text output",
			Sources: src("summary"),
		},
		&cli.StringFlag{
			Name:    "tempdir",
			Usage:   "directory for extracted files",
			Sources: src("tempdir"),
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "time allowed for one comparator step",
			Value:   engine.DefaultTimeout,
			Sources: src("timeout"),
		},
	}
}

// ValueChain is the value source chain for a flag: its environment variable,
// then the namespaced and global keys in the config file at path.
func ValueChain(ns, path, name string) cli.ValueSourceChain {
	chain := cli.NewValueSourceChain(cli.EnvVar(envName(name)))
	if path == "" {
		return chain
	}

	key := strings.ReplaceAll(name, "-", "_")
	if ns != "" {
		chain.Chain = append(chain.Chain, yaml.YAML(ns+"."+key, altsrc.StringSourcer(path)))
	}
	chain.Chain = append(chain.Chain, yaml.YAML(key, altsrc.StringSourcer(path)))
	return chain
}

func envName(flag string) string {
	return "DEEPCMP_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// parseSize reads a size flag. The validator has already accepted it.
func parseSize(cmd *cli.Command, name string) int64 {
	n, _ := humanize.ParseBytes(cmd.String(name))
	return int64(n)
}

// engineOptions maps the compare flags onto engine options.
func engineOptions(cmd *cli.Command) engine.Options {
	return engine.Options{
		MaxDepth:    cmd.Int("max-depth"),
		MaxElements: int64(cmd.Int("max-elements")),
		Timeout:     cmd.Duration("timeout"),
		Jobs:        cmd.Int("jobs"),
		Limits: sandbox.Limits{
			MaxBytes: parseSize(cmd, "max-extracted-size"),
			MaxFiles: cmd.Int("max-extracted-files"),
		},
		Diff: textdiff.Options{
			Context:  cmd.Int("context"),
			MaxBytes: parseSize(cmd, "max-diff-size"),
			MaxLines: textdiff.DefaultMaxLines,
		},
		Comparator: comparators.Options{
			HexdumpMax:   comparators.DefaultHexdumpMax,
			MaxTextBytes: parseSize(cmd, "max-diff-size"),
		},
		TempDir: cmd.String("tempdir"),
	}
}
