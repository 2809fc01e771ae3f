// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"runtime"
	"time"

	"github.com/tfctl/deepcmp/internal/comparators"
	"github.com/tfctl/deepcmp/internal/filters"
	"github.com/tfctl/deepcmp/internal/sandbox"
	"github.com/tfctl/deepcmp/internal/textdiff"
	"github.com/tfctl/deepcmp/internal/tool"
)

const (
	DefaultMaxDepth    = 50
	DefaultMaxElements = 100_000
	DefaultTimeout     = 2 * time.Minute
)

// Options configure a run. Zero fields take their defaults in New.
type Options struct {
	MaxDepth    int
	MaxElements int64
	// Timeout bounds a single comparator step, not the run.
	Timeout time.Duration
	// Jobs is the number of comparator steps allowed to run at once.
	Jobs int

	Limits     sandbox.Limits
	Diff       textdiff.Options
	Comparator comparators.Options

	// TempDir is where the run directory is created. Empty means
	// os.TempDir.
	TempDir  string
	Registry *comparators.Registry
	Tools    *tool.Set
	// Exclude drops matching members before they are compared or counted.
	Exclude filters.Set
}

// DefaultOptions returns fully populated defaults. Tools are detected on PATH.
func DefaultOptions() Options {
	return Options{
		MaxDepth:    DefaultMaxDepth,
		MaxElements: DefaultMaxElements,
		Timeout:     DefaultTimeout,
		Jobs:        runtime.NumCPU(),
		Limits:      sandbox.DefaultLimits(),
		Diff:        textdiff.DefaultOptions(),
		Comparator:  comparators.DefaultOptions(),
		Registry:    comparators.Default(),
		Tools:       tool.Detect(),
	}
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxElements <= 0 {
		o.MaxElements = DefaultMaxElements
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Jobs <= 0 {
		o.Jobs = runtime.NumCPU()
	}
	if o.Limits == (sandbox.Limits{}) {
		o.Limits = sandbox.DefaultLimits()
	}
	if o.Diff == (textdiff.Options{}) {
		o.Diff = textdiff.DefaultOptions()
	}
	if o.Comparator == (comparators.Options{}) {
		o.Comparator = comparators.DefaultOptions()
	}
	if o.Registry == nil {
		o.Registry = comparators.Default()
	}
	if o.Tools == nil {
		o.Tools = tool.Detect()
	}
	return o
}
