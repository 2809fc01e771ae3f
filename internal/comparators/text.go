// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package comparators

import (
	"context"
	"fmt"

	"github.com/tfctl/deepcmp/internal/textdiff"
	"github.com/tfctl/deepcmp/internal/unit"
)

// Text diffs decoded text directly.
type Text struct{}

func (Text) Name() string { return "text" }

func (Text) Compare(ctx context.Context, left, right *unit.Unit, env *Env) (*Result, error) {
	limit := env.Options.MaxTextBytes
	l, lok, err := readText(left.Path, limit)
	if err != nil {
		return nil, err
	}
	r, rok, err := readText(right.Path, limit)
	if err != nil {
		return nil, err
	}

	if !lok || !rok {
		n, err := countDiffering(ctx, left.Path, right.Path)
		if err != nil {
			return nil, err
		}
		res := &Result{}
		if n > 0 {
			res.Leaf = &Leaf{Summary: textdiff.Summary(n)}
		}
		return res, nil
	}
	return &Result{Leaf: &Leaf{Left: l, Right: r}}, nil
}

// Symlink compares link destinations.
type Symlink struct{}

func (Symlink) Name() string { return "symlink" }

func (Symlink) Compare(_ context.Context, left, right *unit.Unit, _ *Env) (*Result, error) {
	return &Result{Leaf: &Leaf{
		Left:  fmt.Sprintf("destination: %s\n", left.LinkTarget),
		Right: fmt.Sprintf("destination: %s\n", right.LinkTarget),
	}}, nil
}

// Device compares special files by their mode.
type Device struct{}

func (Device) Name() string { return "device" }

func (Device) Compare(_ context.Context, left, right *unit.Unit, _ *Env) (*Result, error) {
	return &Result{Leaf: &Leaf{
		Left:  fmt.Sprintf("device: %s\n", left.Mode),
		Right: fmt.Sprintf("device: %s\n", right.Mode),
	}}, nil
}
