// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package comparators

import (
	"context"

	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/tfctl/deepcmp/internal/unit"
)

// HCL diffs the canonical formatting of two configurations, so alignment and
// spacing changes disappear.
type HCL struct{}

func (HCL) Name() string { return "hcl" }

func (HCL) Compare(ctx context.Context, left, right *unit.Unit, env *Env) (*Result, error) {
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
		return Text{}.Compare(ctx, left, right, env)
	}
	return &Result{Leaf: &Leaf{
		Left:  string(hclwrite.Format([]byte(l))),
		Right: string(hclwrite.Format([]byte(r))),
	}}, nil
}
