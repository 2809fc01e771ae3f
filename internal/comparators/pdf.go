// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package comparators

import (
	"context"

	"github.com/tfctl/deepcmp/internal/unit"
)

// PDF compares the text layer of two documents. Without pdftotext it returns
// the tool's unavailable error and the caller falls back to raw bytes.
type PDF struct{}

func (PDF) Name() string { return "pdf" }

func (PDF) Compare(ctx context.Context, left, right *unit.Unit, env *Env) (*Result, error) {
	lt, err := env.Tools.Run(ctx, "pdftotext", "-layout", left.Path, "-")
	if err != nil {
		return nil, err
	}
	rt, err := env.Tools.Run(ctx, "pdftotext", "-layout", right.Path, "-")
	if err != nil {
		return nil, err
	}

	res := &Result{Leaf: &Leaf{Left: string(lt), Right: string(rt)}}
	if env.Tools.Available("pdfinfo") {
		if err := res.runDetail(ctx, env.Tools, "pdfinfo", nil, left, right); err != nil {
			return nil, err
		}
	}
	return res, nil
}
