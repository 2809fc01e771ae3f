// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package comparators

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/tfctl/deepcmp/internal/unit"
)

// Directory pairs the files of two trees by relative path. The walk is flat:
// nested directories contribute their files, not a child per directory.
type Directory struct{}

func (Directory) Name() string { return "directory" }

func (Directory) Compare(ctx context.Context, left, right *unit.Unit, env *Env) (*Result, error) {
	lm, err := listDir(ctx, left)
	if err != nil {
		return nil, err
	}
	rm, err := listDir(ctx, right)
	if err != nil {
		return nil, err
	}
	res := &Result{Children: unit.Match(lm, rm)}
	addFileList(res, env, nameLine)
	return res, nil
}

func listDir(ctx context.Context, root *unit.Unit) (map[string]*unit.Unit, error) {
	members := map[string]*unit.Unit{}
	err := filepath.WalkDir(root.Path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root.Path, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		m, err := unit.FromInfo(unit.Member(root.Name, rel), p, info)
		if err != nil {
			return err
		}
		m.Meta = m.Mode.String()
		members[rel] = m
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ExtractionError{Name: root.Name, Err: err}
	}
	return members, nil
}
