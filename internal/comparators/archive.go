// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package comparators

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mholt/archives"

	"github.com/tfctl/deepcmp/internal/log"
	"github.com/tfctl/deepcmp/internal/sandbox"
	"github.com/tfctl/deepcmp/internal/unit"
)

// Archive unpacks a multi-member archive on both sides and pairs members by
// path. Links and special files become content-less units.
type Archive struct {
	Format archives.Extractor
}

func (a Archive) Name() string {
	if n, ok := a.Format.(interface{ Extension() string }); ok {
		return "archive" + n.Extension()
	}
	return "archive"
}

func (a Archive) Compare(ctx context.Context, left, right *unit.Unit, env *Env) (*Result, error) {
	sb, err := env.Sandbox()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	lm, err := a.extract(ctx, sb, "left", left, res)
	if err != nil {
		return nil, err
	}
	rm, err := a.extract(ctx, sb, "right", right, res)
	if err != nil {
		return nil, err
	}
	res.Children = unit.Match(lm, rm)
	addFileList(res, env, archiveLine)
	return res, nil
}

func (a Archive) extract(ctx context.Context, sb *sandbox.Sandbox, side string, u *unit.Unit, res *Result) (map[string]*unit.Unit, error) {
	f, err := os.Open(u.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	members := map[string]*unit.Unit{}
	err = a.Format.Extract(ctx, f, func(ctx context.Context, fi archives.FileInfo) error {
		name := memberName(fi.NameInArchive)
		if name == "" || fi.IsDir() {
			return nil
		}
		if _, dup := members[name]; dup {
			res.Comment("%s: duplicate member %s, last one wins", u.Name, name)
		}

		m := &unit.Unit{
			Name: unit.Member(u.Name, name),
			Mode: fi.Mode(),
			Meta: headerMeta(fi),
		}
		switch {
		case fi.LinkTarget != "" || fi.Mode()&fs.ModeSymlink != 0:
			m.Kind = unit.Symlink
			m.LinkTarget = fi.LinkTarget
		case !fi.Mode().IsRegular():
			m.Kind = unit.Device
		default:
			rc, err := fi.Open()
			if err != nil {
				return err
			}
			defer rc.Close()
			p, n, err := sb.WriteFrom(ctx, path.Join(side, name), rc, fi.Mode())
			if err != nil {
				return err
			}
			m.Kind = unit.File
			m.Path = p
			m.Size = n
		}
		members[name] = m
		return nil
	})
	if err != nil {
		if errors.Is(err, sandbox.ErrLimitExceeded) || ctx.Err() != nil {
			return nil, err
		}
		return nil, &ExtractionError{Name: u.Name, Err: err}
	}
	used, files := sb.Usage()
	log.Debugf("extracted %d members from %s, sandbox holds %s in %d files", len(members), u.Name, humanize.IBytes(uint64(used)), files)
	return members, nil
}

// memberName cleans an archive member name into a relative slash path that
// cannot climb out of its container.
func memberName(n string) string {
	n = strings.ReplaceAll(n, `\`, "/")
	return strings.TrimPrefix(path.Clean("/"+n), "/")
}

// headerMeta renders the per-member metadata line that is compared between
// sides.
func headerMeta(fi archives.FileInfo) string {
	var sb strings.Builder
	sb.WriteString(fi.Mode().String())
	if h, ok := fi.Header.(*tar.Header); ok {
		fmt.Fprintf(&sb, " %s/%s %d/%d", h.Uname, h.Gname, h.Uid, h.Gid)
		if h.Typeflag == tar.TypeLink {
			sb.WriteString(" hardlink")
		}
	}
	if mt := fi.ModTime(); !mt.IsZero() {
		sb.WriteString(" " + mt.UTC().Format(time.RFC3339))
	}
	if fi.LinkTarget != "" {
		sb.WriteString(" -> " + fi.LinkTarget)
	}
	return sb.String()
}
