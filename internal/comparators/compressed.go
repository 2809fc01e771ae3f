// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package comparators

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/mholt/archives"

	"github.com/tfctl/deepcmp/internal/sandbox"
	"github.com/tfctl/deepcmp/internal/unit"
)

// suffix maps a compressed file extension to the extension of its content.
type suffix struct {
	ext  string
	repl string
}

var (
	gzipSuffixes  = []suffix{{".tgz", ".tar"}, {".gz", ""}, {".z", ""}}
	bzip2Suffixes = []suffix{{".tbz2", ".tar"}, {".tbz", ".tar"}, {".bz2", ""}}
	xzSuffixes    = []suffix{{".txz", ".tar"}, {".xz", ""}}
	zstdSuffixes  = []suffix{{".tzst", ".tar"}, {".zst", ""}, {".zstd", ""}}
	lz4Suffixes   = []suffix{{".lz4", ""}}
)

// Compressed decompresses a single-member stream on both sides and yields the
// content as one child pair.
type Compressed struct {
	Decompressor archives.Decompressor
	Suffixes     []suffix
	// Header, when set, renders stream metadata compared as a detail.
	Header func(*unit.Unit) (string, error)
}

func (c Compressed) Name() string { return "compressed" }

func (c Compressed) Compare(ctx context.Context, left, right *unit.Unit, env *Env) (*Result, error) {
	sb, err := env.Sandbox()
	if err != nil {
		return nil, err
	}

	name := contentName(path.Base(left.Name), c.Suffixes)
	lu, err := c.decompress(ctx, sb, "left", left, name)
	if err != nil {
		return nil, err
	}
	ru, err := c.decompress(ctx, sb, "right", right, contentName(path.Base(right.Name), c.Suffixes))
	if err != nil {
		return nil, err
	}

	res := &Result{Children: []unit.Pair{{Name: name, Left: lu, Right: ru}}}
	if c.Header != nil {
		lh, err := c.Header(left)
		if err != nil {
			return nil, &ExtractionError{Name: left.Name, Err: err}
		}
		rh, err := c.Header(right)
		if err != nil {
			return nil, &ExtractionError{Name: right.Name, Err: err}
		}
		res.Details = append(res.Details, Detail{Source: "gzip header", Leaf: Leaf{Left: lh, Right: rh}})
	}
	return res, nil
}

func (c Compressed) decompress(ctx context.Context, sb *sandbox.Sandbox, side string, u *unit.Unit, name string) (*unit.Unit, error) {
	f, err := os.Open(u.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rc, err := c.Decompressor.OpenReader(f)
	if err != nil {
		return nil, &ExtractionError{Name: u.Name, Err: err}
	}
	defer rc.Close()

	p, n, err := sb.WriteFrom(ctx, path.Join(side, name), rc, 0o644)
	if err != nil {
		if errors.Is(err, sandbox.ErrLimitExceeded) || ctx.Err() != nil {
			return nil, err
		}
		return nil, &ExtractionError{Name: u.Name, Err: err}
	}
	return &unit.Unit{
		Name: unit.Member(u.Name, name),
		Path: p,
		Size: n,
		Kind: unit.File,
		Mode: 0o644,
	}, nil
}

// contentName derives the decompressed member name from the container name.
func contentName(base string, suffixes []suffix) string {
	lower := strings.ToLower(base)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.ext) && len(base) > len(s.ext) {
			return base[:len(base)-len(s.ext)] + s.repl
		}
	}
	return base + "-content"
}

// gzipHeader renders the gzip member header, which carries the original name
// and an mtime that commonly breaks reproducibility.
func gzipHeader(u *unit.Unit) (string, error) {
	f, err := os.Open(u.Path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	h := zr.Header
	mtime := "none"
	if !h.ModTime.IsZero() {
		mtime = h.ModTime.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("name: %q\nmtime: %s\nos: %d\ncomment: %q\nextra: %d bytes\n",
		h.Name, mtime, h.OS, h.Comment, len(h.Extra)), nil
}
