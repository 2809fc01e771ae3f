// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package unit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
)

// Kind is the filesystem nature of a unit, known before its content is
// identified.
type Kind int

const (
	File Kind = iota
	Directory
	Symlink
	Device
)

func (k Kind) String() string {
	switch k {
	case Directory:
		return "directory"
	case Symlink:
		return "symlink"
	case Device:
		return "device"
	default:
		return "file"
	}
}

// ErrUnreadable marks a root input that cannot be opened.
var ErrUnreadable = errors.New("unreadable input")

// Unit is one side of a comparison. Units are values; identification returns
// a copy with Format set instead of modifying the original.
type Unit struct {
	// Name is the display name. Extracted members use a synthetic
	// container/member path.
	Name string
	// Path is the backing content on disk. It is empty for members that have
	// no content of their own, such as symlinks read from an archive header.
	Path       string
	Format     string
	Size       int64
	Kind       Kind
	Mode       fs.FileMode
	LinkTarget string
	// Meta is the container-provided metadata line for this member.
	Meta string
}

// Regular reports whether u has byte content on disk.
func (u *Unit) Regular() bool {
	return u != nil && u.Kind == File && u.Path != ""
}

// DisplayName returns u.Name, or "" for an absent side.
func DisplayName(u *Unit) string {
	if u == nil {
		return ""
	}
	return u.Name
}

// FromPath builds a root unit from a local path without following a final
// symlink. A root that cannot be opened wraps ErrUnreadable.
func FromPath(p string) (*Unit, error) {
	info, err := os.Lstat(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	u, err := FromInfo(p, p, info)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if u.Kind == File || u.Kind == Directory {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
		}
		_ = f.Close()
	}
	return u, nil
}

// FromInfo builds a unit for an on-disk entry described by info.
func FromInfo(name, p string, info fs.FileInfo) (*Unit, error) {
	u := &Unit{Name: name, Path: p, Size: info.Size(), Mode: info.Mode()}
	switch mode := info.Mode(); {
	case mode.IsDir():
		u.Kind = Directory
		u.Size = 0
	case mode&fs.ModeSymlink != 0:
		target, err := os.Readlink(p)
		if err != nil {
			return nil, err
		}
		u.Kind = Symlink
		u.LinkTarget = target
		u.Size = 0
	case mode&(fs.ModeDevice|fs.ModeCharDevice|fs.ModeNamedPipe|fs.ModeSocket|fs.ModeIrregular) != 0:
		u.Kind = Device
		u.Size = 0
	default:
		u.Kind = File
	}
	return u, nil
}

// Pair is the unit of recursive work. Left nil means the member was added;
// Right nil means it was removed.
type Pair struct {
	Name  string
	Left  *Unit
	Right *Unit
}

// Added reports whether only the right side exists.
func (p Pair) Added() bool {
	return p.Left == nil && p.Right != nil
}

// Removed reports whether only the left side exists.
func (p Pair) Removed() bool {
	return p.Left != nil && p.Right == nil
}

// Match pairs members by relative path. The result is sorted by path.
func Match(left, right map[string]*Unit) []Pair {
	pairs := make([]Pair, 0, max(len(left), len(right)))
	for name, l := range left {
		pairs = append(pairs, Pair{Name: name, Left: l, Right: right[name]})
	}
	for name, r := range right {
		if _, ok := left[name]; !ok {
			pairs = append(pairs, Pair{Name: name, Right: r})
		}
	}
	SortPairs(pairs)
	return pairs
}

// SortPairs orders pairs by name ascending.
func SortPairs(pairs []Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Name < pairs[j].Name
	})
}

// Member returns the synthetic display name of a member inside a container.
func Member(container, rel string) string {
	return path.Join(container, rel)
}
