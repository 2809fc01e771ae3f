// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package difference

import (
	"fmt"
	"strings"
)

// Change classifies a node relative to its pair.
type Change int

const (
	Modified Change = iota
	Added
	Removed
)

func (c Change) String() string {
	switch c {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "modified"
	}
}

// MarshalText renders the change by name in json and yaml output.
func (c Change) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Difference is one node of the report tree.
type Difference struct {
	Name      string        `json:"name" yaml:"name"`
	LeftName  string        `json:"left,omitempty" yaml:"left,omitempty"`
	RightName string        `json:"right,omitempty" yaml:"right,omitempty"`
	Change    Change        `json:"change" yaml:"change"`
	Body      string        `json:"body,omitempty" yaml:"body,omitempty"`
	Comments  []string      `json:"comments,omitempty" yaml:"comments,omitempty"`
	Children  []*Difference `json:"children,omitempty" yaml:"children,omitempty"`
}

// New returns an empty node for a pair.
func New(name, left, right string) *Difference {
	return &Difference{Name: name, LeftName: left, RightName: right}
}

// AddComment appends a formatted comment. Trailing newlines are trimmed.
func (d *Difference) AddComment(format string, args ...any) {
	c := format
	if len(args) > 0 {
		c = fmt.Sprintf(format, args...)
	}
	d.Comments = append(d.Comments, strings.TrimRight(c, "\n"))
}

// Add appends children in order, skipping nil and empty nodes.
func (d *Difference) Add(children ...*Difference) {
	for _, c := range children {
		if c == nil || c.Empty() {
			continue
		}
		d.Children = append(d.Children, c)
	}
}

// Empty reports whether d carries no difference at all.
func (d *Difference) Empty() bool {
	return d == nil || (d.Body == "" && len(d.Comments) == 0 && len(d.Children) == 0)
}

// Prune removes empty descendants bottom-up and returns d.
func (d *Difference) Prune() *Difference {
	if d == nil {
		return nil
	}
	kept := d.Children[:0]
	for _, c := range d.Children {
		if c.Prune().Empty() {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		kept = nil
	}
	d.Children = kept
	return d
}

// Walk visits d and its descendants depth-first, parents before children.
// Returning an error from fn stops the walk.
func (d *Difference) Walk(fn func(depth int, n *Difference) error) error {
	return d.walk(0, fn)
}

func (d *Difference) walk(depth int, fn func(int, *Difference) error) error {
	if d == nil {
		return nil
	}
	if err := fn(depth, d); err != nil {
		return err
	}
	for _, c := range d.Children {
		if err := c.walk(depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of nodes in the tree rooted at d.
func (d *Difference) Count() int {
	n := 0
	_ = d.Walk(func(int, *Difference) error {
		n++
		return nil
	})
	return n
}

// Find returns the first descendant whose path of names from d matches path.
func (d *Difference) Find(path ...string) *Difference {
	cur := d
	for _, name := range path {
		var next *Difference
		for _, c := range cur.Children {
			if c.Name == name {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}
