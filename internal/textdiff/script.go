// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package textdiff

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the kind of an edit run.
type Op int8

const (
	Equal Op = iota
	Delete
	Insert
)

func (o Op) String() string {
	switch o {
	case Equal:
		return "equal"
	case Delete:
		return "delete"
	case Insert:
		return "insert"
	}
	return fmt.Sprintf("Op(%d)", int8(o))
}

// Edit is a run of consecutive lines sharing one Op.
type Edit struct {
	Op    Op
	Lines []string
}

// Script is an ordered edit script that turns one line sequence into another.
// Within every change region deletions precede insertions.
type Script []Edit

// ErrMismatch is returned by Apply when the script was not computed from the
// given input.
var ErrMismatch = errors.New("edit script does not apply")

// maxLineIDs is the number of distinct lines that can be encoded as runes.
const maxLineIDs = utf8.MaxRune - 0x800

// Lines splits s into lines, keeping each "\n" terminator. A final line
// without a terminator is kept as is.
func Lines(s string) []string {
	if s == "" {
		return nil
	}
	lines := make([]string, 0, strings.Count(s, "\n")+1)
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}

// Compute returns the minimal edit script between a and b.
func Compute(a, b []string) Script {
	s, _ := ComputeContext(context.Background(), a, b)
	return s
}

// ComputeContext is Compute bounded by the deadline of ctx. Each distinct
// line is encoded as one rune so the character-level Myers implementation in
// diffmatchpatch runs over whole lines. Without a deadline DiffTimeout is zero
// and the script is minimal. When the deadline passes the error is ctx.Err()
// and no script is returned.
func ComputeContext(ctx context.Context, a, b []string) (Script, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := make(map[string]rune, len(a)+len(b))
	encode := func(lines []string) ([]rune, bool) {
		rs := make([]rune, len(lines))
		for i, l := range lines {
			r, ok := ids[l]
			if !ok {
				if len(ids) >= maxLineIDs {
					return nil, false
				}
				r = lineRune(len(ids))
				ids[l] = r
			}
			rs[i] = r
		}
		return rs, true
	}

	ra, okA := encode(a)
	rb, okB := encode(b)
	if !okA || !okB {
		return replaceAll(a, b), nil
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	deadline, bounded := ctx.Deadline()
	if bounded {
		left := time.Until(deadline)
		if left <= 0 {
			return nil, context.DeadlineExceeded
		}
		dmp.DiffTimeout = left
	}
	diffs := dmp.DiffMainRunes(ra, rb, false)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// diffmatchpatch gives up silently at its deadline, which is never
	// earlier than ours.
	if bounded && !time.Now().Before(deadline) {
		return nil, context.DeadlineExceeded
	}

	var s Script
	ia, ib := 0, 0
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			s = s.append(Equal, a[ia:ia+n])
			ia += n
			ib += n
		case diffmatchpatch.DiffDelete:
			s = s.append(Delete, a[ia:ia+n])
			ia += n
		case diffmatchpatch.DiffInsert:
			s = s.append(Insert, b[ib:ib+n])
			ib += n
		}
	}
	return s.normalize(), nil
}

// lineRune maps a line id to a rune outside the surrogate range.
func lineRune(id int) rune {
	r := rune(id + 1)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

// replaceAll is the degenerate script used when there are more distinct lines
// than runes: common prefix and suffix are kept, the middle is replaced.
func replaceAll(a, b []string) Script {
	p := 0
	for p < len(a) && p < len(b) && a[p] == b[p] {
		p++
	}
	q := 0
	for q < len(a)-p && q < len(b)-p && a[len(a)-1-q] == b[len(b)-1-q] {
		q++
	}
	var s Script
	s = s.append(Equal, a[:p])
	s = s.append(Delete, a[p:len(a)-q])
	s = s.append(Insert, b[p:len(b)-q])
	s = s.append(Equal, a[len(a)-q:])
	return s
}

func (s Script) append(op Op, lines []string) Script {
	if len(lines) == 0 {
		return s
	}
	if n := len(s); n > 0 && s[n-1].Op == op {
		s[n-1].Lines = append(slices.Clip(s[n-1].Lines), lines...)
		return s
	}
	return append(s, Edit{Op: op, Lines: slices.Clip(lines)})
}

// normalize merges adjacent runs and orders each change region as deletes
// then inserts.
func (s Script) normalize() Script {
	var out Script
	for i := 0; i < len(s); {
		if s[i].Op == Equal {
			out = out.append(Equal, s[i].Lines)
			i++
			continue
		}
		var del, ins []string
		for ; i < len(s) && s[i].Op != Equal; i++ {
			if s[i].Op == Delete {
				del = append(del, s[i].Lines...)
			} else {
				ins = append(ins, s[i].Lines...)
			}
		}
		out = out.append(Delete, del).append(Insert, ins)
	}
	return out
}

// Apply runs the script against a and returns the target sequence.
func (s Script) Apply(a []string) ([]string, error) {
	out := make([]string, 0, len(a))
	i := 0
	for _, e := range s {
		switch e.Op {
		case Equal, Delete:
			if i+len(e.Lines) > len(a) {
				return nil, fmt.Errorf("%w: script runs past line %d", ErrMismatch, len(a))
			}
			for j, l := range e.Lines {
				if a[i+j] != l {
					return nil, fmt.Errorf("%w: line %d", ErrMismatch, i+j+1)
				}
			}
			if e.Op == Equal {
				out = append(out, e.Lines...)
			}
			i += len(e.Lines)
		case Insert:
			out = append(out, e.Lines...)
		}
	}
	if i != len(a) {
		return nil, fmt.Errorf("%w: %d unconsumed lines", ErrMismatch, len(a)-i)
	}
	return out, nil
}

// Invert returns the script that turns the target back into the source.
func (s Script) Invert() Script {
	inv := make(Script, len(s))
	for i, e := range s {
		switch e.Op {
		case Delete:
			e.Op = Insert
		case Insert:
			e.Op = Delete
		}
		inv[i] = e
	}
	return inv.normalize()
}

// Counts returns the number of equal, deleted and inserted lines.
func (s Script) Counts() (equal, deleted, inserted int) {
	for _, e := range s {
		switch e.Op {
		case Equal:
			equal += len(e.Lines)
		case Delete:
			deleted += len(e.Lines)
		case Insert:
			inserted += len(e.Lines)
		}
	}
	return
}
