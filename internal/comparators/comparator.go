// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package comparators

import (
	"context"
	"errors"
	"fmt"

	"github.com/tfctl/deepcmp/internal/sandbox"
	"github.com/tfctl/deepcmp/internal/tool"
	"github.com/tfctl/deepcmp/internal/unit"
)

// Comparator compares two units of the same format.
type Comparator interface {
	Name() string
	Compare(ctx context.Context, left, right *unit.Unit, env *Env) (*Result, error)
}

// Leaf is a pair of normalized texts to diff. When Summary is set it is used
// as the body as is.
type Leaf struct {
	Left    string
	Right   string
	Summary string
}

// Detail is a named leaf attached below the pair, such as tool output.
type Detail struct {
	Source string
	Leaf
}

// Result is what a comparator found.
type Result struct {
	Leaf     *Leaf
	Details  []Detail
	Children []unit.Pair
	Comments []string
}

// Comment appends a formatted comment.
func (r *Result) Comment(format string, args ...any) {
	r.Comments = append(r.Comments, fmt.Sprintf(format, args...))
}

// Options tune comparator costs.
type Options struct {
	// HexdumpMax is the largest size for which the raw comparator renders a
	// full hexdump. Above it only a byte count is reported.
	HexdumpMax int64
	// MaxTextBytes is the largest file read whole as text.
	MaxTextBytes int64
}

const (
	DefaultHexdumpMax   = 64 << 10
	DefaultMaxTextBytes = 32 << 20
)

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{HexdumpMax: DefaultHexdumpMax, MaxTextBytes: DefaultMaxTextBytes}
}

// ErrExtraction is matched by every *ExtractionError.
var ErrExtraction = errors.New("extraction failed")

// ExtractionError reports a container or encoding that could not be decoded.
type ExtractionError struct {
	Name string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// Env carries the collaborators of one comparator invocation. The sandbox is
// created on first use and removed by Close.
type Env struct {
	Tools   *tool.Set
	Options Options
	// Exclude reports members left out of file lists. Nil excludes nothing.
	Exclude func(unit.Pair) bool

	base   string
	limits sandbox.Limits
	sb     *sandbox.Sandbox
}

// NewEnv returns an Env whose sandbox will live below base.
func NewEnv(tools *tool.Set, opts Options, base string, limits sandbox.Limits) *Env {
	return &Env{Tools: tools, Options: opts, base: base, limits: limits}
}

// Sandbox returns the invocation's sandbox, creating it if needed.
func (e *Env) Sandbox() (*sandbox.Sandbox, error) {
	if e.sb != nil {
		return e.sb, nil
	}
	sb, err := sandbox.New(e.base, e.limits)
	if err != nil {
		return nil, err
	}
	e.sb = sb
	return sb, nil
}

func (e *Env) excluded(p unit.Pair) bool {
	return e != nil && e.Exclude != nil && e.Exclude(p)
}

// Close removes the sandbox if one was created.
func (e *Env) Close() error {
	if e.sb == nil {
		return nil
	}
	return e.sb.Close()
}
