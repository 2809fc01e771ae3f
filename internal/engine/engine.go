// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tfctl/deepcmp/internal/comparators"
	"github.com/tfctl/deepcmp/internal/difference"
	"github.com/tfctl/deepcmp/internal/identify"
	"github.com/tfctl/deepcmp/internal/log"
	"github.com/tfctl/deepcmp/internal/sandbox"
	"github.com/tfctl/deepcmp/internal/textdiff"
	"github.com/tfctl/deepcmp/internal/tool"
	"github.com/tfctl/deepcmp/internal/unit"
)

// ErrPanic is matched by the error recorded for a comparator that panicked.
var ErrPanic = errors.New("comparator panicked")

const (
	metadataName = "metadata"
	dataDiffers  = "No differences found inside, yet data differs"
)

// Engine runs comparisons with a fixed set of options. It is safe to call
// Run from several goroutines.
type Engine struct {
	opts Options
}

// New returns an Engine. Zero option fields take their defaults.
func New(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// run is the state shared by every pair of one Run call.
type run struct {
	opts      Options
	dir       string
	sem       *semaphore.Weighted
	remaining atomic.Int64
}

// Compare builds root units from two local paths and runs the engine on
// them. Roots that cannot be read fail with unit.ErrUnreadable.
func Compare(ctx context.Context, leftPath, rightPath string, opts Options) (*difference.Difference, error) {
	l, err := unit.FromPath(leftPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", leftPath, err)
	}
	r, err := unit.FromPath(rightPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rightPath, err)
	}
	return New(opts).Run(ctx, unit.Pair{Name: leftPath, Left: l, Right: r})
}

// Run compares root and returns the pruned difference tree, which is empty
// when the two sides are equivalent. It fails only when ctx is cancelled or
// the run directory cannot be created. Temporary files are removed before
// Run returns.
func (e *Engine) Run(ctx context.Context, root unit.Pair) (*difference.Difference, error) {
	base := e.opts.TempDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "deepcmp-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warnf("failed to remove %s: %s", dir, err)
		}
	}()

	r := &run{
		opts: e.opts,
		dir:  dir,
		sem:  semaphore.NewWeighted(int64(e.opts.Jobs)),
	}
	r.remaining.Store(e.opts.MaxElements)
	r.take()

	log.Debugf("run %s: %s vs %s", filepath.Base(dir), unit.DisplayName(root.Left), unit.DisplayName(root.Right))
	d := r.process(ctx, root, 0)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.Prune(), nil
}

// take charges one pair against the element budget.
func (r *run) take() bool {
	return r.remaining.Add(-1) >= 0
}

// process compares one pair and, recursively, the pairs it contains.
func (r *run) process(ctx context.Context, pair unit.Pair, depth int) *difference.Difference {
	d := difference.New(pair.Name, unit.DisplayName(pair.Left), unit.DisplayName(pair.Right))
	if ctx.Err() != nil {
		return d
	}

	switch {
	case pair.Added():
		d.Change = difference.Added
		d.AddComment("added")
		return d
	case pair.Removed():
		d.Change = difference.Removed
		d.AddComment("removed")
		return d
	case pair.Left == nil:
		return d
	}

	var details []*difference.Difference
	if pair.Left.Meta != pair.Right.Meta {
		md := difference.New(metadataName, "", "")
		md.Body = textdiff.Diff(pair.Left.Meta+"\n", pair.Right.Meta+"\n", r.opts.Diff)
		details = append(details, md)
	}

	left, right, same, err := r.inspect(ctx, pair)
	switch {
	case ctx.Err() != nil:
		return d
	case err != nil:
		d.AddComment("Unreadable content: %s", err)
		d.Add(details...)
		return d
	case same:
		d.Add(details...)
		return d
	}

	cmp := r.opts.Registry.Select(left.Format, right.Format)
	if depth > r.opts.MaxDepth {
		d.AddComment("Maximum depth of %d reached; contents not unpacked", r.opts.MaxDepth)
		if !left.Regular() || !right.Regular() {
			d.Add(details...)
			return d
		}
		cmp = r.opts.Registry.Fallback()
	}

	env := comparators.NewEnv(r.opts.Tools, r.opts.Comparator, r.dir, r.opts.Limits)
	env.Exclude = r.opts.Exclude.Excludes
	defer func() {
		if err := env.Close(); err != nil {
			log.Warnf("failed to remove sandbox for %s: %s", pair.Name, err)
		}
	}()

	out, err := r.invoke(ctx, cmp, left, right, env)
	if err != nil {
		if ctx.Err() != nil {
			return d
		}
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warnf("%s: %s timed out", pair.Name, cmp.Name())
			t := difference.New(pair.Name, d.LeftName, d.RightName)
			t.AddComment("Comparison timed out after %s", r.opts.Timeout)
			return t
		}

		d.AddComment("%s", failureComment(err))
		log.WithError(err).Warn(fmt.Sprintf("%s: %s failed, falling back", pair.Name, cmp.Name()))
		r.fallback(ctx, d, left, right, env)
		d.Add(details...)
		return d
	}

	d.Body = out.body
	d.Comments = append(d.Comments, out.res.Comments...)
	details = append(details, out.details...)

	children, skipped := r.children(ctx, out.res.Children, depth)

	found := d.Body != "" || slices.ContainsFunc(details, hasBody) || slices.ContainsFunc(children, func(c *difference.Difference) bool {
		return !c.Empty()
	})
	if !found && cmp != r.opts.Registry.Fallback() && left.Regular() && right.Regular() {
		d.AddComment(dataDiffers)
		r.fallback(ctx, d, left, right, env)
	}

	d.Add(details...)
	d.Add(children...)
	if skipped > 0 {
		d.AddComment("Element budget of %d exhausted; %d entries not compared", r.opts.MaxElements, skipped)
	}
	return d
}

func hasBody(d *difference.Difference) bool {
	return d.Body != ""
}

// inspect classifies both sides and, for regular files of equal size,
// compares their digests. The file reads hold a job slot.
func (r *run) inspect(ctx context.Context, pair unit.Pair) (left, right *unit.Unit, same bool, err error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, false, err
	}
	defer r.sem.Release(1)

	left, right = identify.Classify(pair.Left), identify.Classify(pair.Right)
	log.Tracef("pair %s: %s vs %s", pair.Name, left.Format, right.Format)

	if left.Regular() && right.Regular() && left.Size == right.Size {
		same, err = sameDigest(ctx, left.Path, right.Path)
	}
	return left, right, same, err
}

// output is a comparator result with its leaves rendered.
type output struct {
	res     *comparators.Result
	body    string
	details []*difference.Difference
}

// invoke runs one comparator step under the job semaphore and the step
// timeout. Leaves are rendered while the slot is held.
func (r *run) invoke(ctx context.Context, cmp comparators.Comparator, left, right *unit.Unit, env *comparators.Env) (out *output, err error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	tctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("%w: %s: %v", ErrPanic, cmp.Name(), p)
		}
	}()

	res, err := cmp.Compare(tctx, left, right, env)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &comparators.Result{}
	}

	body, err := r.render(tctx, res.Leaf)
	if err != nil {
		return nil, err
	}
	out = &output{res: res, body: body}
	for _, dt := range res.Details {
		n := difference.New(dt.Source, "", "")
		if n.Body, err = r.render(tctx, &dt.Leaf); err != nil {
			return nil, err
		}
		out.details = append(out.details, n)
	}
	return out, nil
}

// render diffs a leaf within the step deadline.
func (r *run) render(ctx context.Context, l *comparators.Leaf) (string, error) {
	if l == nil {
		return "", nil
	}
	if l.Summary != "" {
		return l.Summary, nil
	}
	return textdiff.DiffContext(ctx, l.Left, l.Right, r.opts.Diff)
}

// fallback compares the pair as raw bytes and attaches the result to d.
func (r *run) fallback(ctx context.Context, d *difference.Difference, left, right *unit.Unit, env *comparators.Env) {
	out, err := r.invoke(ctx, r.opts.Registry.Fallback(), left, right, env)
	switch {
	case err == nil:
		d.Body = out.body
	case ctx.Err() != nil:
	case errors.Is(err, context.DeadlineExceeded):
		d.AddComment("Comparison timed out after %s", r.opts.Timeout)
	default:
		d.AddComment("Binary comparison failed: %s", err)
	}
}

// children processes member pairs concurrently and returns their results in
// name order. Excluded pairs are dropped silently. Pairs beyond the element
// budget are dropped and counted.
func (r *run) children(ctx context.Context, pairs []unit.Pair, depth int) ([]*difference.Difference, int) {
	if len(pairs) == 0 {
		return nil, 0
	}

	work := make([]unit.Pair, 0, len(pairs))
	skipped := 0
	for _, p := range pairs {
		if r.opts.Exclude.Excludes(p) {
			continue
		}
		if skipped > 0 || !r.take() {
			skipped++
			continue
		}
		work = append(work, p)
	}

	results := make([]*difference.Difference, len(work))
	var g errgroup.Group
	for i, p := range work {
		g.Go(func() error {
			results[i] = r.process(ctx, p, depth+1)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortStableFunc(results, func(a, b *difference.Difference) int {
		return strings.Compare(a.Name, b.Name)
	})
	return results, skipped
}

// failureComment renders the comment recorded when a comparator fails and
// the pair falls back to a raw comparison.
func failureComment(err error) string {
	var (
		unavailable *tool.UnavailableError
		exit        *tool.ExitError
	)
	switch {
	case errors.As(err, &unavailable):
		return fmt.Sprintf("'%s' not available in path. Falling back to binary comparison.", unavailable.Name)
	case errors.As(err, &exit):
		var sb strings.Builder
		fmt.Fprintf(&sb, "Command `%s` exited with %d. Output:", strings.Join(exit.Command, " "), exit.Code)
		for _, line := range strings.Split(strings.TrimRight(string(exit.Output), "\n"), "\n") {
			if line != "" {
				sb.WriteString("\n    " + line)
			}
		}
		return sb.String()
	case errors.Is(err, sandbox.ErrLimitExceeded):
		return "Resource limit exceeded: " + err.Error()
	case errors.Is(err, comparators.ErrExtraction):
		return "Extraction failed: " + err.Error()
	default:
		return "Comparison failed: " + err.Error()
	}
}
