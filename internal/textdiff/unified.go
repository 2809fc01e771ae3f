// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package textdiff

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	DefaultContext  = 3
	DefaultMaxBytes = 32 << 20
	DefaultMaxLines = 200_000
)

// Options bound the cost of a text diff.
type Options struct {
	// Context is the number of unchanged lines shown around each change.
	Context int
	// MaxBytes is the combined input size above which only a summary is
	// produced. Zero disables the check.
	MaxBytes int64
	// MaxLines is the combined line count above which only a summary is
	// produced. Zero disables the check.
	MaxLines int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Context:  DefaultContext,
		MaxBytes: DefaultMaxBytes,
		MaxLines: DefaultMaxLines,
	}
}

// Diff returns the unified diff body between left and right, or "" when they
// are equal.
func Diff(left, right string, opts Options) string {
	body, _ := DiffContext(context.Background(), left, right, opts)
	return body
}

// DiffContext is Diff bounded by ctx. It fails with ctx.Err() when the
// deadline passes before the edit script is complete.
func DiffContext(ctx context.Context, left, right string, opts Options) (string, error) {
	if left == right {
		return "", nil
	}
	if opts.MaxBytes > 0 && int64(len(left))+int64(len(right)) > opts.MaxBytes {
		return Summary(ByteDelta(left, right)), nil
	}
	if !utf8.ValidString(left) || !utf8.ValidString(right) {
		return Summary(ByteDelta(left, right)), nil
	}

	a, b := Lines(left), Lines(right)
	if opts.MaxLines > 0 && len(a)+len(b) > opts.MaxLines {
		return Summary(ByteDelta(left, right)), nil
	}
	s, err := ComputeContext(ctx, a, b)
	if err != nil {
		return "", err
	}
	return Unified(s, opts.Context), nil
}

// Summary is the body used in place of a line diff.
func Summary(n int64) string {
	return fmt.Sprintf("%d bytes differ\n", n)
}

// ByteDelta counts the positions at which a and b differ, including the bytes
// one side has beyond the other's length.
func ByteDelta(a, b string) int64 {
	n := min(len(a), len(b))
	var d int64
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			d++
		}
	}
	return d + int64(max(len(a), len(b))-n)
}

type flatLine struct {
	op   Op
	text string
	a, b int
}

// Unified renders s as unified diff hunks with context lines around every
// change. Hunks whose gap is at most twice the context are merged.
func Unified(s Script, context int) string {
	context = max(context, 0)
	flat := flatten(s)

	var sb strings.Builder
	for i := 0; i < len(flat); {
		for i < len(flat) && flat[i].op == Equal {
			i++
		}
		if i == len(flat) {
			break
		}

		start := max(i-context, 0)
		end := i
		for {
			for end < len(flat) && flat[end].op != Equal {
				end++
			}
			j := end
			for j < len(flat) && flat[j].op == Equal {
				j++
			}
			if j == len(flat) || j-end > 2*context {
				end = min(end+context, len(flat))
				break
			}
			end = j
		}

		writeHunk(&sb, flat[start:end])
		i = end
	}
	return sb.String()
}

func flatten(s Script) []flatLine {
	var out []flatLine
	a, b := 0, 0
	for _, e := range s {
		for _, l := range e.Lines {
			out = append(out, flatLine{op: e.Op, text: l, a: a, b: b})
			switch e.Op {
			case Equal:
				a++
				b++
			case Delete:
				a++
			case Insert:
				b++
			}
		}
	}
	return out
}

func writeHunk(sb *strings.Builder, lines []flatLine) {
	var aCount, bCount int
	for _, l := range lines {
		switch l.op {
		case Equal:
			aCount++
			bCount++
		case Delete:
			aCount++
		case Insert:
			bCount++
		}
	}

	fmt.Fprintf(sb, "@@ -%s +%s @@\n", hunkRange(lines[0].a, aCount), hunkRange(lines[0].b, bCount))
	for _, l := range lines {
		switch l.op {
		case Equal:
			sb.WriteByte(' ')
		case Delete:
			sb.WriteByte('-')
		case Insert:
			sb.WriteByte('+')
		}
		sb.WriteString(l.text)
		if !strings.HasSuffix(l.text, "\n") {
			sb.WriteString("\n\\ No newline at end of file\n")
		}
	}
}

// hunkRange formats a 0-based start and a count the way GNU diff does: the
// count is omitted when it is one, and an empty range names the line before.
func hunkRange(start, count int) string {
	switch count {
	case 0:
		return strconv.Itoa(start) + ",0"
	case 1:
		return strconv.Itoa(start + 1)
	default:
		return strconv.Itoa(start+1) + "," + strconv.Itoa(count)
	}
}
