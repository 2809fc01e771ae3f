// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package comparators

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tfctl/deepcmp/internal/textdiff"
	"github.com/tfctl/deepcmp/internal/unit"
)

const rawChunk = 64 << 10

// Mismatch reports two units whose formats differ. It never recurses.
type Mismatch struct{}

func (Mismatch) Name() string { return "mismatch" }

func (Mismatch) Compare(_ context.Context, left, right *unit.Unit, _ *Env) (*Result, error) {
	return &Result{Leaf: &Leaf{
		Left:  "type: " + left.Format + "\n",
		Right: "type: " + right.Format + "\n",
	}}, nil
}

// Raw treats content as opaque bytes. Small files are hexdumped so the line
// diff points at the differing offsets; larger ones get a byte count.
type Raw struct{}

func (Raw) Name() string { return "raw" }

func (Raw) Compare(ctx context.Context, left, right *unit.Unit, env *Env) (*Result, error) {
	if !left.Regular() || !right.Regular() {
		return &Result{Leaf: &Leaf{Left: describe(left), Right: describe(right)}}, nil
	}

	limit := env.Options.HexdumpMax
	if left.Size <= limit && right.Size <= limit {
		lb, err := os.ReadFile(left.Path)
		if err != nil {
			return nil, err
		}
		rb, err := os.ReadFile(right.Path)
		if err != nil {
			return nil, err
		}
		return &Result{Leaf: &Leaf{Left: Hexdump(lb), Right: Hexdump(rb)}}, nil
	}

	n, err := countDiffering(ctx, left.Path, right.Path)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	if n > 0 {
		res.Leaf = &Leaf{Summary: textdiff.Summary(n)}
	}
	return res, nil
}

func describe(u *unit.Unit) string {
	return fmt.Sprintf("%s %s\n", u.Kind, u.Mode)
}

// Hexdump renders b in xxd layout, 16 bytes per line.
func Hexdump(b []byte) string {
	var sb strings.Builder
	for off := 0; off < len(b); off += 16 {
		line := b[off:min(off+16, len(b))]
		fmt.Fprintf(&sb, "%08x: ", off)
		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Fprintf(&sb, "%02x", line[i])
			} else {
				sb.WriteString("  ")
			}
			if i%2 == 1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte(' ')
		for _, c := range line {
			if c >= 0x20 && c < 0x7f {
				sb.WriteByte(c)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// countDiffering streams both files and counts differing byte positions plus
// the length difference.
func countDiffering(ctx context.Context, a, b string) (int64, error) {
	fa, err := os.Open(a)
	if err != nil {
		return 0, err
	}
	defer fa.Close()
	fb, err := os.Open(b)
	if err != nil {
		return 0, err
	}
	defer fb.Close()

	ra, rb := bufio.NewReaderSize(fa, rawChunk), bufio.NewReaderSize(fb, rawChunk)
	bufA, bufB := make([]byte, rawChunk), make([]byte, rawChunk)

	var n int64
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		na, errA := io.ReadFull(ra, bufA)
		nb, errB := io.ReadFull(rb, bufB)
		if errA != nil && errA != io.EOF && errA != io.ErrUnexpectedEOF {
			return 0, errA
		}
		if errB != nil && errB != io.EOF && errB != io.ErrUnexpectedEOF {
			return 0, errB
		}

		m := min(na, nb)
		for i := 0; i < m; i++ {
			if bufA[i] != bufB[i] {
				n++
			}
		}
		n += int64(max(na, nb) - m)

		doneA, doneB := errA != nil, errB != nil
		switch {
		case doneA && doneB:
			return n, nil
		case doneA:
			rest, err := io.Copy(io.Discard, rb)
			return n + rest, err
		case doneB:
			rest, err := io.Copy(io.Discard, ra)
			return n + rest, err
		}
	}
}

// readText reads a whole file when it fits under limit.
func readText(p string, limit int64) (string, bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		return "", false, err
	}
	if limit > 0 && info.Size() > limit {
		return "", false, nil
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}
