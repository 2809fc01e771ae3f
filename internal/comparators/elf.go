// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package comparators

import (
	"context"
	"debug/elf"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/mholt/archives"
	"golang.org/x/crypto/blake2b"

	"github.com/tfctl/deepcmp/internal/sandbox"
	"github.com/tfctl/deepcmp/internal/tool"
	"github.com/tfctl/deepcmp/internal/unit"
)

const debugDataSection = ".gnu_debugdata"

// elfTool is an external dump attached as a detail when the tool exists.
type elfTool struct {
	name string
	args []string
}

var elfTools = []elfTool{
	{name: "readelf", args: []string{"--wide", "--all"}},
	{name: "objdump", args: []string{"--disassemble"}},
}

// ELF dumps object headers with debug/elf and adds binutils output when it is
// available.
type ELF struct{}

func (ELF) Name() string { return "elf" }

func (ELF) Compare(ctx context.Context, left, right *unit.Unit, env *Env) (*Result, error) {
	lf, err := elf.Open(left.Path)
	if err != nil {
		return nil, &ExtractionError{Name: left.Name, Err: err}
	}
	defer lf.Close()
	rf, err := elf.Open(right.Path)
	if err != nil {
		return nil, &ExtractionError{Name: right.Name, Err: err}
	}
	defer rf.Close()

	ld, err := dumpELF(lf)
	if err != nil {
		return nil, &ExtractionError{Name: left.Name, Err: err}
	}
	rd, err := dumpELF(rf)
	if err != nil {
		return nil, &ExtractionError{Name: right.Name, Err: err}
	}

	res := &Result{Leaf: &Leaf{Left: ld, Right: rd}}
	for _, t := range elfTools {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := res.runDetail(ctx, env.Tools, t.name, t.args, left, right); err != nil {
			return nil, err
		}
	}

	if err := debugData(ctx, env, lf, rf, left, right, res); err != nil {
		return nil, err
	}
	return res, nil
}

// runDetail runs a tool against both sides and records the outputs as a
// detail. Tool failures are recorded as comments so the rest of the
// comparison survives them.
func (r *Result) runDetail(ctx context.Context, tools *tool.Set, name string, args []string, left, right *unit.Unit) error {
	source := strings.TrimSpace(name + " " + strings.Join(args, " "))
	run := func(u *unit.Unit) (string, error) {
		out, err := tools.Run(ctx, name, slices.Concat(args, []string{u.Path})...)
		if err != nil {
			return "", err
		}
		return strings.ReplaceAll(string(out), u.Path, "<file>"), nil
	}

	l, err := run(left)
	if err == nil {
		var rs string
		if rs, err = run(right); err == nil {
			r.Details = append(r.Details, Detail{Source: source, Leaf: Leaf{Left: l, Right: rs}})
			return nil
		}
	}

	var exitErr *tool.ExitError
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, tool.ErrUnavailable):
		r.Comment("%s. Skipping %s.", err, source)
	case errors.As(err, &exitErr):
		r.Comment("Command `%s` exited with %d. Output:\n%s", source, exitErr.Code, indent(string(exitErr.Output)))
	case errors.Is(err, sandbox.ErrLimitExceeded):
		r.Comment("Resource limit exceeded: %s", err)
	default:
		return err
	}
	return nil
}

func indent(s string) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}

// dumpELF renders the parts of an object that matter for reproducibility.
func dumpELF(f *elf.File) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "class: %s\ndata: %s\nosabi: %s\ntype: %s\nmachine: %s\nentry: %#x\n",
		f.Class, f.Data, f.OSABI, f.Type, f.Machine, f.Entry)

	sb.WriteString("\nsections:\n")
	for _, s := range f.Sections {
		sum := "-"
		if s.Type != elf.SHT_NOBITS && s.Size > 0 {
			h, err := blake2b.New256(nil)
			if err != nil {
				return "", err
			}
			if _, err := io.Copy(h, s.Open()); err != nil {
				return "", fmt.Errorf("section %s: %w", s.Name, err)
			}
			sum = hex.EncodeToString(h.Sum(nil))
		}
		fmt.Fprintf(&sb, "  %-24s %-14s flags=%s addr=%#x size=%d %s\n",
			s.Name, s.Type, s.Flags, s.Addr, s.Size, sum)
	}

	if len(f.Progs) > 0 {
		sb.WriteString("\nprograms:\n")
		for _, p := range f.Progs {
			fmt.Fprintf(&sb, "  %-14s flags=%s vaddr=%#x filesz=%d memsz=%d\n",
				p.Type, p.Flags, p.Vaddr, p.Filesz, p.Memsz)
		}
	}

	if libs, err := f.ImportedLibraries(); err == nil && len(libs) > 0 {
		sort.Strings(libs)
		sb.WriteString("\nlibraries:\n")
		for _, l := range libs {
			fmt.Fprintf(&sb, "  %s\n", l)
		}
	}

	for _, table := range []struct {
		name string
		syms func() ([]elf.Symbol, error)
	}{
		{"symbols", f.Symbols},
		{"dynamic symbols", f.DynamicSymbols},
	} {
		syms, err := table.syms()
		if errors.Is(err, elf.ErrNoSymbols) || len(syms) == 0 {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", table.name, err)
		}
		fmt.Fprintf(&sb, "\n%s:\n", table.name)
		for _, s := range syms {
			fmt.Fprintf(&sb, "  %-40s %s %s value=%#x size=%d\n",
				s.Name, elf.ST_BIND(s.Info), elf.ST_TYPE(s.Info), s.Value, s.Size)
		}
	}
	return sb.String(), nil
}

// debugData adds the xz-compressed mini debuginfo of both objects as a child
// pair.
func debugData(ctx context.Context, env *Env, lf, rf *elf.File, left, right *unit.Unit, res *Result) error {
	ls, rs := lf.Section(debugDataSection), rf.Section(debugDataSection)
	if ls == nil && rs == nil {
		return nil
	}
	sb, err := env.Sandbox()
	if err != nil {
		return err
	}

	write := func(side string, s *elf.Section, u *unit.Unit) (*unit.Unit, error) {
		if s == nil {
			return nil, nil
		}
		rc, err := archives.Xz{}.OpenReader(s.Open())
		if err != nil {
			return nil, &ExtractionError{Name: u.Name, Err: err}
		}
		defer rc.Close()
		p, n, err := sb.WriteFrom(ctx, path.Join(side, "debugdata"), rc, 0o644)
		if err != nil {
			if errors.Is(err, sandbox.ErrLimitExceeded) || ctx.Err() != nil {
				return nil, err
			}
			return nil, &ExtractionError{Name: u.Name, Err: err}
		}
		return &unit.Unit{
			Name: unit.Member(u.Name, debugDataSection),
			Path: p,
			Size: n,
			Kind: unit.File,
			Mode: 0o644,
		}, nil
	}

	lu, err := write("left", ls, left)
	if err != nil {
		return err
	}
	ru, err := write("right", rs, right)
	if err != nil {
		return err
	}
	res.Children = append(res.Children, unit.Pair{Name: debugDataSection, Left: lu, Right: ru})
	return nil
}

