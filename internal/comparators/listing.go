// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package comparators

import (
	"fmt"
	"strings"

	"github.com/tfctl/deepcmp/internal/unit"
)

const fileListSource = "file list"

// listLine renders one member of a file list.
type listLine func(name string, u *unit.Unit) string

func nameLine(name string, _ *unit.Unit) string {
	return name
}

func archiveLine(name string, u *unit.Unit) string {
	s := fmt.Sprintf("%s %10d %s", u.Mode, u.Size, name)
	if u.Kind == unit.Symlink {
		s += " -> " + u.LinkTarget
	}
	return s
}

// addFileList attaches the sorted member listing of both sides when the
// listings differ. Excluded members are not listed.
func addFileList(res *Result, env *Env, line listLine) {
	var l, r strings.Builder
	for _, p := range res.Children {
		if env.excluded(p) {
			continue
		}
		if p.Left != nil {
			l.WriteString(line(p.Name, p.Left) + "\n")
		}
		if p.Right != nil {
			r.WriteString(line(p.Name, p.Right) + "\n")
		}
	}
	if l.String() == r.String() {
		return
	}
	res.Details = append(res.Details, Detail{
		Source: fileListSource,
		Leaf:   Leaf{Left: l.String(), Right: r.String()},
	})
}
