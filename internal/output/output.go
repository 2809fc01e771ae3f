// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/tfctl/deepcmp/internal/difference"
)

// Formats lists the accepted values of Options.Format.
var Formats = []string{"text", "json", "yaml"}

// Options select how a tree is written.
type Options struct {
	Format string
	Color  bool
	// Summary appends a table of changed paths to text output.
	Summary bool
}

// Write renders d to w. An empty tree writes nothing in text form and an
// empty document otherwise.
func Write(w io.Writer, d *difference.Difference, opts Options) error {
	switch opts.Format {
	case "", "text":
		if d.Empty() {
			return nil
		}
		NewText(opts.Color).Write(w, d)
		if opts.Summary {
			fmt.Fprintln(w)
			fmt.Fprintln(w, SummaryTable(d, opts.Color))
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if d.Empty() {
			return enc.Encode(struct{}{})
		}
		return enc.Encode(d)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		if d.Empty() {
			return enc.Encode(map[string]any{})
		}
		return enc.Encode(d)
	default:
		return fmt.Errorf("unknown output format %q, want one of %v", opts.Format, Formats)
	}
}

// ValidFormat reports whether f is an accepted format.
func ValidFormat(f string) bool {
	return slices.Contains(Formats, f)
}
