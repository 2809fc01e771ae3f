// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package comparators

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/pretty"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/tfctl/deepcmp/internal/unit"
)

var prettyOptions = &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: true}

// JSON diffs the key-sorted pretty form of two documents and adds a
// structural delta when their values differ.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Compare(ctx context.Context, left, right *unit.Unit, env *Env) (*Result, error) {
	limit := env.Options.MaxTextBytes
	l, lok, err := readText(left.Path, limit)
	if err != nil {
		return nil, err
	}
	r, rok, err := readText(right.Path, limit)
	if err != nil {
		return nil, err
	}
	if !lok || !rok {
		return Text{}.Compare(ctx, left, right, env)
	}

	lp := string(pretty.PrettyOptions([]byte(l), prettyOptions))
	rp := string(pretty.PrettyOptions([]byte(r), prettyOptions))
	res := &Result{Leaf: &Leaf{Left: lp, Right: rp}}
	if lp == rp {
		return res, nil
	}

	delta, err := jsonDelta([]byte(l), []byte(r))
	if err != nil {
		res.Comment("json delta unavailable: %s", err)
		return res, nil
	}
	if delta != "" {
		res.Details = append(res.Details, Detail{Source: "json delta", Leaf: Leaf{Summary: delta}})
	}
	return res, nil
}

// jsonDelta renders a structural comparison of two documents. Top-level
// values of different shapes have no structural delta.
func jsonDelta(a, b []byte) (string, error) {
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return "", err
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return "", err
	}

	differ := gojsondiff.New()
	var d gojsondiff.Diff
	switch at := av.(type) {
	case map[string]any:
		bt, ok := bv.(map[string]any)
		if !ok {
			return "", nil
		}
		d = differ.CompareObjects(at, bt)
	case []any:
		bt, ok := bv.([]any)
		if !ok {
			return "", nil
		}
		d = differ.CompareArrays(at, bt)
	default:
		return "", nil
	}
	if !d.Modified() {
		return "", nil
	}

	f := formatter.NewAsciiFormatter(av, formatter.AsciiFormatterConfig{ShowArrayIndex: true})
	out, err := f.Format(d)
	if err != nil {
		return "", fmt.Errorf("format delta: %w", err)
	}
	return out, nil
}

