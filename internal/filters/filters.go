// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/tfctl/deepcmp/internal/log"
	"github.com/tfctl/deepcmp/internal/unit"
)

// filterRegex splits an expression into key, optional negated operator and
// target. Operators are one of = ~ ^ @ / % < >, optionally prefixed with '!'.
var filterRegex = regexp.MustCompile(`^([a-z]+)(!?[=~^@/%<>])(.*)$`)

// Keys lists the member fields an expression can test.
var Keys = []string{"meta", "name", "path", "size"}

// Filter is a single parsed expression.
type Filter struct {
	Key     string `yaml:"key" json:"Key"`
	Negate  bool   `yaml:"negate" json:"Negate"`
	Operand string `yaml:"operand" json:"Operand"`
	Value   string `yaml:"value" json:"Value"`

	re *regexp.Regexp
}

// Spec is a conjunction of filters.
type Spec []Filter

// Set is a disjunction of specs. The zero Set excludes nothing.
type Set []Spec

// BuildSpec parses a spec string. A spec that is not a key-operator-target
// list is taken as a glob on path or name.
func BuildSpec(spec string) (Spec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty exclusion")
	}

	// Default delimiter is ",", allow an override for patterns that contain
	// commas.
	delim := ","
	if d, ok := os.LookupEnv("DEEPCMP_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	var filters Spec
	for _, expr := range strings.Split(spec, delim) {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}

		parts := filterRegex.FindStringSubmatch(expr)
		if parts == nil || !slices.Contains(Keys, parts[1]) {
			return globSpec(spec)
		}

		f := Filter{Key: parts[1], Operand: parts[2], Value: parts[3]}
		if strings.HasPrefix(f.Operand, "!") {
			f.Negate = true
			f.Operand = strings.TrimPrefix(f.Operand, "!")
		}
		if err := f.compile(); err != nil {
			return nil, fmt.Errorf("invalid exclusion %q: %w", expr, err)
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func globSpec(pattern string) (Spec, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid exclusion %q: %w", pattern, err)
	}
	return Spec{{Key: "", Operand: "%", Value: pattern}}, nil
}

func (f *Filter) compile() error {
	switch f.Operand {
	case "/":
		re, err := regexp.Compile(f.Value)
		if err != nil {
			return err
		}
		f.re = re
	case "%":
		if _, err := path.Match(f.Value, ""); err != nil {
			return err
		}
	case "<", ">":
		if f.Key == "size" {
			if _, err := strconv.ParseInt(strings.TrimSpace(f.Value), 10, 64); err != nil {
				return fmt.Errorf("invalid numeric value: %s", f.Value)
			}
		}
	}
	return nil
}

// BuildSet parses each spec.
func BuildSet(specs []string) (Set, error) {
	set := make(Set, 0, len(specs))
	for _, s := range specs {
		spec, err := BuildSpec(s)
		if err != nil {
			return nil, err
		}
		set = append(set, spec)
	}
	return set, nil
}

// Excludes reports whether any spec of s matches pair.
func (s Set) Excludes(pair unit.Pair) bool {
	for _, spec := range s {
		if spec.Match(pair) {
			log.Debugf("excluded %s", pair.Name)
			return true
		}
	}
	return false
}

// Match reports whether pair satisfies every filter of spec.
func (spec Spec) Match(pair unit.Pair) bool {
	if len(spec) == 0 {
		return false
	}
	u := pair.Left
	if u == nil {
		u = pair.Right
	}
	for _, f := range spec {
		if !f.match(pair.Name, u) {
			return false
		}
	}
	return true
}

func (f Filter) match(name string, u *unit.Unit) bool {
	switch f.Key {
	case "":
		return checkGlob(name, f) || checkGlob(path.Base(name), f)
	case "path":
		return checkStringOperand(name, f)
	case "name":
		return checkStringOperand(path.Base(name), f)
	case "meta":
		if u == nil {
			return false
		}
		return checkStringOperand(u.Meta, f)
	case "size":
		if u == nil {
			return false
		}
		return checkNumericOperand(u.Size, f)
	default:
		return false
	}
}

// checkNumericOperand compares a size against the filter value. Supported
// operands: =, >, < and their negations.
func checkNumericOperand(value int64, filter Filter) bool {
	tgt, err := strconv.ParseInt(strings.TrimSpace(filter.Value), 10, 64)
	if err != nil {
		log.Errorf("invalid numeric value: %s", filter.Value)
		return false
	}

	switch filter.Operand {
	case "=":
		return (value == tgt) == !filter.Negate
	case ">":
		return (value > tgt) == !filter.Negate
	case "<":
		return (value < tgt) == !filter.Negate
	default:
		return checkStringOperand(strconv.FormatInt(value, 10), filter)
	}
}

func checkGlob(value string, filter Filter) bool {
	matched, _ := path.Match(filter.Value, value)
	return matched == !filter.Negate
}

// checkStringOperand evaluates a string comparison style filter against the
// provided value using the operand semantics.
func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return value == filter.Value == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Value) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Value) == !filter.Negate
	case ">":
		return value > filter.Value == !filter.Negate
	case "<":
		return value < filter.Value == !filter.Negate
	case "@":
		return strings.Contains(value, filter.Value) == !filter.Negate
	case "%":
		return checkGlob(value, filter)
	case "/":
		re := filter.re
		if re == nil {
			var err error
			if re, err = regexp.Compile(filter.Value); err != nil {
				log.Errorf("invalid regex: %s", filter.Value)
				return false
			}
		}
		return re.MatchString(value) == !filter.Negate
	default:
		log.Errorf("unsupported filtering operand: %s", filter.Operand)
		return false
	}
}
