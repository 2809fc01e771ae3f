// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/tfctl/deepcmp/internal/filters"
	"github.com/tfctl/deepcmp/internal/output"
	"github.com/tfctl/deepcmp/internal/tool"
)

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

func OutputValidator(value any) error {
	if s, ok := value.(string); !ok || !output.ValidFormat(s) {
		return fmt.Errorf("must be one of %v", output.Formats)
	}
	return nil
}

// SizeValidator accepts byte counts such as "4GiB", "500 MB" or "1048576".
func SizeValidator(value any) error {
	s, _ := value.(string)
	if _, err := humanize.ParseBytes(s); err != nil {
		return fmt.Errorf("invalid size %q: %w", s, err)
	}
	return nil
}

func PositiveValidator(value any) error {
	if n, ok := value.(int); ok && n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// ToolValidator rejects names that are not external tools deepcmp drives.
func ToolValidator(value any) error {
	names, _ := value.([]string)
	for _, n := range names {
		if !slices.Contains(tool.Known, n) {
			return fmt.Errorf("unknown tool %q, want one of %v", n, tool.Known)
		}
	}
	return nil
}

func ExcludeValidator(value any) error {
	specs, _ := value.([]string)
	_, err := filters.BuildSet(specs)
	return err
}
