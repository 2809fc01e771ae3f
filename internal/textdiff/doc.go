// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package textdiff computes minimal line edit scripts and renders them as
// unified diffs. The LCS core is sergi/go-diff run without a deadline, so the
// result for a given pair of inputs is always the same minimal script.
//
// Inputs that are too large or are not valid UTF-8 are summarized as
// "N bytes differ" instead of being diffed line by line.
package textdiff
