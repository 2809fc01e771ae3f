// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package comparators holds the format-specific comparison strategies and the
// registry that dispatches to them.
//
// A Comparator receives two units carrying the same format tag and returns a
// Result: an optional leaf (the two normalized texts to diff), named details
// (further leaves such as tool output or metadata), child pairs to recurse
// into, and comments. Comparators never recurse themselves and never render
// diffs; both are the engine's job.
//
// Containers unpack into the sandbox handed to them through Env and pair
// members by relative path. Structured binaries are rendered to text, using
// external tools when they are available. The raw comparator is the fallback
// for everything else and is always registered.
//
// Failures are returned as errors. ErrExtraction marks corrupt or unsupported
// input, sandbox.ErrLimitExceeded marks a resource ceiling, and the tool
// package's errors mark missing or failing utilities. The engine turns each
// of them into a comment and falls back to a raw comparison.
package comparators
