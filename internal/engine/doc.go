// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package engine drives a recursive comparison. It identifies each pair,
// dispatches it to a comparator, renders the comparator's leaves as unified
// diffs and recurses into the member pairs the comparator yields.
//
// Work on sibling pairs runs concurrently. A weighted semaphore bounds the
// number of comparators running at once, and each comparator step runs under
// its own timeout. An element budget shared by the whole run bounds how many
// pairs are visited. Failures inside a pair never fail the run; they become
// comments on that pair. Only cancellation of the caller's context aborts
// Run.
package engine
