// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package output renders a difference tree for people and programs. Text is
// an indented tree with one section per differing member. The json and yaml
// forms serialize the tree as is, and SummaryTable lists the changed paths.
package output
