// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package browse is an interactive terminal browser for a difference tree.
// The list view shows every node with its change, enter opens a scrollable
// view of the node's comments and body, esc goes back and q quits.
package browse
