// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package difference defines the report tree produced by a comparison. A node
// carries an optional unified diff body, free-text comments and ordered
// children. A node with none of those means "no difference" and is pruned.
package difference
