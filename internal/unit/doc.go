// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package unit models the two sides of a comparison. A Unit is a named,
// typed content source: a caller supplied path, or a member a container
// comparator unpacked into its sandbox. A Pair binds the left and right
// units found at the same logical position; either side may be absent.
package unit
