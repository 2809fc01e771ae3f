// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package tool runs the optional external inspection utilities comparators
// use for normalization (readelf, objdump, pdftotext and friends). A Set is
// resolved once at startup and never changes, so every comparator sees the
// same answer to "is tool T available". Missing tools and failed runs come
// back as typed errors that callers turn into report comments.
package tool
