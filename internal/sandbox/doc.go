// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package sandbox provides the scoped extraction workspace used by container
// comparators. Every comparator invocation owns one sandbox; siblings never
// share a directory. Writes are accounted against a byte ceiling and a file
// count ceiling, and exceeding either returns a *LimitError. Close removes the
// workspace and everything below it.
package sandbox
