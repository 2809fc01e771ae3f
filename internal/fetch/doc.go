// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package fetch turns command line inputs into local paths. Plain paths pass
// through. s3://bucket/key downloads one object; s3://bucket/prefix/
// downloads every object below the prefix into a directory tree. Downloads
// are cached by ETag through cacheutil, so comparing the same remote build
// twice reads it from disk the second time.
package fetch
