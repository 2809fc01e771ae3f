// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

//go:build unix

package engine

import (
	"context"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Not parallel: the descriptor limit is process wide.
func TestRun_WideDirectoryRespectsJobs(t *testing.T) {
	const members = 600

	lf := make(map[string][]byte, members)
	rf := make(map[string][]byte, members)
	for i := 0; i < members; i++ {
		name := fmt.Sprintf("f%04d.txt", i)
		lf[name] = []byte(fmt.Sprintf("left %04d\n", i))
		rf[name] = []byte(fmt.Sprintf("rght %04d\n", i))
	}
	l, r := writeTree(t, lf), writeTree(t, rf)

	var orig syscall.Rlimit
	require.NoError(t, syscall.Getrlimit(syscall.RLIMIT_NOFILE, &orig))
	low := orig
	low.Cur = min(orig.Cur, 128)
	require.NoError(t, syscall.Setrlimit(syscall.RLIMIT_NOFILE, &low))
	t.Cleanup(func() {
		_ = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &orig)
	})

	opts := testOptions(t)
	opts.Jobs = 2
	opts.MaxElements = members * 2

	d, err := Compare(context.Background(), l, r, opts)
	require.NoError(t, err)

	require.Len(t, d.Children, members)
	for _, c := range d.Children {
		assert.Empty(t, c.Comments, c.Name)
		assert.Contains(t, c.Body, "+rght", c.Name)
	}
}
