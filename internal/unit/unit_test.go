// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package unit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello\n"), 0o644))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink("a.txt", link))

	tests := []struct {
		name   string
		path   string
		kind   Kind
		size   int64
		target string
	}{
		{"regular file", file, File, 6, ""},
		{"directory", dir, Directory, 0, ""},
		{"symlink not followed", link, Symlink, 0, "a.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := FromPath(tt.path)

			require.NoError(t, err)
			assert.Equal(t, tt.path, u.Name)
			assert.Equal(t, tt.kind, u.Kind)
			assert.Equal(t, tt.size, u.Size)
			assert.Equal(t, tt.target, u.LinkTarget)
		})
	}
}

func TestFromPath_Missing(t *testing.T) {
	_, err := FromPath(filepath.Join(t.TempDir(), "nope"))

	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestMatch(t *testing.T) {
	left := map[string]*Unit{
		"b.txt": {Name: "l/b.txt"},
		"a.txt": {Name: "l/a.txt"},
		"gone":  {Name: "l/gone"},
	}
	right := map[string]*Unit{
		"a.txt": {Name: "r/a.txt"},
		"b.txt": {Name: "r/b.txt"},
		"c.bin": {Name: "r/c.bin"},
	}

	pairs := Match(left, right)

	require.Len(t, pairs, 4)
	names := []string{pairs[0].Name, pairs[1].Name, pairs[2].Name, pairs[3].Name}
	assert.Equal(t, []string{"a.txt", "b.txt", "c.bin", "gone"}, names)
	assert.True(t, pairs[2].Added())
	assert.True(t, pairs[3].Removed())
	assert.False(t, pairs[0].Added() || pairs[0].Removed())
}

func TestMember(t *testing.T) {
	assert.Equal(t, "out/a.tar/dir/x", Member("out/a.tar", "dir/x"))
	assert.Equal(t, "a.tar/x", Member("a.tar", "./x"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "", DisplayName(nil))
	assert.Equal(t, "x", DisplayName(&Unit{Name: "x"}))
}
