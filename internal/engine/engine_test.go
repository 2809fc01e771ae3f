// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package engine

import (
	"archive/tar"
	"bytes"
	"context"
	"debug/elf"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfctl/deepcmp/internal/comparators"
	"github.com/tfctl/deepcmp/internal/filters"
	"github.com/tfctl/deepcmp/internal/identify"
	"github.com/tfctl/deepcmp/internal/sandbox"
	"github.com/tfctl/deepcmp/internal/tool"
	"github.com/tfctl/deepcmp/internal/unit"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		TempDir: t.TempDir(),
		Tools:   tool.Lookup(nil, nil),
		Jobs:    4,
	}
}

func tarBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := tar.NewWriter(&buf)
	for _, n := range sortedKeys(files) {
		body := files[n]
		require.NoError(t, w.WriteHeader(&tar.Header{Name: n, Mode: 0o644, Size: int64(len(body)), ModTime: time.Unix(0, 0)}))
		_, err := w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func writeTree(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		writeFile(t, dir, name, data)
	}
	return dir
}

func elfBytes() []byte {
	b := make([]byte, 64)
	copy(b, []byte{0x7f, 'E', 'L', 'F', byte(elf.ELFCLASS64), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT)})
	b[16] = byte(elf.ET_EXEC)
	b[18] = byte(elf.EM_X86_64)
	b[20] = byte(elf.EV_CURRENT)
	return b
}

func TestCompare_IdenticalIsEmpty(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{
		"a.txt":     []byte("hello\n"),
		"x.tar":     tarBytes(t, map[string]string{"m.txt": "member\n"}),
		"sub/c.bin": {0, 1, 2},
	}
	l, r := writeTree(t, files), writeTree(t, files)

	d, err := Compare(context.Background(), l, r, testOptions(t))
	require.NoError(t, err)
	assert.True(t, d.Empty())
	assert.Equal(t, 1, d.Count())
}

func TestCompare_TarMembers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := writeFile(t, dir, "left.tar", tarBytes(t, map[string]string{"a.txt": "hello\n"}))
	r := writeFile(t, dir, "right.tar", tarBytes(t, map[string]string{"a.txt": "hello world\n", "b.bin": "\x00\x01"}))

	d, err := Compare(context.Background(), l, r, testOptions(t))
	require.NoError(t, err)
	require.False(t, d.Empty())
	assert.Equal(t, l, d.LeftName)
	assert.Equal(t, r, d.RightName)
	assert.Empty(t, d.Body)
	require.Len(t, d.Children, 3)

	list := d.Find("file list")
	require.NotNil(t, list)
	assert.Contains(t, list.Body, "--rw-r--r--          6 a.txt")
	assert.Contains(t, list.Body, "+-rw-r--r--          2 b.bin")

	a := d.Find("a.txt")
	require.NotNil(t, a)
	assert.Equal(t, "@@ -1 +1 @@\n-hello\n+hello world\n", a.Body)
	assert.Empty(t, a.Comments)

	b := d.Find("b.bin")
	require.NotNil(t, b)
	assert.Equal(t, "added", b.Change.String())
	assert.Empty(t, b.Body)
	assert.Equal(t, []string{"added"}, b.Comments)
	assert.Empty(t, b.LeftName)
}

func TestCompare_TypeMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := writeFile(t, dir, "prog", elfBytes())
	r := writeFile(t, dir, "prog.txt", []byte("just text\n"))

	d, err := Compare(context.Background(), l, r, testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, "@@ -1 +1 @@\n-type: elf\n+type: text\n", d.Body)
	assert.Empty(t, d.Children)
}

func TestCompare_UnreadableRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ok := writeFile(t, dir, "a", []byte("x"))

	_, err := Compare(context.Background(), ok, filepath.Join(dir, "missing"), testOptions(t))
	assert.ErrorIs(t, err, unit.ErrUnreadable)
}

func TestRun_SizeCeilingIsLocal(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("x", 4096)
	l := writeTree(t, map[string][]byte{
		"big.tar":   tarBytes(t, map[string]string{"payload": big}),
		"small.tar": tarBytes(t, map[string]string{"a.txt": "one\n"}),
	})
	r := writeTree(t, map[string][]byte{
		"big.tar":   tarBytes(t, map[string]string{"payload": big + "y"}),
		"small.tar": tarBytes(t, map[string]string{"a.txt": "two\n"}),
	})

	opts := testOptions(t)
	opts.Limits = sandbox.Limits{MaxBytes: 1024, MaxFiles: 10}
	d, err := Compare(context.Background(), l, r, opts)
	require.NoError(t, err)

	bigDiff := d.Find("big.tar")
	require.NotNil(t, bigDiff)
	require.NotEmpty(t, bigDiff.Comments)
	assert.True(t, strings.HasPrefix(bigDiff.Comments[0], "Resource limit exceeded: "))
	assert.NotEmpty(t, bigDiff.Body)
	assert.Empty(t, bigDiff.Children)

	small := d.Find("small.tar", "a.txt")
	require.NotNil(t, small)
	assert.Equal(t, "@@ -1 +1 @@\n-one\n+two\n", small.Body)
}

// slow blocks until its step is cancelled for pairs named slow.txt.
type slow struct{}

func (slow) Name() string { return "slow" }

func (slow) Compare(ctx context.Context, left, right *unit.Unit, env *comparators.Env) (*comparators.Result, error) {
	if filepath.Base(left.Name) == "slow.txt" {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return comparators.Text{}.Compare(ctx, left, right, env)
}

type boom struct{}

func (boom) Name() string { return "boom" }

func (boom) Compare(context.Context, *unit.Unit, *unit.Unit, *comparators.Env) (*comparators.Result, error) {
	panic("kaboom")
}

func TestRun_TimeoutIsLocal(t *testing.T) {
	t.Parallel()

	l := writeTree(t, map[string][]byte{"slow.txt": []byte("a\n"), "fast.txt": []byte("a\n")})
	r := writeTree(t, map[string][]byte{"slow.txt": []byte("b\n"), "fast.txt": []byte("b\n")})

	opts := testOptions(t)
	opts.Timeout = 50 * time.Millisecond
	opts.Registry = comparators.NewRegistry(comparators.Raw{}).
		Register(identify.Directory, comparators.Directory{}).
		Register(identify.Text, slow{})

	d, err := Compare(context.Background(), l, r, opts)
	require.NoError(t, err)

	s := d.Find("slow.txt")
	require.NotNil(t, s)
	assert.Equal(t, []string{"Comparison timed out after 50ms"}, s.Comments)
	assert.Empty(t, s.Body)

	f := d.Find("fast.txt")
	require.NotNil(t, f)
	assert.Equal(t, "@@ -1 +1 @@\n-a\n+b\n", f.Body)
}

func TestRun_TimeoutBoundsLineDiff(t *testing.T) {
	t.Parallel()

	var left, right strings.Builder
	for i := 0; i < 20000; i++ {
		fmt.Fprintf(&left, "left line %d\n", i)
		fmt.Fprintf(&right, "right line %d\n", i*7919)
	}
	dir := t.TempDir()
	l := writeFile(t, dir, "a.txt", []byte(left.String()))
	r := writeFile(t, dir, "b.txt", []byte(right.String()))

	opts := testOptions(t)
	opts.Timeout = 100 * time.Millisecond

	start := time.Now()
	d, err := Compare(context.Background(), l, r, opts)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, []string{"Comparison timed out after 100ms"}, d.Comments)
	assert.Empty(t, d.Body)
}

func TestRun_PanicBecomesComment(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := writeFile(t, dir, "a.txt", []byte("a\n"))
	r := writeFile(t, dir, "b.txt", []byte("b\n"))

	opts := testOptions(t)
	opts.Registry = comparators.NewRegistry(comparators.Raw{}).Register(identify.Text, boom{})

	d, err := Compare(context.Background(), l, r, opts)
	require.NoError(t, err)
	require.Len(t, d.Comments, 1)
	assert.Contains(t, d.Comments[0], "comparator panicked: boom: kaboom")
	assert.Contains(t, d.Body, "00000000: 610a")
}

func TestRun_MissingToolFallsBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := writeFile(t, dir, "a.pdf", []byte("%PDF-1.4\nleft\n"))
	r := writeFile(t, dir, "b.pdf", []byte("%PDF-1.4\nright\n"))

	d, err := Compare(context.Background(), l, r, testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"'pdftotext' not available in path. Falling back to binary comparison."}, d.Comments)
	assert.NotEmpty(t, d.Body)
}

func TestRun_FailingToolOutputIsIndented(t *testing.T) {
	bin := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "pdftotext"), []byte("#!/bin/sh\necho 'Syntax Error' >&2\necho 'bad xref' >&2\nexit 1\n"), 0o755))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	dir := t.TempDir()
	l := writeFile(t, dir, "a.pdf", []byte("%PDF-1.4\nleft\n"))
	r := writeFile(t, dir, "b.pdf", []byte("%PDF-1.4\nright\n"))

	opts := testOptions(t)
	opts.Tools = tool.Lookup([]string{"pdftotext"}, nil)
	d, err := Compare(context.Background(), l, r, opts)
	require.NoError(t, err)
	require.Len(t, d.Comments, 1)
	assert.True(t, strings.HasPrefix(d.Comments[0], "Command `pdftotext -layout "))
	assert.True(t, strings.HasSuffix(d.Comments[0], "exited with 1. Output:\n    Syntax Error\n    bad xref"))
}

func TestRun_NormalizedEqualButBytesDiffer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := writeFile(t, dir, "a.json", []byte(`{"a":1,"b":2}`))
	r := writeFile(t, dir, "b.json", []byte(`{"b":2,"a":1}`))

	d, err := Compare(context.Background(), l, r, testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, []string{dataDiffers}, d.Comments)
	assert.Contains(t, d.Body, "00000000: ")
}

func TestRun_Metadata(t *testing.T) {
	t.Parallel()

	l := writeTree(t, map[string][]byte{"run.sh": []byte("echo\n")})
	r := writeTree(t, map[string][]byte{"run.sh": []byte("echo\n")})
	require.NoError(t, os.Chmod(filepath.Join(r, "run.sh"), 0o755))

	d, err := Compare(context.Background(), l, r, testOptions(t))
	require.NoError(t, err)
	md := d.Find("run.sh", metadataName)
	require.NotNil(t, md)
	assert.Equal(t, "@@ -1 +1 @@\n--rw-r--r--\n+-rwxr-xr-x\n", md.Body)
	assert.Empty(t, d.Find("run.sh").Body)
}

func TestRun_MaxDepth(t *testing.T) {
	t.Parallel()

	l := writeTree(t, map[string][]byte{"x.tar": tarBytes(t, map[string]string{"a.txt": "a\n"})})
	r := writeTree(t, map[string][]byte{"x.tar": tarBytes(t, map[string]string{"a.txt": "b\n"})})

	opts := testOptions(t)
	opts.MaxDepth = 1
	d, err := Compare(context.Background(), l, r, opts)
	require.NoError(t, err)

	a := d.Find("x.tar", "a.txt")
	require.NotNil(t, a)
	assert.Equal(t, []string{"Maximum depth of 1 reached; contents not unpacked"}, a.Comments)
	assert.Contains(t, a.Body, "-00000000: 610a")
}

func TestRun_ElementBudget(t *testing.T) {
	t.Parallel()

	lf, rf := map[string][]byte{}, map[string][]byte{}
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		lf[n] = []byte("left " + n + "\n")
		rf[n] = []byte("right " + n + "\n")
	}
	l, r := writeTree(t, lf), writeTree(t, rf)

	opts := testOptions(t)
	opts.MaxElements = 3
	d, err := Compare(context.Background(), l, r, opts)
	require.NoError(t, err)
	assert.Len(t, d.Children, 2)
	assert.Equal(t, []string{"Element budget of 3 exhausted; 3 entries not compared"}, d.Comments)
}

func TestRun_Exclude(t *testing.T) {
	t.Parallel()

	l := writeTree(t, map[string][]byte{
		"keep.txt":        []byte("a\n"),
		"cache/x.pyc":     []byte("left\n"),
		"vendor/lib.go":   []byte("package lib\n"),
		"vendor/other.go": []byte("package other\n"),
	})
	r := writeTree(t, map[string][]byte{
		"keep.txt":      []byte("b\n"),
		"cache/x.pyc":   []byte("right\n"),
		"vendor/lib.go": []byte("package lib2\n"),
	})

	set, err := filters.BuildSet([]string{"*.pyc", "path^vendor/"})
	require.NoError(t, err)

	opts := testOptions(t)
	opts.Exclude = set
	opts.MaxElements = 2
	d, err := Compare(context.Background(), l, r, opts)
	require.NoError(t, err)
	require.Len(t, d.Children, 1)
	assert.Equal(t, "keep.txt", d.Children[0].Name)
	assert.Empty(t, d.Comments)
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()

	lf, rf := map[string][]byte{}, map[string][]byte{}
	for i := range 20 {
		n := string(rune('a'+i)) + ".txt"
		lf[n] = []byte(strings.Repeat("line\n", i+1))
		rf[n] = []byte(strings.Repeat("line\n", i+2))
	}
	lf["t.tar"] = tarBytes(t, map[string]string{"x": "1\n", "y": "2\n"})
	rf["t.tar"] = tarBytes(t, map[string]string{"x": "1\n", "y": "3\n", "z": "4\n"})
	l, r := writeTree(t, lf), writeTree(t, rf)

	serial := testOptions(t)
	serial.Jobs = 1
	parallel := testOptions(t)
	parallel.Jobs = 16

	a, err := Compare(context.Background(), l, r, serial)
	require.NoError(t, err)
	b, err := Compare(context.Background(), l, r, parallel)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var names []string
	for _, c := range a.Children {
		names = append(names, c.Name)
	}
	assert.IsIncreasing(t, names)
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	l := writeTree(t, map[string][]byte{"a": []byte("1")})
	r := writeTree(t, map[string][]byte{"a": []byte("2")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d, err := Compare(ctx, l, r, testOptions(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, d)
}

func TestRun_RemovesTemporaryFiles(t *testing.T) {
	t.Parallel()

	l := writeTree(t, map[string][]byte{"x.tar": tarBytes(t, map[string]string{"a": "1"})})
	r := writeTree(t, map[string][]byte{"x.tar": tarBytes(t, map[string]string{"a": "2"})})

	opts := testOptions(t)
	_, err := Compare(context.Background(), l, r, opts)
	require.NoError(t, err)

	entries, err := os.ReadDir(opts.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFailureComment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unavailable", &tool.UnavailableError{Name: "readelf"}, "'readelf' not available in path. Falling back to binary comparison."},
		{"exit", &tool.ExitError{Command: []string{"x", "-y"}, Code: 2, Output: []byte("a\nb\n")}, "Command `x -y` exited with 2. Output:\n    a\n    b"},
		{"limit", &sandbox.LimitError{Resource: "files", Limit: 3}, "Resource limit exceeded: "},
		{"extraction", &comparators.ExtractionError{Name: "x.zip", Err: os.ErrInvalid}, "Extraction failed: x.zip: invalid argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, strings.HasPrefix(failureComment(tt.err), tt.want), failureComment(tt.err))
		})
	}
}
