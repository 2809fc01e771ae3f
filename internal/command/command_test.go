// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/deepcmp/internal/fetch"
)

// isolate points config and cache lookups at an empty temporary tree.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DEEPCMP_CFG_FILE", "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("HOME", dir)
	t.Setenv("DEEPCMP_CACHE_DIR", filepath.Join(dir, "cache"))
	return dir
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	args = append([]string{"deepcmp"}, args...)
	app, err := InitApp(context.Background(), args)
	require.NoError(t, err)

	var buf bytes.Buffer
	app.Writer = &buf
	app.ErrWriter = &bytes.Buffer{}
	err = app.Run(context.Background(), args)
	return buf.String(), err
}

func TestCompare(t *testing.T) {
	dir := isolate(t)
	a := write(t, dir, "a.txt", "hello\n")
	b := write(t, dir, "b.txt", "hello world\n")
	same := write(t, dir, "same.txt", "hello\n")

	tests := []struct {
		name    string
		args    []string
		wantErr error
		want    []string
	}{
		{
			name: "identical",
			args: []string{"compare", a, same},
		},
		{
			name:    "different",
			args:    []string{"compare", a, b},
			wantErr: ErrDifferencesFound,
			want:    []string{"--- " + a, "+++ " + b, "│ -hello", "│ +hello world"},
		},
		{
			name:    "summary",
			args:    []string{"compare", "--summary", a, b},
			wantErr: ErrDifferencesFound,
			want:    []string{"PATH", "modified"},
		},
		{
			name:    "one argument",
			args:    []string{"compare", a},
			wantErr: ErrUsage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Empty(t, out)
			}
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestCompareUnreadableRoot(t *testing.T) {
	dir := isolate(t)
	a := write(t, dir, "a.txt", "x")

	_, err := run(t, "compare", a, filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDifferencesFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestCompareJSONOutput(t *testing.T) {
	dir := isolate(t)
	a := write(t, dir, "a.txt", "one\n")
	b := write(t, dir, "b.txt", "two\n")

	out, err := run(t, "compare", "-o", "json", a, b)
	assert.ErrorIs(t, err, ErrDifferencesFound)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, a, got["left"])
	assert.Contains(t, got["body"], "+two")
}

func TestCompareBadOutputFlag(t *testing.T) {
	dir := isolate(t)
	a := write(t, dir, "a.txt", "x")

	_, err := run(t, "compare", "-o", "xml", a, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")
}

func TestCompareOutputFromEnv(t *testing.T) {
	dir := isolate(t)
	a := write(t, dir, "a.txt", "one\n")
	b := write(t, dir, "b.txt", "two\n")
	t.Setenv("DEEPCMP_OUTPUT", "yaml")

	out, err := run(t, "compare", a, b)
	assert.ErrorIs(t, err, ErrDifferencesFound)
	assert.Contains(t, out, "change: modified")
}

func TestCompareOutputFromConfig(t *testing.T) {
	dir := isolate(t)
	a := write(t, dir, "a.txt", "one\n")
	b := write(t, dir, "b.txt", "two\n")
	cfg := write(t, dir, "deepcmp.yaml", "compare:\n  output: json\n  max_depth: 4\n")
	t.Setenv("DEEPCMP_CFG_FILE", cfg)

	out, err := run(t, "compare", a, b)
	assert.ErrorIs(t, err, ErrDifferencesFound)
	assert.True(t, json.Valid([]byte(out)), out)

	// An explicit flag wins over the config file.
	out, err = run(t, "compare", "-o", "text", a, b)
	assert.ErrorIs(t, err, ErrDifferencesFound)
	assert.Contains(t, out, "--- "+a)
}

func TestCompareExclude(t *testing.T) {
	dir := isolate(t)
	l, r := filepath.Join(dir, "l"), filepath.Join(dir, "r")
	require.NoError(t, os.MkdirAll(l, 0o755))
	require.NoError(t, os.MkdirAll(r, 0o755))
	write(t, l, "same.txt", "x\n")
	write(t, r, "same.txt", "x\n")
	write(t, l, "mod.pyc", "one")
	write(t, r, "mod.pyc", "two")

	_, err := run(t, "compare", l, r)
	assert.ErrorIs(t, err, ErrDifferencesFound)

	out, err := run(t, "compare", "--exclude", "*.pyc", l, r)
	assert.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, "compare", "--exclude", "name/([", l, r)
	assert.Error(t, err)
}

func TestNewS3ClientRetries(t *testing.T) {
	isolate(t)
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "none"))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"flag", []string{"--s3-retries", "6"}, 6},
		{"env", nil, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.args == nil {
				t.Setenv("DEEPCMP_S3_RETRIES", "9")
			}
			var got int
			cmd := &cli.Command{
				Name:  "s3client",
				Flags: NewCompareFlags("compare", ""),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					client, err := newS3Client(ctx, cmd)
					if err != nil {
						return err
					}
					got = client.(*s3v2.Client).Options().Retryer.MaxAttempts()
					return nil
				},
			}
			args := append([]string{"s3client", "--region", "us-east-1"}, tt.args...)
			require.NoError(t, cmd.Run(context.Background(), args))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareRemoteClientError(t *testing.T) {
	dir := isolate(t)
	a := write(t, dir, "a.txt", "x")

	saved := newS3Client
	t.Cleanup(func() { newS3Client = saved })
	newS3Client = func(context.Context, *cli.Command) (fetch.S3API, error) {
		return nil, errors.New("no credentials")
	}

	_, err := run(t, "compare", a, "s3://bucket/key.tar")
	assert.ErrorContains(t, err, "no credentials")
}

func TestTools(t *testing.T) {
	isolate(t)
	t.Setenv("PATH", t.TempDir())

	out, err := run(t, "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "readelf")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "comparators:")

	_, err = run(t, "tools", "--disable-tool", "bogus")
	assert.ErrorContains(t, err, `unknown tool "bogus"`)
}

func TestCache(t *testing.T) {
	dir := isolate(t)

	out, err := run(t, "cache")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache")+"\n", out)

	t.Setenv("DEEPCMP_CACHE", "0")
	out, err = run(t, "cache")
	require.NoError(t, err)
	assert.Equal(t, "cache disabled\n", out)
}

func TestCompletion(t *testing.T) {
	isolate(t)

	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "complete -o filenames -F _deepcmp deepcmp"},
		{"zsh", "#compdef deepcmp"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			out, err := run(t, "completion", tt.shell)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestValidators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   any
		v       FlagValidatorType
		wantErr bool
	}{
		{"output ok", "yaml", OutputValidator, false},
		{"output bad", "raw", OutputValidator, true},
		{"size human", "4GiB", SizeValidator, false},
		{"size plain", "1048576", SizeValidator, false},
		{"size bad", "lots", SizeValidator, true},
		{"positive", 3, PositiveValidator, false},
		{"negative", -1, PositiveValidator, true},
		{"tool ok", []string{"readelf", "objdump"}, ToolValidator, false},
		{"tool bad", []string{"strings"}, ToolValidator, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := FlagValidators(tt.value, tt.v)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValueChain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DEEPCMP_MAX_EXTRACTED_SIZE", envName("max-extracted-size"))
	assert.Len(t, ValueChain("", "", "jobs").Chain, 1)
	assert.Len(t, ValueChain("compare", "/x.yaml", "jobs").Chain, 3)
	assert.Len(t, ValueChain("", "/x.yaml", "jobs").Chain, 2)
}
