// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withConfig points DEEPCMP_CFG_FILE at a testdata file, loads it and runs fn.
func withConfig(t *testing.T, testFile, namespace string, fn func(t *testing.T)) {
	t.Helper()
	absPath, err := filepath.Abs(filepath.Join("testdata", testFile))
	require.NoError(t, err)
	t.Setenv(EnvFile, absPath)

	Config = Type{}
	t.Cleanup(func() { Config = Type{} })
	_, _ = Load()
	Config.Namespace = namespace
	fn(t)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		wantErr   string
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "nested structure",
			testFile: "compare.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				cmp, ok := cfg.Data["compare"].(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, 12, cmp["max_depth"])
			},
		},
		{
			name:     "empty file",
			testFile: "empty.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Empty(t, cfg.Data)
			},
		},
		{
			name:     "invalid yaml",
			testFile: "broken.yaml",
			wantErr:  "broken.yaml",
		},
		{
			name:     "missing file",
			testFile: "nope.yaml",
			wantErr:  "config file not found",
		},
		{
			name:     "directory",
			testFile: ".",
			wantErr:  "points to a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			absPath, err := filepath.Abs(filepath.Join("testdata", tt.testFile))
			require.NoError(t, err)
			t.Setenv(EnvFile, absPath)
			Config = Type{}
			defer func() { Config = Type{} }()

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.checkFunc(t, cfg)
		})
	}
}

func TestFile_UserConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvFile, "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	_, err := File()
	assert.Error(t, err)
}

func TestNamespace(t *testing.T) {
	withConfig(t, "compare.yaml", "compare", func(t *testing.T) {
		got, err := GetInt("jobs")
		require.NoError(t, err)
		assert.Equal(t, 3, got, "namespaced key wins")

		got, err = GetInt("max_depth")
		require.NoError(t, err)
		assert.Equal(t, 12, got)

		s, err := GetStringSlice("tools.disabled")
		require.NoError(t, err)
		assert.Equal(t, []string{"objdump", "pdfinfo"}, s, "bare key is the fallback")
	})

	withConfig(t, "compare.yaml", "", func(t *testing.T) {
		got, err := GetInt("jobs")
		require.NoError(t, err)
		assert.Equal(t, 99, got)
	})
}

func TestGetters(t *testing.T) {
	withConfig(t, "mixed-types.yaml", "", func(t *testing.T) {
		t.Run("string", func(t *testing.T) {
			s, err := GetString("name")
			require.NoError(t, err)
			assert.Equal(t, "deepcmp", s)

			_, err = GetString("version")
			assert.Error(t, err)

			s, err = GetString("missing", "fallback")
			require.NoError(t, err)
			assert.Equal(t, "fallback", s)

			_, err = GetString("missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})

		t.Run("int", func(t *testing.T) {
			n, err := GetInt("version")
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			n, err = GetInt("ratio")
			require.NoError(t, err)
			assert.Equal(t, 0, n)

			_, err = GetInt("name")
			assert.Error(t, err)

			n, err = GetInt("missing", 7)
			require.NoError(t, err)
			assert.Equal(t, 7, n)
		})

		t.Run("bool", func(t *testing.T) {
			b, err := GetBool("enabled")
			require.NoError(t, err)
			assert.True(t, b)

			_, err = GetBool("name")
			assert.Error(t, err)

			b, err = GetBool("missing", true)
			require.NoError(t, err)
			assert.True(t, b)
		})

		t.Run("duration", func(t *testing.T) {
			d, err := GetDuration("seconds")
			require.NoError(t, err)
			assert.Equal(t, 45*time.Second, d)

			_, err = GetDuration("name")
			assert.Error(t, err)

			d, err = GetDuration("missing", time.Minute)
			require.NoError(t, err)
			assert.Equal(t, time.Minute, d)
		})

		t.Run("bytes", func(t *testing.T) {
			n, err := GetBytes("size")
			require.NoError(t, err)
			assert.Equal(t, int64(1<<20), n)

			_, err = GetBytes("name")
			assert.Error(t, err)
		})

		t.Run("string slice", func(t *testing.T) {
			s, err := GetStringSlice("tags")
			require.NoError(t, err)
			assert.Equal(t, []string{"one", "two"}, s)

			_, err = GetStringSlice("mixed")
			assert.Error(t, err)

			_, err = GetStringSlice("name")
			assert.Error(t, err)

			s, err = GetStringSlice("missing", []string{"x"})
			require.NoError(t, err)
			assert.Equal(t, []string{"x"}, s)
		})
	})
}

func TestGetters_ParseStrings(t *testing.T) {
	withConfig(t, "compare.yaml", "compare", func(t *testing.T) {
		d, err := GetDuration("timeout")
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, d)

		n, err := GetBytes("max_extracted_size")
		require.NoError(t, err)
		assert.Equal(t, int64(2<<30), n)

		b, err := GetBool("color")
		require.NoError(t, err)
		assert.False(t, b)

		s, err := GetString("output.colors.added")
		require.NoError(t, err)
		assert.Equal(t, "#00ff00", s)
	})
}

func TestLazyLoad(t *testing.T) {
	absPath, err := filepath.Abs(filepath.Join("testdata", "compare.yaml"))
	require.NoError(t, err)
	t.Setenv(EnvFile, absPath)
	Config = Type{Namespace: "compare"}
	defer func() { Config = Type{} }()

	got, err := GetInt("jobs")
	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, "compare", Config.Namespace)
}
