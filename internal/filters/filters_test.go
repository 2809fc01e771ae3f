// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package filters

import (
	"embed"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tfctl/deepcmp/internal/unit"
)

//go:embed testdata/*.yaml
var testDataFS embed.FS

// testBuildSpecCase represents a single test case for TestBuildSpec.
type testBuildSpecCase struct {
	Name string   `yaml:"name"`
	Spec string   `yaml:"spec"`
	Want []Filter `yaml:"want"`
}

// testMatchCase represents a single test case for TestMatch.
type testMatchCase struct {
	Name string `yaml:"name"`
	Spec string `yaml:"spec"`
	Path string `yaml:"path"`
	Size int64  `yaml:"size"`
	Meta string `yaml:"meta"`
	Want bool   `yaml:"want"`
}

func loadCases[T any](t *testing.T, file string) []T {
	t.Helper()
	data, err := testDataFS.ReadFile("testdata/" + file)
	require.NoError(t, err)
	var cases []T
	require.NoError(t, yaml.Unmarshal(data, &cases))
	require.NotEmpty(t, cases)
	return cases
}

func TestBuildSpec(t *testing.T) {
	t.Parallel()

	for _, tc := range loadCases[testBuildSpecCase](t, "build_spec.yaml") {
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildSpec(tc.Spec)
			require.NoError(t, err)
			require.Len(t, got, len(tc.Want))
			for i, f := range got {
				f.re = nil
				assert.Equal(t, tc.Want[i], f)
			}
		})
	}
}

func TestBuildSpecErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec string
	}{
		{"empty", "  "},
		{"bad regex", "name/([a-"},
		{"bad glob", "[a-"},
		{"bad size", "size>big"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := BuildSpec(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	for _, tc := range loadCases[testMatchCase](t, "match.yaml") {
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()
			spec, err := BuildSpec(tc.Spec)
			require.NoError(t, err)
			pair := unit.Pair{Name: tc.Path, Left: &unit.Unit{Name: tc.Path, Size: tc.Size, Meta: tc.Meta}}
			assert.Equal(t, tc.Want, spec.Match(pair))
		})
	}
}

func TestMatchAddedSide(t *testing.T) {
	t.Parallel()

	spec, err := BuildSpec("size>5")
	require.NoError(t, err)
	assert.True(t, spec.Match(unit.Pair{Name: "new", Right: &unit.Unit{Size: 9}}))
	assert.False(t, Spec(nil).Match(unit.Pair{Name: "new"}))
}

func TestSetExcludes(t *testing.T) {
	t.Parallel()

	set, err := BuildSet([]string{"*.pyc", "path^vendor/"})
	require.NoError(t, err)

	assert.True(t, set.Excludes(unit.Pair{Name: "a/b.pyc", Left: &unit.Unit{}}))
	assert.True(t, set.Excludes(unit.Pair{Name: "vendor/x", Left: &unit.Unit{}}))
	assert.False(t, set.Excludes(unit.Pair{Name: "main.go", Left: &unit.Unit{}}))
	assert.False(t, Set(nil).Excludes(unit.Pair{Name: "main.go"}))

	_, err = BuildSet([]string{"ok", ""})
	assert.Error(t, err)
}

func TestDelimiterOverride(t *testing.T) {
	t.Setenv("DEEPCMP_FILTER_DELIM", ";")

	spec, err := BuildSpec("name%{a,b};size>1")
	require.NoError(t, err)
	require.Len(t, spec, 2)
	assert.Equal(t, "{a,b}", spec[0].Value)
}
