// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/tfctl/deepcmp/internal/log"
)

// EnvFile names the environment variable holding an explicit config path.
const EnvFile = "DEEPCMP_CFG_FILE"

// Type is the in-memory representation of the loaded configuration.
//
// Fields:
//   - Source: path of the YAML file loaded.
//   - Namespace: optional dot-prefixed keyspace tried before the bare key,
//     e.g. "compare" makes GetInt("jobs") read compare.jobs first.
//   - Data: raw key/value tree unmarshaled from YAML.
type Type struct {
	Source    string
	Namespace string
	Data      map[string]interface{}
}

// Config holds the global configuration instance.
var Config Type

// ErrNotFound is returned by getters for a missing key without a default.
var ErrNotFound = errors.New("config key not found")

// init loads configuration at process start. A missing file is not an error
// for the application; getters fall back to their defaults.
func init() {
	_, _ = Load()
}

// lookup resolves key, trying the namespaced form first. A lazy reload is
// attempted when nothing has been loaded yet.
func lookup(key string) (any, error) {
	if len(Config.Data) == 0 {
		ns := Config.Namespace
		if _, err := Load(); err == nil {
			Config.Namespace = ns
		}
	}
	return Config.get(key)
}

// GetInt returns the integer value for the given dotted key path. A single
// defaultValue may be provided and is returned when the key is missing.
func GetInt(key string, defaultValue ...int) (int, error) {
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	// YAML numbers may be unmarshaled as int or float64 depending on content.
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%s: value is not an int", key)
	}
}

// GetString returns the string value for the given dotted key path. If the key
// is not found and a single defaultValue is provided, the default is returned.
// Returns an error if the value exists but is not a string.
func GetString(key string, defaultValue ...string) (string, error) {
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return "", err
	}

	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s: value is not a string", key)
	}
	return s, nil
}

// GetBool returns the boolean value for the given dotted key path.
func GetBool(key string, defaultValue ...bool) (bool, error) {
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return false, err
	}

	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("%s: value is not a bool", key)
	}
	return b, nil
}

// GetDuration returns a duration written as a Go duration string ("90s",
// "2m"). Bare numbers are taken as seconds.
func GetDuration(key string, defaultValue ...time.Duration) (time.Duration, error) {
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	switch v := val.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("%s: value is not a duration", key)
	}
}

// GetBytes returns a size written either as a number of bytes or as a
// human-readable string such as "4GiB" or "500 MB".
func GetBytes(key string, defaultValue ...int64) (int64, error) {
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	switch v := val.(type) {
	case string:
		n, err := humanize.ParseBytes(v)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return int64(n), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%s: value is not a size", key)
	}
}

// GetStringSlice returns the string slice value for the given dotted key path.
// If the key is not found and a single default slice is provided, that default
// is returned. Returns an error if the value exists but is not a string slice.
func GetStringSlice(key string, defaultValue ...[]string) ([]string, error) {
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return nil, err
	}

	switch v := val.(type) {
	case []string:
		return v, nil
	case []interface{}:
		result := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s: slice element is not a string", key)
			}
			result[i] = s
		}
		return result, nil
	default:
		return nil, fmt.Errorf("%s: value is not a slice", key)
	}
}

// Load reads the YAML configuration file and replaces the global Config.
// Returns the loaded Type or an error if the file could not be located or
// parsed.
func Load() (Type, error) {
	path, err := File()
	if err != nil {
		return Type{}, err
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return Type{}, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(bytes, &data); err != nil {
		return Type{}, fmt.Errorf("%s: %w", path, err)
	}

	Config = Type{Source: path, Data: data}
	return Config, nil
}

// get traverses the configuration tree using a dotted key path (e.g.
// "output.colors.added"). If Namespace is set, the namespaced key is
// attempted first, then the bare key.
func (cfg *Type) get(kspec string) (any, error) {
	candidateKeys := []string{kspec}
	if cfg.Namespace != "" {
		candidateKeys = []string{cfg.Namespace + "." + kspec, kspec}
	}

	for _, key := range candidateKeys {
		var current interface{} = cfg.Data

		found := true
		for _, part := range strings.Split(key, ".") {
			m, ok := current.(map[string]interface{})
			if !ok {
				found = false
				break
			}
			if current, ok = m[part]; !ok {
				found = false
				break
			}
		}

		if found {
			return current, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(candidateKeys, ", "))
}

// File returns the path of the YAML config file. DEEPCMP_CFG_FILE, when set,
// is the full path to the file. Otherwise deepcmp.yaml in os.UserConfigDir is
// used. The file must exist and not be a directory.
func File() (string, error) {
	if cfgPath := os.Getenv(EnvFile); cfgPath != "" {
		fileInfo, err := os.Stat(cfgPath)
		if err != nil {
			return "", fmt.Errorf("config file not found at %s path: %s", EnvFile, cfgPath)
		}
		if fileInfo.IsDir() {
			return "", fmt.Errorf("%s points to a directory: %s", EnvFile, cfgPath)
		}
		log.Debugf("using config file from %s: %s", EnvFile, cfgPath)
		return cfgPath, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	file := filepath.Join(dir, "deepcmp.yaml")
	if fileInfo, err := os.Stat(file); err == nil && !fileInfo.IsDir() {
		log.Debugf("using config file: %s", file)
		return file, nil
	}

	return "", fmt.Errorf("no config file found in standard locations")
}
