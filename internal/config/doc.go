// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package config provides loading and typed accessors for deepcmp's user
// configuration. The configuration is a YAML document named deepcmp.yaml in
// the user's configuration directory, typically:
//   - Linux: $XDG_CONFIG_HOME/deepcmp.yaml or $HOME/.config/deepcmp.yaml
//   - macOS: $HOME/Library/Application Support/deepcmp.yaml
//   - Windows: %APPDATA%/deepcmp.yaml
//
// DEEPCMP_CFG_FILE overrides the location. Flags of the compare command read
// their defaults from the compare.* keys, so a key such as compare.timeout
// only applies when --timeout is not given.
package config
