// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"context"

	"github.com/tfctl/deepcmp/internal/config"
)

// Meta contains runtime metadata shared by commands. It carries CLI arguments,
// the loaded configuration and its path, context and the starting working
// directory.
type Meta struct {
	Args        []string
	Config      config.Type
	ConfigFile  string
	Context     context.Context
	StartingDir string
}

// From returns the Meta a command builder stored in md, or the zero value.
func From(md map[string]any) Meta {
	m, _ := md["meta"].(Meta)
	return m
}
