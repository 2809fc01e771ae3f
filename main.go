// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/tfctl/deepcmp/internal/cacheutil"
	"github.com/tfctl/deepcmp/internal/command"
	"github.com/tfctl/deepcmp/internal/config"
	"github.com/tfctl/deepcmp/internal/log"
	"github.com/tfctl/deepcmp/internal/version"
)

// Exit statuses.
const (
	exitSame      = 0
	exitDifferent = 1
	exitError     = 2
)

func main() {
	os.Exit(realMain())
}

// handleVersion checks for --version/-v and returns whether it was handled.
func handleVersion(args []string) bool {
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return true
		}
	}
	return false
}

// handleNakedCommand appends --help if no command is provided.
func handleNakedCommand(args []string) []string {
	if len(args) <= 1 {
		return append(args, "--help")
	}
	return args
}

// routeCompare makes compare the default command, so that
// "deepcmp LEFT RIGHT" works like "deepcmp compare LEFT RIGHT".
func routeCompare(args []string) []string {
	if len(args) < 2 || slices.Contains(command.Names, args[1]) || args[1] == "--help" || args[1] == "-h" {
		return args
	}
	return append([]string{args[0], "compare"}, args[1:]...)
}

// expandSet replaces an @name argument with the arguments listed under
// <command>.sets.<name> in the config file. Entries are split on whitespace.
func expandSet(args []string) []string {
	if len(args) < 3 {
		return args
	}
	idx := slices.IndexFunc(args[2:], func(a string) bool {
		return strings.HasPrefix(a, "@") && len(a) > 1
	})
	if idx < 0 {
		return args
	}
	idx += 2

	entries, err := config.GetStringSlice(args[1] + ".sets." + args[idx][1:])
	if err != nil {
		log.Warnf("argument set %s not found", args[idx])
	}
	return injectSet(args, idx, entries)
}

// injectSet removes args[idx] and splices in the fields of entries.
func injectSet(args []string, idx int, entries []string) []string {
	var expanded []string
	for _, e := range entries {
		expanded = append(expanded, strings.Fields(e)...)
	}

	out := make([]string, 0, len(args)-1+len(expanded))
	out = append(out, args[:idx]...)
	out = append(out, expanded...)
	return append(out, args[idx+1:]...)
}

// exitCode maps the result of a run onto the exit contract.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSame
	case errors.Is(err, command.ErrDifferencesFound):
		return exitDifferent
	default:
		return exitError
	}
}

// initAndRunApp initializes the app and runs it, returning the exit code.
func initAndRunApp(ctx context.Context, args []string) int {
	// Pre-create cache directory when caching is enabled.
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil && ok {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("cache ensure err: err=%v", err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("app init err: err=%v", err)
		return exitError
	}

	err = app.Run(ctx, args)
	code := exitCode(err)
	if code == exitError {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("app run err: err=%v", err)
	}
	return code
}

func realMain() int {
	log.InitLogger()

	args := os.Args
	log.Debugf("args captured: args=%v", args)

	if handleVersion(args) {
		return exitSame
	}

	args = handleNakedCommand(args)
	args = routeCompare(args)
	args = expandSet(args)
	log.Debugf("args after processing: args=%v", args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return initAndRunApp(ctx, args)
}
