// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/tfctl/deepcmp/internal/log"
	"github.com/tfctl/deepcmp/internal/sandbox"
)

const (
	DefaultMaxOutput = 64 << 20

	maxStderr = 64 << 10
	waitDelay = 2 * time.Second
)

// Known lists the tools comparators may ask for.
var Known = []string{"objdump", "pdfinfo", "pdftotext", "readelf"}

// ErrUnavailable is matched by every *UnavailableError.
var ErrUnavailable = errors.New("tool not available")

var errOutputCap = errors.New("tool output cap reached")

// UnavailableError reports a tool that is missing or disabled.
type UnavailableError struct {
	Name string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("'%s' not available in path", e.Name)
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// ExitError reports a tool that ran and exited non-zero.
type ExitError struct {
	Command []string
	Code    int
	Output  []byte
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command `%s` exited with %d", strings.Join(e.Command, " "), e.Code)
}

// Set is an immutable view of the tools found on PATH.
type Set struct {
	paths     map[string]string
	maxOutput int64
}

// Detect resolves the Known tools, skipping any listed in disabled.
func Detect(disabled ...string) *Set {
	return Lookup(Known, disabled)
}

// Lookup resolves names on PATH, skipping any listed in disabled.
func Lookup(names, disabled []string) *Set {
	s := &Set{paths: map[string]string{}, maxOutput: DefaultMaxOutput}
	for _, name := range names {
		if slices.Contains(disabled, name) {
			log.Debugf("tool disabled: name=%s", name)
			continue
		}
		p, err := exec.LookPath(name)
		if err != nil {
			log.Debugf("tool not found: name=%s", name)
			continue
		}
		s.paths[name] = p
	}
	log.Debugf("tools available: %v", s.Names())
	return s
}

// WithMaxOutput returns a copy of s whose runs fail once stdout exceeds n
// bytes.
func (s *Set) WithMaxOutput(n int64) *Set {
	c := &Set{paths: s.paths, maxOutput: n}
	return c
}

// Available reports whether name can be run.
func (s *Set) Available(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.paths[name]
	return ok
}

// Names returns the available tools in sorted order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.paths))
	for n := range s.paths {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run executes name with args and returns its stdout. The process runs in the
// C locale and UTC so its output does not depend on the caller's
// environment. Cancelling ctx kills the process.
func (s *Set) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if !s.Available(name) {
		return nil, &UnavailableError{Name: name}
	}

	cmd := exec.CommandContext(ctx, s.paths[name], args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C", "TZ=UTC")
	cmd.WaitDelay = waitDelay

	stdout := &capped{max: s.maxOutput}
	stderr := &capped{max: maxStderr, discard: true}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	log.Tracef("tool run: %s %s", name, strings.Join(args, " "))
	err := cmd.Run()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if stdout.over {
		return nil, &sandbox.LimitError{Resource: name + " output", Limit: s.maxOutput}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out := append(stderr.buf.Bytes(), stdout.buf.Bytes()...)
		return nil, &ExitError{
			Command: append([]string{name}, args...),
			Code:    exitErr.ExitCode(),
			Output:  out,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return stdout.buf.Bytes(), nil
}

// capped is a writer with a ceiling. Past the ceiling it either fails the
// write, which closes the pipe to the child, or silently drops the data.
type capped struct {
	buf     bytes.Buffer
	max     int64
	over    bool
	discard bool
}

func (c *capped) Write(p []byte) (int, error) {
	if c.max > 0 && int64(c.buf.Len()+len(p)) > c.max {
		c.over = true
		if c.discard {
			return len(p), nil
		}
		return 0, errOutputCap
	}
	return c.buf.Write(p)
}
