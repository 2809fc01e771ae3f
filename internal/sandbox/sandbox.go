// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tfctl/deepcmp/internal/log"
)

const (
	DefaultMaxBytes = 4 << 30
	DefaultMaxFiles = 100_000

	copyChunk = 256 << 10
)

// ErrLimitExceeded is matched by every *LimitError.
var ErrLimitExceeded = errors.New("resource limit exceeded")

// LimitError reports which ceiling was hit.
type LimitError struct {
	Resource string
	Limit    int64
}

func (e *LimitError) Error() string {
	switch e.Resource {
	case "bytes":
		return fmt.Sprintf("resource limit exceeded: more than %s extracted", humanize.IBytes(uint64(e.Limit)))
	case "files":
		return fmt.Sprintf("resource limit exceeded: more than %d files extracted", e.Limit)
	default:
		return fmt.Sprintf("resource limit exceeded: %s over %d", e.Resource, e.Limit)
	}
}

func (e *LimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

// Limits are the ceilings applied to one sandbox. Zero means unlimited.
type Limits struct {
	MaxBytes int64
	MaxFiles int
}

// DefaultLimits returns the ceilings used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxBytes: DefaultMaxBytes, MaxFiles: DefaultMaxFiles}
}

// Sandbox is a temporary directory owned by one comparator invocation. It is
// not safe for concurrent use.
type Sandbox struct {
	dir    string
	limits Limits
	bytes  int64
	files  int
	closed bool
}

// New creates a sandbox below base. An empty base uses os.TempDir.
func New(base string, limits Limits) (*Sandbox, error) {
	dir, err := os.MkdirTemp(base, "sb-")
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox: %w", err)
	}
	log.Tracef("sandbox created: dir=%s", dir)
	return &Sandbox{dir: dir, limits: limits}, nil
}

// Dir returns the sandbox root.
func (s *Sandbox) Dir() string {
	return s.dir
}

// Usage returns the bytes and files written so far.
func (s *Sandbox) Usage() (int64, int) {
	return s.bytes, s.files
}

// Path maps rel to a location inside the sandbox. Absolute names and ".."
// segments are neutralized so the result never escapes the root.
func (s *Sandbox) Path(rel string) string {
	clean := filepath.Clean(string(filepath.Separator) + filepath.FromSlash(rel))
	clean = strings.TrimPrefix(clean, string(filepath.Separator))
	return filepath.Join(s.dir, clean)
}

// WriteFrom copies r into rel, charging the copy against the sandbox limits.
// The partial file is removed when a limit is hit or ctx is cancelled.
func (s *Sandbox) WriteFrom(ctx context.Context, rel string, r io.Reader, mode fs.FileMode) (string, int64, error) {
	if s.closed {
		return "", 0, fs.ErrClosed
	}
	if s.limits.MaxFiles > 0 && s.files >= s.limits.MaxFiles {
		return "", 0, &LimitError{Resource: "files", Limit: int64(s.limits.MaxFiles)}
	}

	p := s.Path(rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil { //nolint:mnd
		return "", 0, err
	}
	perm := mode.Perm() | 0o600
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return "", 0, err
	}
	s.files++

	n, err := s.copy(ctx, f, r)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return "", n, err
	}
	return p, n, nil
}

func (s *Sandbox) copy(ctx context.Context, w io.Writer, r io.Reader) (int64, error) {
	buf := make([]byte, copyChunk)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := r.Read(buf)
		if n > 0 {
			if s.limits.MaxBytes > 0 && s.bytes+int64(n) > s.limits.MaxBytes {
				return written, &LimitError{Resource: "bytes", Limit: s.limits.MaxBytes}
			}
			if _, err := w.Write(buf[:n]); err != nil {
				return written, err
			}
			s.bytes += int64(n)
			written += int64(n)
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// Close removes the sandbox. It is safe to call more than once.
func (s *Sandbox) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	if err := os.RemoveAll(s.dir); err != nil {
		log.WithError(err).Warnf("failed to remove sandbox %s", s.dir)
		return fmt.Errorf("failed to remove sandbox: %w", err)
	}
	log.Tracef("sandbox removed: dir=%s", s.dir)
	return nil
}
