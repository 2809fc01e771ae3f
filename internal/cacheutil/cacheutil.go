// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package cacheutil stores downloaded inputs on disk keyed by an opaque
// clear-text key, so repeated comparisons of the same remote object skip the
// download.
package cacheutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/tfctl/deepcmp/internal/log"
)

// Entry represents a cached artifact on disk.
// Key is the clear-text key; EncodedKey is the hashed filename.
type Entry struct {
	Key        string
	EncodedKey string
	Path       string
	Size       int64
}

// Dir resolves the base cache directory.
// Precedence:
//  1. DEEPCMP_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/deepcmp
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("DEEPCMP_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "deepcmp"), true
	}
	return "", false
}

// Enabled returns true unless DEEPCMP_CACHE explicitly disables it
// ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv("DEEPCMP_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EnsureBaseDir creates the base cache directory if caching is enabled and
// a base path can be resolved. Returns the path, whether it is usable, and an
// error if creation failed.
func EnsureBaseDir() (string, bool, error) {
	if !Enabled() {
		return "", false, nil
	}

	base, ok := Dir()
	if !ok {
		return "", false, nil
	}

	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}

// EntryPath returns the path where a cache entry would live given
// subdirectory components and the clear-text key. It also returns true if a
// file currently exists at that path.
func EntryPath(subdirs []string, clearKey string) (string, bool) {
	base, ok := Dir()
	if !ok {
		return "", false
	}
	p := filepath.Join(append([]string{base}, append(subdirs, encodeKey(clearKey))...)...)
	if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
		return p, true
	}
	return p, false
}

// Purge removes files older than the provided number of hours.
// If hours <= 0 or the cache dir cannot be resolved, it is a no-op.
func Purge(hours int) error {
	if hours <= 0 {
		log.Debug("cache cleaning disabled")
		return nil
	}

	base, ok := Dir()
	if !ok {
		return nil
	}

	maxAge := time.Duration(hours) * time.Hour
	if err := filepath.Walk(base, func(path string, info os.FileInfo, walkErr error) error {
		// Entries can vanish under a concurrent purge.
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if info == nil {
			return nil
		}

		if !info.IsDir() && time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				log.Debugf("removed cache file %s", path)
			} else {
				log.WithError(err).Warnf("failed to remove cache file %s", path)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

// Lookup returns the cached entry for key, if one exists.
func Lookup(subdirs []string, clearKey string) (*Entry, bool) {
	if !Enabled() {
		return nil, false
	}
	p, ok := EntryPath(subdirs, clearKey)
	if !ok {
		return nil, false
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	log.Debugf("cache hit: key=%s", clearKey)
	return &Entry{
		Key:        clearKey,
		EncodedKey: encodeKey(clearKey),
		Path:       p,
		Size:       info.Size(),
	}, true
}

// Store streams r into the entry for key. The entry only appears once the
// copy is complete, so a failed or interrupted download never leaves a
// truncated entry behind. With caching disabled it returns (nil, nil).
func Store(subdirs []string, clearKey string, r io.Reader) (*Entry, error) {
	if !Enabled() {
		return nil, nil
	}
	base, ok := Dir()
	if !ok {
		return nil, nil
	}

	encoded := encodeKey(clearKey)
	dir := filepath.Join(append([]string{base}, subdirs...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, encoded+".*.part")
	if err != nil {
		return nil, fmt.Errorf("failed to write to cache: %w", err)
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write to cache: %w", err)
	}

	p := filepath.Join(dir, encoded)
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write to cache: %w", err)
	}
	log.Debugf("cache write: key=%s size=%d", clearKey, n)
	return &Entry{Key: clearKey, EncodedKey: encoded, Path: p, Size: n}, nil
}

// encodeKey returns the hex sha256 of input.
func encodeKey(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}
