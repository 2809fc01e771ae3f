// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package comparators

import (
	"github.com/mholt/archives"

	"github.com/tfctl/deepcmp/internal/identify"
)

type entry struct {
	tag string
	cmp Comparator
}

// Registry maps format tags to comparators. Lookups scan entries in
// registration order, so the first comparator registered for a tag wins.
type Registry struct {
	entries  []entry
	mismatch Comparator
	fallback Comparator
}

// NewRegistry returns a registry that falls back to fallback for unknown tags.
func NewRegistry(fallback Comparator) *Registry {
	return &Registry{mismatch: Mismatch{}, fallback: fallback}
}

// Register appends a comparator for tag.
func (r *Registry) Register(tag string, c Comparator) *Registry {
	r.entries = append(r.entries, entry{tag: tag, cmp: c})
	return r
}

// Select returns the comparator for a pair of tags. Differing tags select the
// type mismatch comparator; unregistered tags select the fallback.
func (r *Registry) Select(left, right string) Comparator {
	if left != right {
		return r.mismatch
	}
	for _, e := range r.entries {
		if e.tag == left {
			return e.cmp
		}
	}
	return r.fallback
}

// Fallback returns the raw comparator used when nothing else applies.
func (r *Registry) Fallback() Comparator {
	return r.fallback
}

// Tags returns the registered tags in order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		tags = append(tags, e.tag)
	}
	return tags
}

// Default returns the static comparator table.
func Default() *Registry {
	return NewRegistry(Raw{}).
		Register(identify.Directory, Directory{}).
		Register(identify.OCILayout, OCILayout{}).
		Register(identify.Symlink, Symlink{}).
		Register(identify.Device, Device{}).
		Register(identify.Tar, Archive{Format: archives.Tar{}}).
		Register(identify.Zip, Archive{Format: archives.Zip{}}).
		Register(identify.SevenZip, Archive{Format: archives.SevenZip{}}).
		Register(identify.Rar, Archive{Format: archives.Rar{}}).
		Register(identify.Gzip, Compressed{Decompressor: archives.Gz{}, Suffixes: gzipSuffixes, Header: gzipHeader}).
		Register(identify.Bzip2, Compressed{Decompressor: archives.Bz2{}, Suffixes: bzip2Suffixes}).
		Register(identify.Xz, Compressed{Decompressor: archives.Xz{}, Suffixes: xzSuffixes}).
		Register(identify.Zstd, Compressed{Decompressor: archives.Zstd{}, Suffixes: zstdSuffixes}).
		Register(identify.Lz4, Compressed{Decompressor: archives.Lz4{}, Suffixes: lz4Suffixes}).
		Register(identify.ELF, ELF{}).
		Register(identify.PDF, PDF{}).
		Register(identify.JSON, JSON{}).
		Register(identify.HCL, HCL{}).
		Register(identify.Text, Text{})
}
