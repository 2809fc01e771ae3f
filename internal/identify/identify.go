// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package identify

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/tidwall/gjson"

	"github.com/tfctl/deepcmp/internal/log"
	"github.com/tfctl/deepcmp/internal/unit"
)

// Format tags.
const (
	Directory = "directory"
	OCILayout = "oci-layout"
	Symlink   = "symlink"
	Device    = "device"
	ELF       = "elf"
	Zip       = "zip"
	Tar       = "tar"
	SevenZip  = "7z"
	Rar       = "rar"
	Gzip      = "gzip"
	Bzip2     = "bzip2"
	Xz        = "xz"
	Zstd      = "zstd"
	Lz4       = "lz4"
	PDF       = "pdf"
	JSON      = "json"
	HCL       = "hcl"
	Text      = "text"
	Binary    = "binary"
)

const (
	// PrefixSize is the number of leading bytes inspected.
	PrefixSize = 4096
	// maxParseSize bounds whole-file validation for json and hcl.
	maxParseSize = 64 << 20
)

type signature struct {
	tag   string
	mimes []string
	check func(c *content) bool
}

// signatures is matched in order.
var signatures = []signature{
	{tag: ELF, mimes: []string{"application/x-elf"}},
	{tag: Zip, mimes: []string{"application/zip"}},
	{tag: SevenZip, mimes: []string{"application/x-7z-compressed"}},
	{tag: Rar, mimes: []string{"application/x-rar-compressed", "application/vnd.rar"}},
	{tag: Tar, mimes: []string{"application/x-tar"}},
	{tag: Gzip, mimes: []string{"application/gzip", "application/x-gzip"}},
	{tag: Bzip2, mimes: []string{"application/x-bzip2"}},
	{tag: Xz, mimes: []string{"application/x-xz"}},
	{tag: Zstd, mimes: []string{"application/zstd"}},
	{tag: Lz4, mimes: []string{"application/x-lz4"}},
	{tag: PDF, mimes: []string{"application/pdf"}},
	{tag: JSON, mimes: []string{"application/json"}, check: validJSON},
	{tag: HCL, mimes: []string{"text/plain"}, check: parsesAsHCL},
}

var hclSuffixes = []string{".tf", ".tfvars", ".hcl"}

// content is what signature checks see.
type content struct {
	name      string
	path      string
	prefix    []byte
	truncated bool
	size      int64
}

// full returns the whole content when it fits under the parse ceiling.
func (c *content) full() ([]byte, bool) {
	if !c.truncated {
		return c.prefix, true
	}
	if c.size > maxParseSize {
		return nil, false
	}
	b, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false
	}
	return b, true
}

// Classify returns a copy of u with its format tag set.
func Classify(u *unit.Unit) *unit.Unit {
	c := *u
	c.Format = tag(&c)
	log.Tracef("identified %s as %s", c.Name, c.Format)
	return &c
}

func tag(u *unit.Unit) string {
	switch u.Kind {
	case unit.Directory:
		if isOCILayout(u.Path) {
			return OCILayout
		}
		return Directory
	case unit.Symlink:
		return Symlink
	case unit.Device:
		return Device
	}

	if u.Path == "" {
		return Binary
	}

	prefix, truncated, err := readPrefix(u.Path)
	if err != nil {
		log.Debugf("identify read failed: name=%s err=%v", u.Name, err)
		return Binary
	}
	return classify(&content{
		name:      u.Name,
		path:      u.Path,
		prefix:    prefix,
		truncated: truncated,
		size:      u.Size,
	})
}

func classify(c *content) string {
	prefix := c.prefix
	ancestry := map[string]bool{}
	for m := mimetype.Detect(prefix); m != nil; m = m.Parent() {
		ancestry[baseType(m.String())] = true
	}

	for _, sig := range signatures {
		if !matches(ancestry, sig.mimes) {
			continue
		}
		if sig.check != nil && !sig.check(c) {
			continue
		}
		return sig.tag
	}

	if looksText(prefix, c.truncated) {
		return Text
	}
	return Binary
}

func matches(ancestry map[string]bool, mimes []string) bool {
	for _, m := range mimes {
		if ancestry[m] {
			return true
		}
	}
	return false
}

func baseType(s string) string {
	base, _, _ := strings.Cut(s, ";")
	return strings.TrimSpace(strings.ToLower(base))
}

func readPrefix(p string) ([]byte, bool, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	buf := make([]byte, PrefixSize+1)
	n, err := io.ReadFull(f, buf)
	switch err {
	case nil:
		return buf[:PrefixSize], true, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return buf[:n], false, nil
	default:
		return nil, false, err
	}
}

// looksText reports whether prefix is readable text. A multi-byte rune cut by
// truncation is tolerated.
func looksText(prefix []byte, truncated bool) bool {
	if bytes.IndexByte(prefix, 0) >= 0 {
		return false
	}
	if truncated {
		for i := 0; i < utf8.UTFMax-1 && len(prefix) > 0; i++ {
			if utf8.Valid(prefix) {
				break
			}
			prefix = prefix[:len(prefix)-1]
		}
	}
	return utf8.Valid(prefix)
}

func validJSON(c *content) bool {
	b, ok := c.full()
	return ok && gjson.ValidBytes(b)
}

func parsesAsHCL(c *content) bool {
	ext := strings.ToLower(filepath.Ext(c.name))
	known := false
	for _, s := range hclSuffixes {
		if ext == s {
			known = true
			break
		}
	}
	if !known {
		return false
	}
	b, ok := c.full()
	if !ok {
		return false
	}
	_, diags := hclsyntax.ParseConfig(b, filepath.Base(c.name), hcl.InitialPos)
	return !diags.HasErrors()
}

func isOCILayout(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, ocispec.ImageLayoutFile))
	return err == nil && info.Mode().IsRegular()
}
