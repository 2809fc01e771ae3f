// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package comparators

import (
	"context"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/tidwall/pretty"

	"github.com/tfctl/deepcmp/internal/log"
	"github.com/tfctl/deepcmp/internal/unit"
)

// maxOCIDocument caps index, manifest and config blobs read into memory.
const maxOCIDocument = 4 << 20

// OCILayout compares two OCI image layouts. Index, manifests and configs
// make up the leaf; layer blobs are paired by position.
type OCILayout struct{}

func (OCILayout) Name() string { return "oci-layout" }

func (OCILayout) Compare(ctx context.Context, left, right *unit.Unit, _ *Env) (*Result, error) {
	res := &Result{}
	ld, ll, err := readLayout(ctx, left, res)
	if err != nil {
		return nil, err
	}
	rd, rl, err := readLayout(ctx, right, res)
	if err != nil {
		return nil, err
	}
	res.Leaf = &Leaf{Left: ld, Right: rd}
	res.Children = unit.Match(ll, rl)
	return res, nil
}

// readLayout renders the metadata documents of a layout and returns its
// layers keyed by position. Digest mismatches are recorded on res.
func readLayout(ctx context.Context, u *unit.Unit, res *Result) (string, map[string]*unit.Unit, error) {
	raw, err := readDocument(filepath.Join(u.Path, ocispec.ImageIndexFile))
	if err != nil {
		return "", nil, &ExtractionError{Name: u.Name, Err: err}
	}
	var index ocispec.Index
	if err := json.Unmarshal(raw, &index); err != nil {
		return "", nil, &ExtractionError{Name: u.Name, Err: fmt.Errorf("%s: %w", ocispec.ImageIndexFile, err)}
	}

	var sb strings.Builder
	section(&sb, ocispec.ImageIndexFile, raw)

	layers := map[string]*unit.Unit{}
	for i, md := range index.Manifests {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		p, err := blobPath(u.Path, md.Digest)
		if err != nil {
			return "", nil, &ExtractionError{Name: u.Name, Err: err}
		}
		mraw, err := verifiedDocument(u, p, md.Digest, res)
		if err != nil {
			return "", nil, &ExtractionError{Name: u.Name, Err: err}
		}
		prefix := fmt.Sprintf("manifest-%02d", i)
		section(&sb, prefix, mraw)

		if md.MediaType != "" && md.MediaType != ocispec.MediaTypeImageManifest {
			continue
		}
		var m ocispec.Manifest
		if err := json.Unmarshal(mraw, &m); err != nil {
			return "", nil, &ExtractionError{Name: u.Name, Err: fmt.Errorf("%s: %w", prefix, err)}
		}

		if cp, err := blobPath(u.Path, m.Config.Digest); err == nil {
			if craw, err := verifiedDocument(u, cp, m.Config.Digest, res); err == nil {
				section(&sb, prefix+"/config", craw)
			} else {
				res.Comment("%s: config unreadable: %s", u.Name, err)
			}
		}

		for j, l := range m.Layers {
			lp, err := blobPath(u.Path, l.Digest)
			if err != nil {
				return "", nil, &ExtractionError{Name: u.Name, Err: err}
			}
			info, err := os.Stat(lp)
			if err != nil {
				res.Comment("%s: layer %s missing", u.Name, l.Digest)
				continue
			}
			if err := verifyBlob(lp, l.Digest); err != nil {
				res.Comment("%s: %s", u.Name, err)
			}
			name := fmt.Sprintf("%s/layer-%03d", prefix, j)
			layers[name] = &unit.Unit{
				Name: unit.Member(u.Name, name),
				Path: lp,
				Size: info.Size(),
				Kind: unit.File,
				Mode: info.Mode(),
				Meta: l.MediaType,
			}
		}
	}
	log.Debugf("oci layout %s: %d manifests, %d layers", u.Name, len(index.Manifests), len(layers))
	return sb.String(), layers, nil
}

func section(sb *strings.Builder, title string, doc []byte) {
	fmt.Fprintf(sb, "%s:\n", title)
	sb.Write(pretty.PrettyOptions(doc, prettyOptions))
	sb.WriteByte('\n')
}

// blobPath locates a blob by digest. Malformed digests are rejected before
// they are used to build a path.
func blobPath(root string, d digest.Digest) (string, error) {
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("digest %q: %w", d, err)
	}
	return filepath.Join(root, ocispec.ImageBlobsDir, d.Algorithm().String(), d.Encoded()), nil
}

func readDocument(p string) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, maxOCIDocument+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxOCIDocument {
		return nil, fmt.Errorf("%s: document larger than %d bytes", filepath.Base(p), maxOCIDocument)
	}
	return b, nil
}

func verifiedDocument(u *unit.Unit, p string, d digest.Digest, res *Result) ([]byte, error) {
	b, err := readDocument(p)
	if err != nil {
		return nil, err
	}
	v := d.Verifier()
	_, _ = v.Write(b)
	if !v.Verified() {
		res.Comment("%s: digest mismatch for %s", u.Name, d)
	}
	return b, nil
}

func verifyBlob(p string, d digest.Digest) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	v := d.Verifier()
	if _, err := io.Copy(v, f); err != nil {
		return err
	}
	if !v.Verified() {
		return fmt.Errorf("digest mismatch for %s", d)
	}
	return nil
}
