// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tfctl/deepcmp/internal/cacheutil"
	"github.com/tfctl/deepcmp/internal/log"
)

const (
	scheme       = "s3://"
	downloadJobs = 8
)

// ErrEmptyPrefix is returned when a prefix matches no objects.
var ErrEmptyPrefix = errors.New("no objects under prefix")

// S3API is the subset of the S3 client used for downloads.
type S3API interface {
	s3.HeadObjectAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Location is a parsed s3:// URL.
type Location struct {
	Bucket string
	Key    string
}

// Prefix reports whether the location names a tree rather than one object.
func (l Location) Prefix() bool {
	return l.Key == "" || strings.HasSuffix(l.Key, "/")
}

func (l Location) String() string {
	return scheme + l.Bucket + "/" + l.Key
}

// Parse recognizes s3://bucket/key. Anything else is not remote.
func Parse(arg string) (Location, bool) {
	rest, ok := strings.CutPrefix(arg, scheme)
	if !ok {
		return Location{}, false
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, false
	}
	return Location{Bucket: bucket, Key: key}, true
}

// IsRemote reports whether arg needs a Fetcher.
func IsRemote(arg string) bool {
	_, ok := Parse(arg)
	return ok
}

// Fetcher downloads remote inputs below a private directory that Close
// removes.
type Fetcher struct {
	client S3API
	dir    string
	bytes  atomic.Int64
}

// New returns a Fetcher whose downloads live below base.
func New(client S3API, base string) (*Fetcher, error) {
	dir, err := os.MkdirTemp(base, "deepcmp-fetch-")
	if err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	return &Fetcher{client: client, dir: dir}, nil
}

// Close removes everything downloaded that is not held by the cache.
func (f *Fetcher) Close() error {
	return os.RemoveAll(f.dir)
}

// Resolve returns a local path for arg, downloading it when it is remote.
func (f *Fetcher) Resolve(ctx context.Context, arg string) (string, error) {
	loc, ok := Parse(arg)
	if !ok {
		return arg, nil
	}

	root := filepath.Join(f.dir, uuid.NewString())
	var (
		p   string
		err error
	)
	if loc.Prefix() {
		p, err = f.tree(ctx, loc, root)
	} else {
		p = filepath.Join(root, path.Base(loc.Key))
		err = f.object(ctx, loc, p)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", loc, err)
	}
	log.Infof("fetched %s (%s total)", loc, humanize.IBytes(uint64(f.bytes.Load())))
	return p, nil
}

// tree downloads all objects below loc into root.
func (f *Fetcher) tree(ctx context.Context, loc Location, root string) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadJobs)

	n := 0
	pages := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket: awsv2.String(loc.Bucket),
		Prefix: awsv2.String(loc.Key),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(gctx)
		if err != nil {
			_ = g.Wait()
			return "", err
		}
		for _, obj := range page.Contents {
			key := awsv2.ToString(obj.Key)
			rel := relativeKey(loc.Key, key)
			if rel == "" {
				continue
			}
			n++
			member := Location{Bucket: loc.Bucket, Key: key}
			dst := filepath.Join(root, filepath.FromSlash(rel))
			g.Go(func() error {
				return f.object(gctx, member, dst)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrEmptyPrefix
	}
	return root, nil
}

// relativeKey maps an object key to a clean relative path under prefix.
// Folder placeholder objects yield "".
func relativeKey(prefix, key string) string {
	rel := strings.TrimPrefix(key, prefix)
	if rel == "" || strings.HasSuffix(rel, "/") {
		return ""
	}
	return strings.TrimPrefix(path.Clean("/"+rel), "/")
}

// object makes one object available at dst, going through the cache when
// it is enabled.
func (f *Fetcher) object(ctx context.Context, loc Location, dst string) error {
	head, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: awsv2.String(loc.Bucket),
		Key:    awsv2.String(loc.Key),
	})
	if err != nil {
		return err
	}
	etag := strings.Trim(awsv2.ToString(head.ETag), `"`)
	cacheKey := loc.String() + "@" + etag
	subdirs := []string{"s3", loc.Bucket}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if etag != "" {
		if e, ok := cacheutil.Lookup(subdirs, cacheKey); ok {
			return place(e.Path, dst)
		}
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket:  awsv2.String(loc.Bucket),
		Key:     awsv2.String(loc.Key),
		IfMatch: head.ETag,
	})
	if err != nil {
		return err
	}
	defer out.Body.Close()

	if etag != "" {
		e, err := cacheutil.Store(subdirs, cacheKey, out.Body)
		if err != nil {
			return err
		}
		if e != nil {
			f.bytes.Add(e.Size)
			return place(e.Path, dst)
		}
	}

	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := io.Copy(w, out.Body)
	if cerr := w.Close(); cerr != nil && err == nil {
		err = cerr
	}
	f.bytes.Add(n)
	return err
}

// place exposes a cache entry at dst under its real name. A hard link is
// tried first; file systems without links get a copy.
func place(src, dst string) error {
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	r, err := os.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
