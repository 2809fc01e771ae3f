// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"bytes"
	"context"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

const digestChunk = 256 << 10

// sameDigest reports whether two files hash to the same blake2b-256 digest.
func sameDigest(ctx context.Context, a, b string) (bool, error) {
	da, err := fileDigest(ctx, a)
	if err != nil {
		return false, err
	}
	db, err := fileDigest(ctx, b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}

func fileDigest(ctx context.Context, p string) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, digestChunk)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := f.Read(buf)
		h.Write(buf[:n])
		if err == io.EOF {
			return h.Sum(nil), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
