// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/streamio"
	"github.com/antgroup/hugevcs/modules/zeta/object"
)

var (
	ErrUncacheableObject = errors.New("uncacheable object")
)

func (d *Database) store(c *object.Commit) error {
	if !d.enableLRU {
		return nil
	}
	// don't cache the backend reference, it may outlive this Database
	_ = d.metaLRU.Set(c.Hash.String(), object.NewSnapshotCommit(c, nil), 1)
	return nil
}

func (d *Database) fromCache(oid plumbing.Hash) (*object.Commit, bool) {
	if !d.enableLRU {
		return nil, false
	}
	a, ok := d.metaLRU.Get(oid.String())
	if !ok {
		return nil, false
	}
	c, ok := a.(*object.Commit)
	if !ok {
		return nil, false
	}
	return object.NewSnapshotCommit(c, d.backend), true
}

func (d *Database) Exists(oid plumbing.Hash) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ro.Exists(oid)
}

// Commit decodes and returns the commit for oid, setting its backend to
// d.backend so MakeParents can continue traversing through this store.
func (d *Database) Commit(ctx context.Context, oid plumbing.Hash) (*object.Commit, error) {
	if c, ok := d.fromCache(oid); ok {
		return c, nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	rc, err := d.ro.Open(oid)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	a, err := object.Decode(rc, oid, d.backend)
	if err != nil {
		return nil, err
	}
	c, ok := a.(*object.Commit)
	if !ok {
		return nil, NewErrMismatchedObjectType(oid, "commit")
	}
	_ = d.store(c)
	return c, nil
}

type SizeReader interface {
	io.Reader
	io.Closer
	Size() int64
}

type sizeReader struct {
	io.Reader
	closer io.Closer
	size   int64
}

func (sr *sizeReader) Close() error {
	if sr.closer == nil {
		return nil
	}
	return sr.closer.Close()
}

func (sr *sizeReader) Size() int64 {
	return sr.size
}

const (
	// ZSTD_MAGIC: https://github.com/facebook/zstd/blob/dev/doc/zstd_compression_format.md#frames
	ZSTD_MAGIC = 0xFD2FB528
)

func isZstdMagic(magic [4]byte) bool {
	return binary.LittleEndian.Uint32(magic[:]) == ZSTD_MAGIC
}

func (d *Database) SizeReader(oid plumbing.Hash) (SizeReader, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rc, err := d.ro.Open(oid)
	if err != nil {
		return nil, err
	}
	var magic [4]byte
	if _, err := io.ReadFull(rc, magic[:]); err != nil {
		return nil, err
	}
	if isZstdMagic(magic) {
		defer rc.Close()
		b := &bytes.Buffer{}
		zr, err := streamio.GetZstdReader(rc)
		if err != nil {
			return nil, err
		}
		defer streamio.PutZstdReader(zr)
		if _, err := zr.WriteTo(b); err != nil {
			return nil, err
		}
		rawBytes := b.Bytes()
		return &sizeReader{Reader: bytes.NewReader(rawBytes), size: int64(len(rawBytes))}, nil
	}
	reader := io.MultiReader(bytes.NewReader(magic[:]), rc)
	if f, ok := rc.(*os.File); ok {
		si, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &sizeReader{Reader: reader, closer: f, size: si.Size()}, nil
	}
	_ = rc.Close()
	return nil, errors.New("unable detect reader size")
}

func (d *Database) Size(oid plumbing.Hash) (size int64, err error) {
	var sr SizeReader
	if sr, err = d.SizeReader(oid); err != nil {
		return
	}
	size = sr.Size()
	_ = sr.Close()
	return
}

type readCloser struct {
	io.Reader
	closeFn func() error
}

func (r *readCloser) Close() error {
	if r.closeFn == nil {
		return nil
	}
	return r.closeFn()
}

func (d *Database) OpenReader(oid plumbing.Hash) (io.ReadCloser, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rc, err := d.ro.Open(oid)
	if err != nil {
		return nil, err
	}
	var magic [4]byte
	if _, err := io.ReadFull(rc, magic[:]); err != nil {
		return nil, err
	}
	if isZstdMagic(magic) {
		defer rc.Close()
		zr, err := streamio.GetZstdReader(rc)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: zr, closeFn: func() error {
			streamio.PutZstdReader(zr)
			return rc.Close()
		}}, nil
	}
	return &readCloser{
		Reader: io.MultiReader(bytes.NewReader(magic[:]), rc),
		closeFn: func() error {
			return rc.Close()
		}}, nil
}

func (d *Database) Search(prefix string) (oid plumbing.Hash, err error) {
	h := plumbing.NewHash(prefix)
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ro.Search(h)
}
