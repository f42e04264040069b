// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
	"io/ioutil"

	"github.com/oneconcern/datakit/pkg/storage/status"
)

// MaxObjectSizeInMemory bounds the size of objects read whole into memory
const MaxObjectSizeInMemory = 2 * 1024 * 1024 * 1024 // 2 gigs

// Overwrite flags for Put operations
const (
	OverWrite   = false
	NoOverWrite = true
)

// Store implementations know how to access objects on a storage backend.
//
// Typically this is something file system-like. Examples are S3, GCS,
// local FS, HTTP. Implementations of this interface are assumed to be
// fairly simple: one backend connection per store, keys addressed as
// slash-separated paths.
//
// Timeout and retry policy belong to the backend client configured at
// construction time, not to this interface: calls block until the backend
// answers or the passed context is cancelled.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)

	// Put writes an object. With doesNotExist set, the write must fail
	// with status.ErrExists when the key is already present. Backends
	// that cannot write return status.ErrReadOnly.
	Put(ctx context.Context, key string, source io.Reader, doesNotExist bool) error

	Delete(context.Context, string) error

	// Glob returns the keys matching a path.Match-style pattern.
	Glob(ctx context.Context, pattern string) ([]string, error)

	// Invalidate drops any cached state held for keys under the given
	// prefix, forcing the next Has/Glob to consult the backend again.
	// Stores that keep no cache treat this as a no-op.
	Invalidate(ctx context.Context, prefix string)
}

// ReadAll fetches an object into memory, guarding against objects too
// large to buffer.
func ReadAll(ctx context.Context, store Store, key string) ([]byte, error) {
	reader, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	object, err := ioutil.ReadAll(io.LimitReader(reader, MaxObjectSizeInMemory+1))
	if err != nil {
		return nil, err
	}
	if len(object) > MaxObjectSizeInMemory {
		return nil, status.ErrObjectTooBig
	}
	return object, nil
}

// PipeIO copies from reader to writer with a fixed-size buffer
func PipeIO(writer io.Writer, reader io.Reader) (n int64, err error) {
	pipeBuffer := make([]byte, 32*1024)
	return io.CopyBuffer(writer, reader, pipeBuffer)
}
