// Package blob abstracts the object storage holding uploaded source
// files and generated dataset files.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a storage backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local filesystem (default, dev)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // in-memory (tests)
)

// ErrNotFound is returned when the key holds no blob.
var ErrNotFound = errors.New("blob not found")

// ErrAlreadyExists is returned by Put when the key is taken.
var ErrAlreadyExists = errors.New("blob already exists")

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
}

// Info describes a stored blob.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"sizeBytes"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// Store is a minimal create-only object store.
//
// Keys are slash-separated paths. Put never overwrites: callers derive
// fresh keys (uuid-based) per upload, so an existing key means a bug or
// a replayed request.
type Store interface {
	// Put stores a new blob at key.
	// Returns ErrAlreadyExists when the key is taken.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)

	// Get retrieves the blob contents and metadata.
	// Returns ErrNotFound when there is no such blob.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)

	// Delete removes a blob. Returns (false, nil) when not found.
	Delete(ctx context.Context, key string) (bool, error)

	// Driver returns the backend identifier.
	Driver() Driver
}
