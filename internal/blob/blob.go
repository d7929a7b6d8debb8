// Package blob stores generated files and uploaded source documents in an
// object store. An S3-compatible implementation covers production; an
// in-memory implementation backs tests and keyless development.
package blob

import (
	"context"
	"time"
)

// Store is the object storage surface the pipeline depends on. Put returns
// the reference under which the blob was stored; the other methods take that
// reference back.
type Store interface {
	Put(ctx context.Context, data []byte, key, contentType string) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Presign(ctx context.Context, ref string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, ref string) error
}
