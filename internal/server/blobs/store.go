// Package blobs keeps document content in object storage when the server is
// configured with the s3 backend.
package blobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Store is an opaque key/value object store. Get returns
// common.ErrorNotFound for unknown keys; Delete of an unknown key succeeds.
type Store interface {
	Put(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewObjectKey returns a fresh key under the owner's prefix. Every save gets
// its own key, so a concurrent reader never sees a half-written object.
func NewObjectKey(owner string) string {
	return fmt.Sprintf("users/%s/%v", owner, uuid.New())
}
