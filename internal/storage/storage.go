// internal/storage/storage.go
package storage

import (
	"context"
	"io"
)

// Store holds rendered narration audio and uploaded voice samples. Keys are
// path-like ("narrations/42.mp3", "samples/7/3.wav").
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
