package storage

import "io"

// BlobStore holds uploaded binaries (lost & found photos).
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}
