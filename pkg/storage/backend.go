// Package storage reads and writes dataset blobs on the local filesystem or
// in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("blob not found")

// BlobStore defines the interface for abstract storage backends.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Location is a parsed source: a local path or an s3://bucket/key URL.
type Location struct {
	Bucket string
	Key    string
}

// IsS3 reports whether the location names an S3 object.
func (l Location) IsS3() bool { return l.Bucket != "" }

// ParseLocation splits s3://bucket/key URLs. Anything else is a local path.
func ParseLocation(src string) (Location, error) {
	if !strings.HasPrefix(src, "s3://") {
		return Location{Key: src}, nil
	}
	u, err := url.Parse(src)
	if err != nil {
		return Location{}, fmt.Errorf("invalid s3 url %q: %w", src, err)
	}
	if u.Host == "" {
		return Location{}, fmt.Errorf("invalid s3 url %q: no bucket", src)
	}
	return Location{Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}, nil
}
