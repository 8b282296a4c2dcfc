package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/DrSkyle/graphwalk/pkg/storage"
)

// Reader fetches dataset sources.
type Reader struct {
	S3     storage.S3Options
	Logger *slog.Logger

	// open is replaced in tests.
	open func(ctx context.Context, loc storage.Location) (storage.BlobStore, string, error)
}

// NewReader returns a Reader for local paths and s3:// URLs.
func NewReader(s3 storage.S3Options, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Reader{S3: s3, Logger: logger}
	r.open = r.openStore
	return r
}

func (r *Reader) openStore(ctx context.Context, loc storage.Location) (storage.BlobStore, string, error) {
	if loc.IsS3() {
		s, err := storage.OpenS3(ctx, loc.Bucket, r.S3)
		if err != nil {
			return nil, "", err
		}
		return s, loc.Key, nil
	}
	abs, err := filepath.Abs(loc.Key)
	if err != nil {
		return nil, "", err
	}
	return storage.NewLocalStore(filepath.Dir(abs)), filepath.Base(abs), nil
}

// Read fetches and parses every source and merges them in order.
func (r *Reader) Read(ctx context.Context, sources ...string) (*Dataset, error) {
	out := &Dataset{}
	for _, src := range sources {
		loc, err := storage.ParseLocation(src)
		if err != nil {
			return nil, err
		}
		store, key, err := r.open(ctx, loc)
		if err != nil {
			return nil, err
		}
		data, err := store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", src, err)
		}
		ds, err := Parse(key, data)
		if err != nil {
			return nil, err
		}
		r.Logger.Debug("dataset read", "source", src, "collections", len(ds.Collections), "graphs", len(ds.Graphs))
		out.Merge(ds)
	}
	return out, nil
}
