// Package gcs is an objectstore.Backend over Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"vkp/internal/objectstore"
)

// Backend is an objectstore.Backend over a single GCS bucket.
type Backend struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

var _ objectstore.Backend = (*Backend)(nil)

// New builds a Backend for bucketName using application-default
// credentials.
func New(ctx context.Context, bucketName string) (*Backend, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: new gcs client: %v", objectstore.ErrUnreachable, err)
	}
	return &Backend{client: client, bucket: client.Bucket(bucketName)}, nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%w: %v", objectstore.ErrNotFound, err)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 401, 403:
			return fmt.Errorf("%w: %v", objectstore.ErrUnauthorized, err)
		case 404:
			return fmt.Errorf("%w: %v", objectstore.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%w: %v", objectstore.ErrTransient, err)
}

func (b *Backend) ListAll(ctx context.Context) ([]objectstore.ObjectInfo, error) {
	var out []objectstore.ObjectInfo
	it := b.bucket.Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, objectstore.ObjectInfo{Key: attrs.Name, Size: attrs.Size})
	}
	return out, nil
}

func (b *Backend) Head(ctx context.Context, key string) (objectstore.ObjectInfo, error) {
	attrs, err := b.bucket.Object(key).Attrs(ctx)
	if err != nil {
		return objectstore.ObjectInfo{}, classify(err)
	}
	return objectstore.ObjectInfo{Key: key, Size: attrs.Size}, nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := b.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return nil, classify(err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", objectstore.ErrTransient, err)
	}
	return data, nil
}

func (b *Backend) GetRange(ctx context.Context, key string, start int64) ([]byte, error) {
	r, err := b.bucket.Object(key).NewRangeReader(ctx, start, -1)
	if err != nil {
		return nil, classify(err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", objectstore.ErrTransient, err)
	}
	return data, nil
}
