// Package s3 is the primary objectstore.Backend, implemented over
// AWS's aws-sdk-go-v2 S3 client.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"vkp/internal/objectstore"
)

// Backend is an objectstore.Backend over a single S3 bucket.
type Backend struct {
	client *s3.Client
	bucket string
}

var _ objectstore.Backend = (*Backend)(nil)

// New builds a Backend for bucket using the default AWS credential
// chain (environment, shared config, instance role). Absence of
// credentials or of the bucket surfaces as objectstore.ErrUnreachable
// on first use, per §4.6.
func New(ctx context.Context, bucket, region string) (*Backend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", objectstore.ErrUnreachable, err)
	}
	return &Backend{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// classify maps an S3/smithy error onto the objectstore error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %v", objectstore.ErrNotFound, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", objectstore.ErrNotFound, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %v", objectstore.ErrUnauthorized, err)
		}
	}
	return fmt.Errorf("%w: %v", objectstore.ErrTransient, err)
}

func (b *Backend) ListAll(ctx context.Context) ([]objectstore.ObjectInfo, error) {
	var out []objectstore.ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err)
		}
		for _, obj := range page.Contents {
			out = append(out, objectstore.ObjectInfo{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}
	return out, nil
}

func (b *Backend) Head(ctx context.Context, key string) (objectstore.ObjectInfo, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return objectstore.ObjectInfo{}, classify(err)
	}
	return objectstore.ObjectInfo{Key: key, Size: aws.ToInt64(out.ContentLength)}, nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classify(err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", objectstore.ErrTransient, err)
	}
	return data, nil
}

func (b *Backend) GetRange(ctx context.Context, key string, start int64) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-", start)),
	})
	if err != nil {
		return nil, classify(err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", objectstore.ErrTransient, err)
	}
	return data, nil
}
