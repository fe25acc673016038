// Package azureblob is an objectstore.Backend over Azure Blob Storage.
package azureblob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"vkp/internal/objectstore"
)

// Backend is an objectstore.Backend over a single Azure Blob container.
type Backend struct {
	client *azblob.Client
	ctr    string
}

var _ objectstore.Backend = (*Backend)(nil)

// New builds a Backend for containerName at serviceURL
// (https://{account}.blob.core.windows.net) using the default Azure
// credential chain.
func New(serviceURL, containerName string) (*Backend, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: default azure credential: %v", objectstore.ErrUnreachable, err)
	}
	client, err := azblob.NewClient(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: new azblob client: %v", objectstore.ErrUnreachable, err)
	}
	return &Backend{client: client, ctr: containerName}, nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound):
		return fmt.Errorf("%w: %v", objectstore.ErrNotFound, err)
	case bloberror.HasCode(err, bloberror.AuthenticationFailed, bloberror.InsufficientAccountPermissions, bloberror.AuthorizationFailure):
		return fmt.Errorf("%w: %v", objectstore.ErrUnauthorized, err)
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		if respErr.StatusCode == 404 {
			return fmt.Errorf("%w: %v", objectstore.ErrNotFound, err)
		}
		if respErr.StatusCode == 401 || respErr.StatusCode == 403 {
			return fmt.Errorf("%w: %v", objectstore.ErrUnauthorized, err)
		}
	}
	return fmt.Errorf("%w: %v", objectstore.ErrTransient, err)
}

func (b *Backend) ListAll(ctx context.Context) ([]objectstore.ObjectInfo, error) {
	var out []objectstore.ObjectInfo
	pager := b.client.NewListBlobsFlatPager(b.ctr, &container.ListBlobsFlatOptions{})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classify(err)
		}
		for _, item := range page.Segment.BlobItems {
			var size int64
			if item.Properties != nil && item.Properties.ContentLength != nil {
				size = *item.Properties.ContentLength
			}
			out = append(out, objectstore.ObjectInfo{Key: *item.Name, Size: size})
		}
	}
	return out, nil
}

func (b *Backend) Head(ctx context.Context, key string) (objectstore.ObjectInfo, error) {
	props, err := b.client.ServiceClient().NewContainerClient(b.ctr).NewBlobClient(key).GetProperties(ctx, nil)
	if err != nil {
		return objectstore.ObjectInfo{}, classify(err)
	}
	var size int64
	if props.ContentLength != nil {
		size = *props.ContentLength
	}
	return objectstore.ObjectInfo{Key: key, Size: size}, nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := b.client.DownloadStream(ctx, b.ctr, key, nil)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", objectstore.ErrTransient, err)
	}
	return data, nil
}

func (b *Backend) GetRange(ctx context.Context, key string, start int64) ([]byte, error) {
	resp, err := b.client.DownloadStream(ctx, b.ctr, key, &azblob.DownloadStreamOptions{
		Range: azblob.HTTPRange{Offset: start},
	})
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("%w: read body: %v", objectstore.ErrTransient, err)
	}
	return buf.Bytes(), nil
}
