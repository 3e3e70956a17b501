package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// Azure stores objects as blobs in one container.
type Azure struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger
}

// NewAzure creates the client and makes sure the container exists.
func NewAzure(ctx context.Context, connectionString, container string, logger *slog.Logger) (*Azure, error) {
	if container == "" {
		container = "ocr-images"
	}
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("media: create blob client: %w", err)
	}
	if _, err := client.CreateContainer(ctx, container, nil); err != nil {
		if !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return nil, fmt.Errorf("media: create container %s: %w", container, err)
		}
	}
	logger = logger.With("system", "media")
	logger.Info("media.azblob.ready", "container", container)
	return &Azure{client: client, container: container, logger: logger}, nil
}

func (a *Azure) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}
	if _, err := a.client.UploadStream(ctx, a.container, key, bytes.NewReader(data), opts); err != nil {
		return "", fmt.Errorf("media: upload blob %s: %w", key, err)
	}
	return strings.TrimRight(a.client.URL(), "/") + "/" + a.container + "/" + key, nil
}

func (a *Azure) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("media: download blob %s: %w", key, err)
	}
	return resp.Body, nil
}
