package adapter

import (
	"context"
	"fmt"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

const downloadTokenKey = "firebaseStorageDownloadTokens"

// Storage is the interface for the blob store holding images and logos
type Storage interface {
	// Upload writes data at path, overwriting any existing object
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	// DownloadURL returns a durable URL for the object at path
	DownloadURL(ctx context.Context, path string) (string, error)
}

// storageClient implements Storage interface using Cloud Storage
type storageClient struct {
	bucketName string
	client     *storage.Client
}

// NewStorage creates a new Cloud Storage client
func NewStorage(ctx context.Context, bucketName string) (Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &storageClient{
		bucketName: bucketName,
		client:     client,
	}, nil
}

func (s *storageClient) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	obj := s.client.Bucket(s.bucketName).Object(path)
	writer := obj.NewWriter(ctx)
	writer.ContentType = contentType
	// Same metadata Firebase sets, so the web client can resolve the same URL
	writer.Metadata = map[string]string{
		downloadTokenKey: uuid.New().String(),
	}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return goerr.Wrap(err, "failed to write object", goerr.V("path", path))
	}
	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close object writer", goerr.V("path", path))
	}

	return nil
}

func (s *storageClient) DownloadURL(ctx context.Context, path string) (string, error) {
	obj := s.client.Bucket(s.bucketName).Object(path)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to get object attributes", goerr.V("path", path))
	}

	token := attrs.Metadata[downloadTokenKey]
	if token == "" {
		token = uuid.New().String()
		metadata := map[string]string{downloadTokenKey: token}
		if _, err := obj.Update(ctx, storage.ObjectAttrsToUpdate{Metadata: metadata}); err != nil {
			return "", goerr.Wrap(err, "failed to set download token", goerr.V("path", path))
		}
	}

	return DownloadURL(s.bucketName, path, token), nil
}

// DownloadURL formats the token-authorized URL Firebase Storage serves objects at
func DownloadURL(bucket, path, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(path), url.QueryEscape(token))
}
