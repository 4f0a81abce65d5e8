package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// GCS stores images as objects in one bucket.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCS(client *storage.Client, bucket, prefix string) *GCS {
	return &GCS{client: client, bucket: bucket, prefix: prefix}
}

// Put uploads the image under a random object name. The object name is the asset id.
func (g *GCS) Put(ctx context.Context, upload models.NewImageUpload) (*models.Image, error) {
	width, height, format, err := Inspect(upload)
	if err != nil {
		return nil, err
	}

	objectPath := path.Join(g.prefix, uuid.NewString()+"."+format)
	wc := g.client.Bucket(g.bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType(format)
	wc.ChunkSize = 0 // single request for small files
	if _, err := io.Copy(wc, bytes.NewReader(upload.Data)); err != nil {
		_ = wc.Close()
		return nil, fmt.Errorf("upload %s: %w", objectPath, err)
	}
	if err := wc.Close(); err != nil {
		return nil, fmt.Errorf("upload %s: %w", objectPath, err)
	}

	return &models.Image{
		URL:     PublicURL(g.bucket, objectPath),
		AssetID: objectPath,
		Width:   width,
		Height:  height,
		Format:  format,
	}, nil
}

func (g *GCS) Release(ctx context.Context, assetID string) error {
	err := g.client.Bucket(g.bucket).Object(assetID).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

// PublicURL builds a public URL for an object (assuming public read access)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}
