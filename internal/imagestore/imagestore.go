// Package imagestore keeps post images in an external object store.
package imagestore

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/models"
)

// MaxImageBytes caps a single upload.
const MaxImageBytes = 10 << 20

// Store persists image bytes and returns a reference usable in a post.
type Store interface {
	Put(ctx context.Context, upload models.NewImageUpload) (*models.Image, error)
	// Release removes an asset. Releasing a missing asset is not an error.
	Release(ctx context.Context, assetID string) error
}

// Inspect validates upload as a decodable image and reports its geometry.
func Inspect(upload models.NewImageUpload) (width, height int, format string, err error) {
	if len(upload.Data) == 0 {
		return 0, 0, "", apperr.BadRequest("Image is empty")
	}
	if len(upload.Data) > MaxImageBytes {
		return 0, 0, "", apperr.BadRequest("Image exceeds 10MB")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(upload.Data))
	if err != nil {
		return 0, 0, "", apperr.BadRequest("Unsupported or corrupt image")
	}
	return cfg.Width, cfg.Height, format, nil
}

func contentType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
