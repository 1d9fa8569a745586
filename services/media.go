package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/google/uuid"
	"github.com/rpupo63/blogicum/config"
)

const (
	// ImagePrefix is the key prefix under which post images are stored.
	ImagePrefix  = "post_img"
	MaxImageSize = 5 << 20
)

var (
	ErrUnsupportedImage = errors.New("file is not a supported image")
	ErrImageTooLarge    = errors.New("image exceeds 5 MB")
)

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaStore persists uploaded files and resolves their public URLs.
type MediaStore interface {
	Save(ctx context.Context, key, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// SaveImage sniffs the upload, rejects anything that is not an image of at
// most MaxImageSize bytes and stores it under a fresh key, which is returned.
func SaveImage(ctx context.Context, store MediaStore, body io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageTypes[contentType]
	if !ok {
		return "", ErrUnsupportedImage
	}

	key := path.Join(ImagePrefix, uuid.NewString()+ext)
	if err := store.Save(ctx, key, contentType, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return key, nil
}

// NewMediaStore picks the backend named by MEDIA_BACKEND.
func NewMediaStore(ctx context.Context, c map[string]string) (MediaStore, error) {
	switch backend := config.GetString(c, "MEDIA_BACKEND", "local"); backend {
	case "local":
		return NewLocalStore(
			config.GetString(c, "MEDIA_ROOT", "media"),
			config.GetString(c, "MEDIA_URL", "/media/"),
		), nil
	case "s3":
		bucket := config.GetString(c, "S3_BUCKET", "")
		if bucket == "" {
			return nil, errors.New("S3_BUCKET is required for the s3 media backend")
		}
		client, err := NewS3Client(ctx, config.GetString(c, "AWS_REGION", ""))
		if err != nil {
			return nil, err
		}
		publicURL := config.GetString(c, "S3_PUBLIC_URL", fmt.Sprintf("https://%s.s3.amazonaws.com", bucket))
		return NewS3Store(client, bucket, config.GetString(c, "S3_PREFIX", ""), publicURL), nil
	default:
		return nil, fmt.Errorf("unsupported MEDIA_BACKEND %q", backend)
	}
}
