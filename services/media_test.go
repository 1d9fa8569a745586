package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a 1x1 transparent PNG
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestLocalStoreSaveImage(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "/media")

	key, err := SaveImage(context.Background(), store, bytes.NewReader(pngPixel))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, ImagePrefix+"/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	written, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, pngPixel, written)
	assert.Equal(t, "/media/"+key, store.URL(key))
	assert.Empty(t, store.URL(""))

	require.NoError(t, store.Delete(context.Background(), key))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.NoError(t, store.Delete(context.Background(), key), "deleting twice is not an error")
}

func TestSaveImageRejectsNonImages(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/media/")
	_, err := SaveImage(context.Background(), store, strings.NewReader("<html>not an image</html>"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	big := append(append([]byte{}, pngPixel...), make([]byte, MaxImageSize)...)
	_, err = SaveImage(context.Background(), store, bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/media/")
	err := store.Save(context.Background(), "../outside.png", "image/png", bytes.NewReader(pngPixel))
	assert.Error(t, err)
}

type fakeS3 struct {
	puts    map[string][]byte
	types   map[string]string
	deleted []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[aws.ToString(in.Key)] = body
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	client := &fakeS3{puts: map[string][]byte{}, types: map[string]string{}}
	store := NewS3Store(client, "blog-media", "/uploads/", "https://cdn.example.com/")

	key, err := SaveImage(context.Background(), store, bytes.NewReader(pngPixel))
	require.NoError(t, err)

	objectKey := "uploads/" + key
	assert.Equal(t, pngPixel, client.puts[objectKey])
	assert.Equal(t, "image/png", client.types[objectKey])
	assert.Equal(t, "https://cdn.example.com/"+objectKey, store.URL(key))

	require.NoError(t, store.Delete(context.Background(), key))
	assert.Equal(t, []string{objectKey}, client.deleted)
}

func TestNewMediaStore(t *testing.T) {
	store, err := NewMediaStore(context.Background(), map[string]string{"MEDIA_ROOT": "/srv/media", "MEDIA_URL": "/m/"})
	require.NoError(t, err)
	local, ok := store.(*LocalStore)
	require.True(t, ok)
	assert.Equal(t, "/srv/media", local.Root())

	_, err = NewMediaStore(context.Background(), map[string]string{"MEDIA_BACKEND": "s3"})
	assert.ErrorContains(t, err, "S3_BUCKET")

	_, err = NewMediaStore(context.Background(), map[string]string{"MEDIA_BACKEND": "ftp"})
	assert.ErrorContains(t, err, "unsupported MEDIA_BACKEND")
}
