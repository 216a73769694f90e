package storage

import (
	"context"
	"io"
	"testing"

	"github.com/postboard/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURLs(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/photos",
		minioPublicURL(config.MinioConfig{Endpoint: "localhost:9000", Bucket: "photos"}))
	assert.Equal(t, "https://s3.local/photos",
		minioPublicURL(config.MinioConfig{Endpoint: "s3.local", Bucket: "photos", UseSSL: true}))
	assert.Equal(t, "https://cdn.example.com",
		minioPublicURL(config.MinioConfig{Endpoint: "s3.local", Bucket: "photos", PublicURL: "https://cdn.example.com"}))
	assert.Equal(t, "https://storage.googleapis.com/photos",
		gcsPublicURL(config.GCSConfig{Bucket: "photos"}))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://cdn/a/b.png", joinURL("https://cdn/", "/a/b.png"))
	assert.Equal(t, "https://cdn/a/b.png", joinURL("https://cdn", "a/b.png"))
}

func TestNewMinioClientRequiresConfig(t *testing.T) {
	_, err := NewMinioClient(config.MinioConfig{})
	assert.EqualError(t, err, "minio endpoint is required")

	_, err = NewMinioClient(config.MinioConfig{Endpoint: "localhost:9000"})
	assert.EqualError(t, err, "minio access key and secret key are required")

	_, err = NewMinioClient(config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.EqualError(t, err, "minio bucket is required")
}

func TestMinioClientURL(t *testing.T) {
	client, err := NewMinioClient(config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "photos",
	})
	require.NoError(t, err)

	s := NewStorage(client)
	assert.Equal(t, "photos", client.Bucket())
	assert.Equal(t, "http://localhost:9000/photos/profile-photos/1/a.png", s.URL("profile-photos/1/a.png"))
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = Open(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.EqualError(t, err, `unknown storage backend "ftp"`)
}

type closeRecorder struct {
	closed int
}

func (c *closeRecorder) EnsureBucket(context.Context) error { return nil }

func (c *closeRecorder) Put(context.Context, string, io.Reader, int64, string) error { return nil }

func (c *closeRecorder) Delete(context.Context, string) error { return nil }

func (c *closeRecorder) URL(key string) string { return key }

func (c *closeRecorder) Bucket() string { return "photos" }

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestStorageCloseReleasesBackend(t *testing.T) {
	backend := &closeRecorder{}
	s := NewStorage(backend)

	require.NoError(t, s.Close())
	assert.Equal(t, 1, backend.closed)
}
