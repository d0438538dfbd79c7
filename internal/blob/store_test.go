package blob

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"regexp"
	"testing"
	"time"

	"github.com/Kyz7/sitecms/internal/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^media/2024/03/[0-9a-f-]{36}\.mp4$`)

	assert.Regexp(t, pattern, ObjectKey("Launch Video.MP4", now))
	assert.Regexp(t, regexp.MustCompile(`^media/2024/03/[0-9a-f-]{36}$`), ObjectKey("../../etc/passwd", now))
	assert.NotEqual(t, ObjectKey("a.png", now), ObjectKey("a.png", now))
}

func TestAllowList(t *testing.T) {
	assert.True(t, IsAllowedContentType("image/png"))
	assert.True(t, IsAllowedContentType("Video/MP4"))
	assert.True(t, IsAllowedContentType("image/svg+xml; charset=utf-8"))
	assert.False(t, IsAllowedContentType("application/pdf"))
	assert.False(t, IsAllowedContentType("text/html"))
	assert.False(t, IsAllowedContentType(""))

	assert.Equal(t, "video", MediaType("video/webm"))
	assert.Equal(t, "image", MediaType("image/avif"))
}

func TestS3SignUpload(t *testing.T) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String("eu-west-1"),
		Credentials: credentials.NewStaticCredentials("AKIDEXAMPLE", "secret", ""),
	})
	require.NoError(t, err)

	store := NewS3StoreWithSession(sess, "site-media", "eu-west-1", "")
	ticket, err := store.SignUpload(context.Background(), "media/2024/03/abc.png", "image/png", 15*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "PUT", ticket.Method)
	assert.Equal(t, "image/png", ticket.Headers["Content-Type"])
	assert.Contains(t, ticket.UploadURL, "site-media")
	assert.Contains(t, ticket.UploadURL, "media/2024/03/abc.png")
	assert.Contains(t, ticket.UploadURL, "X-Amz-Signature")
	assert.Equal(t, "https://site-media.s3.eu-west-1.amazonaws.com/media/2024/03/abc.png", store.PublicURL("media/2024/03/abc.png"))

	cdn := NewS3StoreWithSession(sess, "site-media", "eu-west-1", "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/media/x.png", cdn.PublicURL("media/x.png"))
}

func TestMinioSignUpload(t *testing.T) {
	store, err := NewMinioStore("localhost:9000", "minio", "minio-secret", "media", false, "")
	require.NoError(t, err)

	ticket, err := store.SignUpload(context.Background(), "media/2024/03/clip.mp4", "video/mp4", time.Minute)
	require.NoError(t, err)

	assert.Contains(t, ticket.UploadURL, "http://localhost:9000/media/media/2024/03/clip.mp4")
	assert.Contains(t, ticket.UploadURL, "X-Amz-Signature")
	assert.Equal(t, "http://localhost:9000/media/media/2024/03/clip.mp4", store.PublicURL("media/2024/03/clip.mp4"))
}

func TestGCSSignUpload(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	store := NewGCSStore("site-media", "uploader@project.iam.gserviceaccount.com", string(pemKey))
	ticket, err := store.SignUpload(context.Background(), "media/2024/03/photo.webp", "image/webp", 10*time.Minute)
	require.NoError(t, err)

	assert.Contains(t, ticket.UploadURL, "https://storage.googleapis.com/site-media/media/2024/03/photo.webp")
	assert.Contains(t, ticket.UploadURL, "X-Goog-Signature")
	assert.Equal(t, "gcs", store.Provider())
}

func TestNewDisabled(t *testing.T) {
	store, err := New(context.Background(), config.Default())
	assert.NoError(t, err)
	assert.Nil(t, store)
}
