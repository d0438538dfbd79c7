// Package blob issues direct-upload tickets for external object storage and
// removes objects once their media rows are gone.
package blob

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Kyz7/sitecms/internal/config"
	"github.com/google/uuid"
)

// Store is the narrow surface the media subsystem needs from a blob provider.
type Store interface {
	Provider() string
	SignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*UploadTicket, error)
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

// UploadTicket tells the browser how to PUT one object straight to the provider.
type UploadTicket struct {
	UploadURL string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ObjectKey string            `json:"objectKey"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

var AllowedContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/svg+xml",
	"image/avif",
	"video/mp4",
	"video/webm",
	"video/quicktime",
}

// NormalizeContentType lowercases ct and drops parameters such as charset.
func NormalizeContentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(ct); err == nil {
		return parsed
	}
	return strings.ToLower(ct)
}

func IsAllowedContentType(ct string) bool {
	ct = NormalizeContentType(ct)
	for _, allowed := range AllowedContentTypes {
		if ct == allowed {
			return true
		}
	}
	return false
}

// MediaType classifies a content type as "video" or "image".
func MediaType(ct string) string {
	if strings.HasPrefix(NormalizeContentType(ct), "video/") {
		return "video"
	}
	return "image"
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// ObjectKey builds media/YYYY/MM/<uuid><ext>. The client filename only
// contributes its extension.
func ObjectKey(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("media/%s/%s%s", now.UTC().Format("2006/01"), uuid.NewString(), ext)
}

// New builds the store selected by BLOB_PROVIDER. It returns nil when direct
// uploads are disabled.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.BlobProvider {
	case "", "none":
		return nil, nil
	case "s3":
		return NewS3Store(cfg.S3Bucket, cfg.S3Region, cfg.CloudFrontURL)
	case "minio":
		store, err := NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, cfg.MinioPublicURL)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "gcs":
		return NewGCSStore(cfg.GCSBucket, cfg.GCSSigningEmail, cfg.GCSSigningPrivateKey), nil
	default:
		return nil, fmt.Errorf("unsupported blob provider %q", cfg.BlobProvider)
	}
}
