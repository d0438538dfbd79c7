package blob

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
)

// GCSStore signs V4 upload URLs with a service-account key. Deletes go through
// a client built from application default credentials on first use.
type GCSStore struct {
	bucket     string
	email      string
	privateKey []byte

	once      sync.Once
	client    *storage.Client
	clientErr error
}

func NewGCSStore(bucket, serviceAccountEmail, privateKey string) *GCSStore {
	// keys from env often carry literal \n sequences
	key := strings.ReplaceAll(privateKey, `\n`, "\n")
	return &GCSStore{
		bucket:     bucket,
		email:      serviceAccountEmail,
		privateKey: []byte(key),
	}
}

func (g *GCSStore) Provider() string { return "gcs" }

func (g *GCSStore) SignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*UploadTicket, error) {
	expires := time.Now().Add(ttl)
	url, err := storage.SignedURL(g.bucket, key, &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "PUT",
		ContentType:    contentType,
		Expires:        expires,
		GoogleAccessID: g.email,
		PrivateKey:     g.privateKey,
	})
	if err != nil {
		return nil, fmt.Errorf("sign gcs upload: %w", err)
	}

	return &UploadTicket{
		UploadURL: url,
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": contentType},
		ObjectKey: key,
		ExpiresAt: expires,
	}, nil
}

func (g *GCSStore) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, key)
}

func (g *GCSStore) Delete(ctx context.Context, key string) error {
	g.once.Do(func() {
		g.client, g.clientErr = storage.NewClient(context.Background())
	})
	if g.clientErr != nil {
		return fmt.Errorf("init gcs client: %w", g.clientErr)
	}

	if err := g.client.Bucket(g.bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
