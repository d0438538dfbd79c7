package blob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type S3Store struct {
	svc           *s3.S3
	bucket        string
	region        string
	cloudFrontURL string
}

func NewS3Store(bucket, region, cloudFrontURL string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 session: %w", err)
	}
	return NewS3StoreWithSession(sess, bucket, region, cloudFrontURL), nil
}

func NewS3StoreWithSession(sess *session.Session, bucket, region, cloudFrontURL string) *S3Store {
	return &S3Store{
		svc:           s3.New(sess),
		bucket:        bucket,
		region:        region,
		cloudFrontURL: strings.TrimRight(cloudFrontURL, "/"),
	}
}

func (s *S3Store) Provider() string { return "s3" }

// SignUpload presigns a PUT bound to contentType; S3 rejects a different header.
func (s *S3Store) SignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*UploadTicket, error) {
	req, _ := s.svc.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	req.SetContext(ctx)

	url, err := req.Presign(ttl)
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	return &UploadTicket{
		UploadURL: url,
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": contentType},
		ObjectKey: key,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func (s *S3Store) PublicURL(key string) string {
	if s.cloudFrontURL != "" {
		return s.cloudFrontURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
