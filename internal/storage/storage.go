// Package storage keeps uploaded images in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"cardshop/internal/config"
	apperrors "cardshop/internal/errors"
)

const (
	metaOwner  = "owner"
	metaPublic = "public"
)

// ObjectInfo is the ownership recorded with an uploaded object. Public
// objects may be read by any signed-in user.
type ObjectInfo struct {
	Owner  string
	Public bool
}

// Store saves objects and hands out time-limited read URLs.
type Store interface {
	Upload(ctx context.Context, info ObjectInfo, data []byte, contentType string) (contentID string, err error)
	Stat(ctx context.Context, contentID string) (*ObjectInfo, error)
	SignedURL(ctx context.Context, contentID string, ttl time.Duration) (string, error)
}

// MinioStore implements Store on a single bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

var _ Store = (*MinioStore)(nil)

// NewMinioStore connects to the configured endpoint.
func NewMinioStore(cfg *config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Upload stores data under a fresh UUID and returns it as the content id.
// The owner and visibility travel as object metadata.
func (s *MinioStore) Upload(ctx context.Context, info ObjectInfo, data []byte, contentType string) (string, error) {
	contentID := uuid.NewString()
	_, err := s.client.PutObject(ctx, s.bucket, contentID, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			metaOwner:  info.Owner,
			metaPublic: strconv.FormatBool(info.Public),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: put object: %v", apperrors.ErrUpstream, err)
	}
	return contentID, nil
}

// Stat reads the ownership metadata of an object.
func (s *MinioStore) Stat(ctx context.Context, contentID string) (*ObjectInfo, error) {
	if err := checkContentID(contentID); err != nil {
		return nil, err
	}
	obj, err := s.client.StatObject(ctx, s.bucket, contentID, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: image %s", apperrors.ErrNotFound, contentID)
		}
		return nil, fmt.Errorf("%w: stat object: %v", apperrors.ErrUpstream, err)
	}

	info := &ObjectInfo{}
	// minio canonicalizes metadata keys, so match without case
	for key, value := range obj.UserMetadata {
		switch strings.ToLower(key) {
		case metaOwner:
			info.Owner = value
		case metaPublic:
			info.Public, _ = strconv.ParseBool(value)
		}
	}
	return info, nil
}

// SignedURL presigns a GET for the object.
func (s *MinioStore) SignedURL(ctx context.Context, contentID string, ttl time.Duration) (string, error) {
	if err := checkContentID(contentID); err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, contentID, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: presign: %v", apperrors.ErrUpstream, err)
	}
	return u.String(), nil
}

func checkContentID(contentID string) error {
	if _, err := uuid.Parse(contentID); err != nil {
		return fmt.Errorf("%w: malformed content id", apperrors.ErrValidation)
	}
	return nil
}
