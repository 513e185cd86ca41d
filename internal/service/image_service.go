package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"cardshop/internal/auth"
	apperrors "cardshop/internal/errors"
	"cardshop/internal/storage"
)

const (
	// MaxImageSize is the largest accepted upload.
	MaxImageSize = 5 << 20
	// DefaultImageURLTTL is how long a signed image URL stays valid.
	DefaultImageURLTTL = time.Hour
)

// ImageService stores card pictures.
type ImageService interface {
	Upload(ctx context.Context, session *auth.Session, data []byte, contentType string) (string, error)
	URL(ctx context.Context, session *auth.Session, contentID string) (string, error)
}

type imageService struct {
	store storage.Store
	ttl   time.Duration
}

// NewImageService creates an image service. A zero ttl uses DefaultImageURLTTL.
func NewImageService(store storage.Store, ttl time.Duration) ImageService {
	if ttl <= 0 {
		ttl = DefaultImageURLTTL
	}
	return &imageService{store: store, ttl: ttl}
}

// Upload accepts images only. The declared type must agree with what the
// bytes look like.
func (s *imageService) Upload(ctx context.Context, session *auth.Session, data []byte, contentType string) (string, error) {
	if session == nil {
		return "", apperrors.ErrUnauthorized
	}
	if len(data) == 0 {
		return "", invalid("empty upload")
	}
	if len(data) > MaxImageSize {
		return "", invalid("image larger than %d bytes", MaxImageSize)
	}

	sniffed := http.DetectContentType(data)
	if !strings.HasPrefix(sniffed, "image/") {
		return "", invalid("unsupported content type %s", sniffed)
	}
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = sniffed
	}
	info := storage.ObjectInfo{Owner: session.UserID, Public: session.IsAdmin()}
	return s.store.Upload(ctx, info, data, contentType)
}

// URL signs a read URL for images the caller may see.
func (s *imageService) URL(ctx context.Context, session *auth.Session, contentID string) (string, error) {
	if session == nil {
		return "", apperrors.ErrUnauthorized
	}
	info, err := s.store.Stat(ctx, contentID)
	if err != nil {
		return "", err
	}
	if err := auth.CanViewImage(session, info.Owner, info.Public); err != nil {
		return "", err
	}
	return s.store.SignedURL(ctx, contentID, s.ttl)
}
