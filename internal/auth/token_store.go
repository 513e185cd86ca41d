package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cardshop/internal/cache"
)

const (
	refreshTokenKeyPrefix = "refresh_token:"
	accessTokenKeyPrefix  = "blacklist:access_token:"
	userAccessKeyPrefix   = "access_tokens:user:"
)

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID, userID string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (userID string, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
	TrackAccessToken(ctx context.Context, userID, tokenID string, ttl time.Duration) error
	RevokeUserAccessTokens(ctx context.Context, userID string) error
}

// TokenStore handles storage and retrieval of tokens in Redis.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

type refreshTokenData struct {
	UserID string `json:"user_id"`
}

// StoreRefreshToken stores a refresh token in Redis with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	payload, err := json.Marshal(refreshTokenData{UserID: userID})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl)
}

// GetRefreshToken retrieves the owner of a refresh token from Redis.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (string, error) {
	data, err := s.cache.Get(ctx, refreshTokenKeyPrefix+tokenID)
	if err != nil || data == nil {
		return "", fmt.Errorf("refresh token not found")
	}

	var tokenData refreshTokenData
	if err := json.Unmarshal(data, &tokenData); err != nil {
		return "", fmt.Errorf("unmarshal token data: %w", err)
	}
	if tokenData.UserID == "" {
		return "", fmt.Errorf("invalid user_id in token data")
	}
	return tokenData.UserID, nil
}

// DeleteRefreshToken removes a refresh token from Redis.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshTokenKeyPrefix+tokenID)
}

// BlacklistAccessToken adds an access token to the blacklist until it expires.
func (s *TokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, accessTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsAccessTokenBlacklisted checks if an access token is blacklisted. A redis
// failure is returned as an error, not as "not blacklisted".
func (s *TokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	return s.cache.Exists(ctx, accessTokenKeyPrefix+tokenID)
}

// TrackAccessToken records an issued access token under its user so it can
// be revoked when the user's rights change.
func (s *TokenStore) TrackAccessToken(ctx context.Context, userID, tokenID string, ttl time.Duration) error {
	return s.cache.AddToSet(ctx, userAccessKeyPrefix+userID, tokenID, ttl)
}

// RevokeUserAccessTokens blacklists every tracked access token of the user.
func (s *TokenStore) RevokeUserAccessTokens(ctx context.Context, userID string) error {
	key := userAccessKeyPrefix + userID
	tokenIDs, err := s.cache.Members(ctx, key)
	if err != nil {
		return fmt.Errorf("list access tokens: %w", err)
	}
	for _, tokenID := range tokenIDs {
		if err := s.BlacklistAccessToken(ctx, tokenID, AccessTokenExpiry); err != nil {
			return fmt.Errorf("blacklist access token: %w", err)
		}
	}
	return s.cache.Delete(ctx, key)
}
