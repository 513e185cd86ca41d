package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardshop/internal/cache"
)

func newTestTokenStore(t *testing.T) (*TokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	return NewTokenStore(client), mr
}

func TestTokenStore_RefreshTokens(t *testing.T) {
	store, mr := newTestTokenStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreRefreshToken(ctx, "jti-1", "user-1", time.Hour))
	userID, err := store.GetRefreshToken(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	require.NoError(t, store.DeleteRefreshToken(ctx, "jti-1"))
	_, err = store.GetRefreshToken(ctx, "jti-1")
	assert.Error(t, err)

	require.NoError(t, store.StoreRefreshToken(ctx, "jti-2", "user-1", time.Minute))
	mr.FastForward(2 * time.Minute)
	_, err = store.GetRefreshToken(ctx, "jti-2")
	assert.Error(t, err)
}

func TestTokenStore_Blacklist(t *testing.T) {
	store, _ := newTestTokenStore(t)
	ctx := context.Background()

	blacklisted, err := store.IsAccessTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, blacklisted)

	require.NoError(t, store.BlacklistAccessToken(ctx, "jti-1", time.Minute))
	blacklisted, err = store.IsAccessTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, blacklisted)

	// already expired tokens need no entry
	require.NoError(t, store.BlacklistAccessToken(ctx, "jti-2", 0))
	blacklisted, err = store.IsAccessTokenBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, blacklisted)
}

func TestTokenStore_RevokeUserAccessTokens(t *testing.T) {
	store, mr := newTestTokenStore(t)
	ctx := context.Background()

	require.NoError(t, store.TrackAccessToken(ctx, "user-1", "jti-a", AccessTokenExpiry))
	require.NoError(t, store.TrackAccessToken(ctx, "user-1", "jti-b", AccessTokenExpiry))
	require.NoError(t, store.TrackAccessToken(ctx, "user-2", "jti-c", AccessTokenExpiry))

	require.NoError(t, store.RevokeUserAccessTokens(ctx, "user-1"))

	for _, jti := range []string{"jti-a", "jti-b"} {
		blacklisted, err := store.IsAccessTokenBlacklisted(ctx, jti)
		require.NoError(t, err)
		assert.True(t, blacklisted, jti)
	}
	blacklisted, err := store.IsAccessTokenBlacklisted(ctx, "jti-c")
	require.NoError(t, err)
	assert.False(t, blacklisted)
	assert.False(t, mr.Exists(userAccessKeyPrefix+"user-1"))

	// nothing tracked is a no-op
	assert.NoError(t, store.RevokeUserAccessTokens(ctx, "user-3"))
}

func TestTokenStore_BlacklistLookupFailure(t *testing.T) {
	client := cache.NewFromRedis(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}))
	t.Cleanup(func() { _ = client.Close() })
	store := NewTokenStore(client)

	_, err := store.IsAccessTokenBlacklisted(context.Background(), "jti-1")
	assert.Error(t, err)
	assert.Error(t, store.RevokeUserAccessTokens(context.Background(), "user-1"))
}
