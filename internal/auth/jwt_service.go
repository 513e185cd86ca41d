package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// AccessTokenExpiry is the duration for which access tokens are valid.
	AccessTokenExpiry = 15 * time.Minute
	// RefreshTokenExpiry is the duration for which refresh tokens are valid.
	RefreshTokenExpiry = 7 * 24 * time.Hour

	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Claims represents JWT claims. They carry everything a Session needs.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Admin  int    `json:"admin"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// Session returns the identity described by the claims.
func (c *Claims) Session() *Session {
	return &Session{
		UserID:  c.UserID,
		Email:   c.Email,
		Name:    c.Name,
		Admin:   c.Admin,
		TokenID: c.ID,
		Claims:  c,
	}
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
	}
}

// Secret returns the signing key.
func (s *JWTService) Secret() []byte {
	return s.secret
}

// GenerateAccessToken generates a new access token for the session.
func (s *JWTService) GenerateAccessToken(session *Session) (string, error) {
	_, token, err := s.IssueAccessToken(session)
	return token, err
}

// IssueAccessToken is GenerateAccessToken that also returns the token ID,
// for callers that track issued tokens.
func (s *JWTService) IssueAccessToken(session *Session) (tokenID string, token string, err error) {
	claims := s.claims(session, kindAccess, AccessTokenExpiry)
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return claims.ID, token, err
}

// GenerateRefreshToken generates a new refresh token for the session.
// The refresh token ID is returned separately for storage in Redis.
func (s *JWTService) GenerateRefreshToken(session *Session) (tokenID string, token string, err error) {
	claims := s.claims(session, kindRefresh, RefreshTokenExpiry)
	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = tokenObj.SignedString(s.secret)
	return claims.ID, token, err
}

func (s *JWTService) claims(session *Session, kind string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		UserID: session.UserID,
		Email:  session.Email,
		Name:   session.Name,
		Admin:  session.Admin,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   session.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ID == "" || claims.UserID == "" {
		return nil, errors.New("token is missing identifiers")
	}

	return claims, nil
}

// ValidateAccessToken validates a token and requires it to be an access token.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kindAccess {
		return nil, errors.New("not an access token")
	}
	return claims, nil
}

// ValidateRefreshToken validates a token and requires it to be a refresh token.
func (s *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kindRefresh {
		return nil, errors.New("not a refresh token")
	}
	return claims, nil
}

// RemainingTTL returns how long the claims stay valid, or zero when expired.
func RemainingTTL(claims *Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 0 {
		return 0
	}
	return ttl
}
