package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"cardshop/internal/auth"
	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/repository"
)

const bcryptCost = 10

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=72"`
	Name     string `validate:"required,max=255"`
}

// TokenPair is returned by a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *model.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, session *auth.Session, refreshToken string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, logger *zap.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		logger:     logger,
	}
}

// Register creates a new user with a hashed password. The very first user
// of the shop becomes its admin.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.ToLower(strings.TrimSpace(in.Name))
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: string(hashedPassword),
	}

	err = s.userRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if _, err := repo.FindByEmail(ctx, user.Email); err == nil {
			return apperrors.ErrUserAlreadyExists
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("check user existence: %w", err)
		}

		count, err := repo.Count(ctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if count == 0 {
			user.Admin = 1
		}
		return repo.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrUserAlreadyExists) {
			return nil, apperrors.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if user.IsAdmin() {
		s.logger.Info("first user registered as admin", zap.String("user_id", user.ID))
	}
	return user, nil
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, apperrors.ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		return nil, nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	session := sessionFor(user)
	accessToken, err := s.issueAccessToken(ctx, session)
	if err != nil {
		return nil, nil, err
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(session)
	if err != nil {
		return nil, nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, auth.RefreshTokenExpiry); err != nil {
		return nil, nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, user, nil
}

// RefreshToken validates a refresh token and returns a new access token.
// The user is reloaded so that admin changes apply without a new login.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}

	storedUserID, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil || storedUserID != claims.UserID {
		return "", apperrors.ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}

	return s.issueAccessToken(ctx, sessionFor(user))
}

// issueAccessToken signs an access token and tracks it under its user, so a
// change of the admin flag can revoke it.
func (s *authService) issueAccessToken(ctx context.Context, session *auth.Session) (string, error) {
	tokenID, accessToken, err := s.jwtService.IssueAccessToken(session)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	if err := s.tokenStore.TrackAccessToken(ctx, session.UserID, tokenID, auth.AccessTokenExpiry); err != nil {
		return "", fmt.Errorf("track access token: %w", err)
	}
	return accessToken, nil
}

// Logout invalidates the refresh token and blacklists the access token of
// the current session until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, session *auth.Session, refreshToken string) error {
	if refreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
		if err != nil {
			return apperrors.ErrInvalidRefreshToken
		}
		if session != nil && claims.UserID != session.UserID {
			return apperrors.ErrInvalidRefreshToken
		}
		if err := s.tokenStore.DeleteRefreshToken(ctx, claims.ID); err != nil {
			return fmt.Errorf("delete refresh token: %w", err)
		}
	}

	if session != nil && session.Claims != nil {
		if err := s.tokenStore.BlacklistAccessToken(ctx, session.TokenID, auth.RemainingTTL(session.Claims)); err != nil {
			return fmt.Errorf("blacklist access token: %w", err)
		}
	}
	return nil
}

func sessionFor(user *model.User) *auth.Session {
	return &auth.Session{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Admin:  user.Admin,
	}
}
