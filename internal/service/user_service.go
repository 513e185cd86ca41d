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

// ProfileInput is the shipping address a user saves before checkout.
type ProfileInput struct {
	FullName   string `validate:"required,max=255"`
	Address    string `validate:"required,max=255"`
	PostalCode int    `validate:"gt=0"`
	City       string `validate:"required,max=255"`
	Country    string `validate:"required,max=255"`
}

// UserService exposes account, profile and admin user operations.
type UserService interface {
	Me(ctx context.Context, session *auth.Session) (*model.User, error)
	UpdateName(ctx context.Context, session *auth.Session, name string) (*model.User, error)
	ChangePassword(ctx context.Context, session *auth.Session, current, next string) error
	GetProfile(ctx context.Context, session *auth.Session) (*model.Profile, error)
	SaveProfile(ctx context.Context, session *auth.Session, in ProfileInput) (*model.Profile, error)

	ListUsers(ctx context.Context) ([]model.User, error)
	SetAdmin(ctx context.Context, userID string, admin bool) (*model.User, error)
	AdjustPoints(ctx context.Context, userID string, delta int) (*model.User, error)
}

type userService struct {
	repo        repository.UserRepository
	profileRepo repository.ProfileRepository
	tokenStore  auth.TokenStoreInterface
	logger      *zap.Logger
}

// NewUserService builds a UserService. The token store is used to revoke
// live access tokens when an admin flag changes.
func NewUserService(
	repo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	tokenStore auth.TokenStoreInterface,
	logger *zap.Logger,
) UserService {
	return &userService{repo: repo, profileRepo: profileRepo, tokenStore: tokenStore, logger: logger}
}

func (s *userService) Me(ctx context.Context, session *auth.Session) (*model.User, error) {
	if session == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return s.repo.FindByID(ctx, session.UserID)
}

func (s *userService) UpdateName(ctx context.Context, session *auth.Session, name string) (*model.User, error) {
	user, err := s.Me(ctx, session)
	if err != nil {
		return nil, err
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || len(name) > 255 {
		return nil, invalid("name must be 1 to 255 characters")
	}
	if name == user.Name {
		return user, nil
	}
	if err := s.repo.UpdateFields(ctx, user.ID, user.Version, map[string]interface{}{"name": name}); err != nil {
		return nil, fmt.Errorf("update name: %w", err)
	}
	return s.repo.FindByID(ctx, user.ID)
}

func (s *userService) ChangePassword(ctx context.Context, session *auth.Session, current, next string) error {
	user, err := s.Me(ctx, session)
	if err != nil {
		return err
	}
	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
			return apperrors.ErrInvalidCredentials
		}
	}
	if len(next) < 8 || len(next) > 72 {
		return invalid("password must be 8 to 72 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdateFields(ctx, user.ID, user.Version, map[string]interface{}{"password_hash": string(hashed)}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// GetProfile returns the caller's profile, or nil when none was saved yet.
func (s *userService) GetProfile(ctx context.Context, session *auth.Session) (*model.Profile, error) {
	if session == nil {
		return nil, apperrors.ErrUnauthorized
	}
	profile, err := s.profileRepo.FindByUserID(ctx, session.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	return profile, err
}

func (s *userService) SaveProfile(ctx context.Context, session *auth.Session, in ProfileInput) (*model.Profile, error) {
	if session == nil {
		return nil, apperrors.ErrUnauthorized
	}
	in.FullName = strings.TrimSpace(in.FullName)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.Country = strings.TrimSpace(in.Country)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	profile := &model.Profile{
		UserID:     session.UserID,
		FullName:   in.FullName,
		Address:    in.Address,
		PostalCode: in.PostalCode,
		City:       in.City,
		Country:    in.Country,
	}
	if err := auth.CanEditProfile(session, profile); err != nil {
		return nil, err
	}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	// the upsert may have kept an existing row id, so read it back
	return s.profileRepo.FindByUserID(ctx, session.UserID)
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) SetAdmin(ctx context.Context, userID string, admin bool) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	flag := 0
	if admin {
		flag = 1
	}
	if user.Admin == flag {
		return user, nil
	}
	if err := s.repo.UpdateFields(ctx, user.ID, user.Version, map[string]interface{}{"admin": flag}); err != nil {
		return nil, fmt.Errorf("set admin: %w", err)
	}
	// Access tokens carry the admin flag; revoked ones force a refresh,
	// which reloads the user.
	if err := s.tokenStore.RevokeUserAccessTokens(ctx, user.ID); err != nil {
		s.logger.Warn("access tokens of user not revoked after admin change",
			zap.String("user_id", user.ID),
			zap.Int("admin", flag),
			zap.Error(err),
		)
	}
	return s.repo.FindByID(ctx, user.ID)
}

// AdjustPoints adds delta to the user's reward points. The balance never
// drops below zero.
func (s *userService) AdjustPoints(ctx context.Context, userID string, delta int) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Points+delta < 0 {
		return nil, invalid("points would become negative (%d%+d)", user.Points, delta)
	}
	if delta == 0 {
		return user, nil
	}
	if err := s.repo.UpdateFields(ctx, user.ID, user.Version, map[string]interface{}{"points": user.Points + delta}); err != nil {
		return nil, fmt.Errorf("adjust points: %w", err)
	}
	return s.repo.FindByID(ctx, user.ID)
}
