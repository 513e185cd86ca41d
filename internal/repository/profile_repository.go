package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cardshop/internal/model"
)

// ProfileRepository defines shipping profile persistence.
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Upsert(ctx context.Context, profile *model.Profile) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, wrapError(err)
	}
	return &profile, nil
}

// Upsert creates the profile on first save and overwrites the address afterwards.
func (r *profileRepository) Upsert(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "address", "postal_code", "city", "country", "updated_at"}),
	}).Create(profile).Error
}
