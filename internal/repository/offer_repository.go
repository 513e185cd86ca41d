package repository

import (
	"context"

	"gorm.io/gorm"

	"cardshop/internal/model"
)

// OfferRepository defines resale offer persistence operations.
type OfferRepository interface {
	Create(ctx context.Context, offer *model.Offer) error
	FindByID(ctx context.Context, id string) (*model.Offer, error)
	ListByUser(ctx context.Context, userID string) ([]model.Offer, error)
	List(ctx context.Context, status model.OfferStatus) ([]model.Offer, error)
	// UpdateFields applies fields if the stored version equals version.
	UpdateFields(ctx context.Context, id string, version int, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type offerRepository struct {
	db *gorm.DB
}

// NewOfferRepository creates a new offer repository.
func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) Create(ctx context.Context, offer *model.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *offerRepository) FindByID(ctx context.Context, id string) (*model.Offer, error) {
	var offer model.Offer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&offer).Error; err != nil {
		return nil, wrapError(err)
	}
	return &offer, nil
}

func (r *offerRepository) ListByUser(ctx context.Context, userID string) ([]model.Offer, error) {
	var offers []model.Offer
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// List returns all offers newest first, optionally in one status.
func (r *offerRepository) List(ctx context.Context, status model.OfferStatus) ([]model.Offer, error) {
	var offers []model.Offer
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *offerRepository) UpdateFields(ctx context.Context, id string, version int, fields map[string]interface{}) error {
	return updateVersioned(ctx, r.db, &model.Offer{}, id, version, fields)
}

func (r *offerRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, &model.Offer{}, id)
}
