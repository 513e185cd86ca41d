package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "cardshop/internal/errors"
)

// wrapError converts GORM errors to domain errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}

// updateVersioned applies fields to the row with the given id only if its
// version still matches, and bumps the version. Zero affected rows means the
// row is gone (ErrNotFound) or was changed by someone else (ErrConflict).
func updateVersioned(ctx context.Context, db *gorm.DB, m interface{}, id string, version int, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")

	res := db.WithContext(ctx).Model(m).
		Where("id = ? AND version = ?", id, version).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(m).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrConflict
}

// deleteByID removes the row with the given id, or reports ErrNotFound.
func deleteByID(ctx context.Context, db *gorm.DB, m interface{}, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
