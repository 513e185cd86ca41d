package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a storefront customer or administrator.
type User struct {
	ID           string    `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255"` // empty for federated accounts
	Admin        int       `json:"admin" gorm:"not null;default:0;index"`
	Points       int       `json:"points" gorm:"not null;default:0"`
	Version      int       `json:"-" gorm:"not null;default:1"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Profile *Profile `json:"profile,omitempty" gorm:"foreignKey:UserID"`
}

// IsAdmin reports whether the admin flag is set.
func (u *User) IsAdmin() bool {
	return u.Admin == 1
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
