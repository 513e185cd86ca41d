package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile holds the shipping address of a user. A user has at most one.
type Profile struct {
	ID         string    `json:"id" gorm:"type:char(36);primaryKey"`
	UserID     string    `json:"user_id" gorm:"type:char(36);not null;uniqueIndex"`
	FullName   string    `json:"fullname" gorm:"size:255;not null"`
	Address    string    `json:"address" gorm:"size:255;not null"`
	PostalCode int       `json:"postal_code" gorm:"not null"`
	City       string    `json:"city" gorm:"size:255;not null"`
	Country    string    `json:"country" gorm:"size:255;not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
