package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Article is a catalog item for sale.
type Article struct {
	ID          string          `json:"id" gorm:"type:char(36);primaryKey"`
	Title       string          `json:"title" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Edition     string          `json:"edition,omitempty" gorm:"size:255"`
	Type        string          `json:"type" gorm:"size:100;not null;index"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	Amount      int             `json:"amount" gorm:"not null;default:0"`
	Image       string          `json:"image" gorm:"size:255"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
