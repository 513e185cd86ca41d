package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OfferStatus represents the position of an offer in the resale workflow.
type OfferStatus string

const (
	OfferStatusSubmitted OfferStatus = "submitted"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusDenied    OfferStatus = "denied"
	OfferStatusSent      OfferStatus = "sent"
	OfferStatusSuccess   OfferStatus = "success"
)

// Offer is a user's submission of cards for buyback.
type Offer struct {
	ID          string          `json:"id" gorm:"type:char(36);primaryKey"`
	UserID      string          `json:"user_id" gorm:"type:char(36);not null;index"`
	Title       string          `json:"title" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	Images      []string        `json:"images" gorm:"type:text;serializer:json"`
	Status      OfferStatus     `json:"status" gorm:"type:varchar(20);not null;default:'submitted';index"`
	TrackNumber string          `json:"tracknumber,omitempty" gorm:"size:100"`
	Version     int             `json:"version" gorm:"not null;default:1"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
