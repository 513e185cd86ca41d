package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents the status of a shop purchase.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderItem is an article line captured at purchase time.
type OrderItem struct {
	ArticleID string          `json:"article_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns unit price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a shop purchase. Shipping fields are copied from the buyer's
// profile when the order is placed.
type Order struct {
	ID                string          `json:"id" gorm:"type:char(36);primaryKey"`
	UserID            string          `json:"user_id" gorm:"type:char(36);not null;index"`
	Items             []OrderItem     `json:"items" gorm:"type:text;serializer:json"`
	Total             decimal.Decimal `json:"total" gorm:"type:decimal(20,2);not null"`
	Currency          string          `json:"currency" gorm:"size:3;not null;default:'eur'"`
	FullName          string          `json:"fullname" gorm:"size:255"`
	Address           string          `json:"address" gorm:"size:255"`
	PostalCode        int             `json:"postal_code"`
	City              string          `json:"city" gorm:"size:255"`
	Country           string          `json:"country" gorm:"size:255"`
	Status            OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CheckoutSessionID string          `json:"-" gorm:"size:255;index"`
	Version           int             `json:"version" gorm:"not null;default:1"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// AllModels returns all models for gorm AutoMigrate, parents first.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Profile{},
		&Article{},
		&Offer{},
		&Order{},
	}
}
