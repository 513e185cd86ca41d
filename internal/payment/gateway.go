// Package payment talks to the hosted checkout provider.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// EventKind classifies verified webhook events.
type EventKind string

const (
	EventCheckoutCompleted EventKind = "checkout_completed"
	EventCheckoutExpired   EventKind = "checkout_expired"
	EventIgnored           EventKind = "ignored"
)

// LineItem is one row of a checkout session.
type LineItem struct {
	Name       string
	UnitAmount decimal.Decimal
	Quantity   int
}

// CheckoutRequest describes the purchase a checkout session is opened for.
type CheckoutRequest struct {
	OrderID       string
	CustomerEmail string
	Currency      string
	Items         []LineItem
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the provider side of a pending order.
type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a webhook notification whose signature has been verified.
type Event struct {
	ID        string
	Type      string
	Kind      EventKind
	SessionID string
	OrderID   string
}

// Gateway opens hosted checkout sessions and verifies webhooks.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}

// MinorUnits converts an amount to the integer cents the provider expects.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
