package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	apperrors "cardshop/internal/errors"
)

const orderIDMetadataKey = "order_id"

// StripeGateway implements Gateway with Stripe Checkout.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

var _ Gateway = (*StripeGateway)(nil)

// NewStripeGateway creates a gateway. backends may be nil to use the
// default Stripe endpoints.
func NewStripeGateway(secretKey, webhookSecret string, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for _, item := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(MinorUnits(item.UnitAmount)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	params.AddMetadata(orderIDMetadataKey, req.OrderID)
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", apperrors.ErrUpstream, err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyWebhook checks the Stripe-Signature header and decodes checkout
// session events.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSignatureMismatch, err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type), Kind: EventIgnored}
	switch string(event.Type) {
	case "checkout.session.completed":
		out.Kind = EventCheckoutCompleted
	case "checkout.session.expired":
		out.Kind = EventCheckoutExpired
	default:
		return out, nil
	}

	var sess stripe.CheckoutSession
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", apperrors.ErrValidation, event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: decode checkout session: %v", apperrors.ErrValidation, err)
	}
	out.SessionID = sess.ID
	out.OrderID = sess.Metadata[orderIDMetadataKey]
	if out.OrderID == "" {
		out.OrderID = sess.ClientReferenceID
	}
	return out, nil
}
