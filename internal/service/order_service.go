package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cardshop/internal/auth"
	apperrors "cardshop/internal/errors"
	"cardshop/internal/lifecycle"
	"cardshop/internal/model"
	"cardshop/internal/payment"
	"cardshop/internal/repository"
)

const (
	maxLineQuantity = 99
	maxCartLines    = 50
)

// CartLine is one article of a submitted shopping cart.
type CartLine struct {
	ArticleID string `validate:"required,max=36"`
	Quantity  int    `validate:"min=1,max=99"`
}

// CheckoutResult points the buyer at the hosted payment page.
type CheckoutResult struct {
	OrderID string
	URL     string
}

// CheckoutConfig holds the provider-independent checkout settings.
type CheckoutConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// OrderService handles shop purchases.
type OrderService interface {
	Checkout(ctx context.Context, session *auth.Session, cart []CartLine) (*CheckoutResult, error)
	Get(ctx context.Context, session *auth.Session, id string) (*model.Order, error)
	ListMine(ctx context.Context, session *auth.Session) ([]model.Order, error)
	ListAll(ctx context.Context, status model.OrderStatus) ([]model.Order, error)

	// MarkPaid and MarkCancelled take no session. Only admin routes and the
	// verified payment webhook reach them.
	MarkPaid(ctx context.Context, id string) (*model.Order, error)
	MarkCancelled(ctx context.Context, id string) (*model.Order, error)

	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type orderService struct {
	orders   repository.OrderRepository
	articles repository.ArticleRepository
	profiles repository.ProfileRepository
	gateway  payment.Gateway
	machine  *lifecycle.OrderStateMachine
	cfg      CheckoutConfig
	logger   *zap.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orders repository.OrderRepository,
	articles repository.ArticleRepository,
	profiles repository.ProfileRepository,
	gateway payment.Gateway,
	cfg CheckoutConfig,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orders:   orders,
		articles: articles,
		profiles: profiles,
		gateway:  gateway,
		machine:  lifecycle.NewOrderStateMachine(),
		cfg:      cfg,
		logger:   logger,
	}
}

// Checkout prices the cart from the catalog, snapshots the shipping address
// into a pending order and opens a checkout session for it.
func (s *orderService) Checkout(ctx context.Context, session *auth.Session, cart []CartLine) (*CheckoutResult, error) {
	if session == nil {
		return nil, apperrors.ErrUnauthorized
	}
	lines, err := mergeCart(cart)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.FindByUserID(ctx, session.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrProfileRequired
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	items := make([]model.OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		article, err := s.articles.FindByID(ctx, line.ArticleID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: article %s", apperrors.ErrNotFound, line.ArticleID)
			}
			return nil, fmt.Errorf("load article: %w", err)
		}
		item := model.OrderItem{
			ArticleID: article.ID,
			Title:     article.Title,
			UnitPrice: article.Price,
			Quantity:  line.Quantity,
		}
		items = append(items, item)
		total = total.Add(item.Subtotal())
	}

	order := &model.Order{
		UserID:     session.UserID,
		Items:      items,
		Total:      total,
		Currency:   s.cfg.Currency,
		FullName:   profile.FullName,
		Address:    profile.Address,
		PostalCode: profile.PostalCode,
		City:       profile.City,
		Country:    profile.Country,
		Status:     model.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	req := payment.CheckoutRequest{
		OrderID:       order.ID,
		CustomerEmail: session.Email,
		Currency:      order.Currency,
		SuccessURL:    expandOrderURL(s.cfg.SuccessURL, order.ID),
		CancelURL:     expandOrderURL(s.cfg.CancelURL, order.ID),
	}
	for _, item := range items {
		req.Items = append(req.Items, payment.LineItem{
			Name:       item.Title,
			UnitAmount: item.UnitPrice,
			Quantity:   item.Quantity,
		})
	}

	checkout, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		s.logger.Error("checkout session failed", zap.String("order_id", order.ID), zap.Error(err))
		if _, cerr := s.MarkCancelled(ctx, order.ID); cerr != nil {
			s.logger.Error("cancel order after failed checkout", zap.String("order_id", order.ID), zap.Error(cerr))
		}
		return nil, fmt.Errorf("%w: payment provider unavailable", apperrors.ErrUpstream)
	}

	if err := s.orders.UpdateFields(ctx, order.ID, order.Version, map[string]interface{}{
		"checkout_session_id": checkout.ID,
	}); err != nil {
		return nil, fmt.Errorf("store checkout session: %w", err)
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("total", order.Total.String()),
	)
	return &CheckoutResult{OrderID: order.ID, URL: checkout.URL}, nil
}

func (s *orderService) Get(ctx context.Context, session *auth.Session, id string) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanViewOrder(session, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListMine(ctx context.Context, session *auth.Session) ([]model.Order, error) {
	if session == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return s.orders.ListByUser(ctx, session.UserID)
}

func (s *orderService) ListAll(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	switch status {
	case "", model.OrderStatusPending, model.OrderStatusPaid, model.OrderStatusCancelled:
	default:
		return nil, invalid("unknown order status %q", status)
	}
	return s.orders.List(ctx, status)
}

func (s *orderService) MarkPaid(ctx context.Context, id string) (*model.Order, error) {
	return s.transition(ctx, id, model.OrderStatusPaid)
}

func (s *orderService) MarkCancelled(ctx context.Context, id string) (*model.Order, error) {
	return s.transition(ctx, id, model.OrderStatusCancelled)
}

func (s *orderService) transition(ctx context.Context, id string, to model.OrderStatus) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := order.Status
	changed, err := s.machine.Transition(order, to)
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}
	if err := s.orders.UpdateFields(ctx, order.ID, order.Version, map[string]interface{}{"status": to}); err != nil {
		return nil, fmt.Errorf("mark order %s: %w", to, err)
	}
	s.logger.Info("order transition",
		zap.String("order_id", order.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return s.orders.FindByID(ctx, order.ID)
}

// HandleWebhook applies a verified provider event. Events that cannot be
// applied any more are acknowledged so the provider stops redelivering them.
func (s *orderService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return err
	}

	var to model.OrderStatus
	switch event.Kind {
	case payment.EventCheckoutCompleted:
		to = model.OrderStatusPaid
	case payment.EventCheckoutExpired:
		to = model.OrderStatusCancelled
	default:
		s.logger.Debug("ignoring payment event", zap.String("type", event.Type))
		return nil
	}
	if event.OrderID == "" {
		s.logger.Warn("payment event without order id", zap.String("event_id", event.ID))
		return nil
	}

	_, err = s.transition(ctx, event.OrderID, to)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrInvalidTransition):
		s.logger.Warn("payment event not applied",
			zap.String("event_id", event.ID),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
		return nil
	default:
		return err
	}
}

// mergeCart validates the cart and folds repeated articles into one line,
// keeping first-seen order.
func mergeCart(cart []CartLine) ([]CartLine, error) {
	if len(cart) == 0 {
		return nil, invalid("cart is empty")
	}
	if len(cart) > maxCartLines {
		return nil, invalid("cart has more than %d lines", maxCartLines)
	}

	merged := make([]CartLine, 0, len(cart))
	index := make(map[string]int, len(cart))
	for _, line := range cart {
		line.ArticleID = strings.TrimSpace(line.ArticleID)
		if err := validateStruct(line); err != nil {
			return nil, err
		}
		if i, ok := index[line.ArticleID]; ok {
			merged[i].Quantity += line.Quantity
			if merged[i].Quantity > maxLineQuantity {
				return nil, invalid("quantity of article %s exceeds %d", line.ArticleID, maxLineQuantity)
			}
			continue
		}
		index[line.ArticleID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

func expandOrderURL(tmpl, orderID string) string {
	return strings.ReplaceAll(tmpl, "{order_id}", orderID)
}
