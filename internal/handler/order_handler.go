package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"cardshop/internal/auth"
	"cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/service"
)

// maxWebhookBody bounds the payload read from the payment provider.
const maxWebhookBody = 1 << 20

// OrderHandler serves checkout, order history and the payment webhook.
type OrderHandler struct {
	svc service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// CartLineRequest is one cart entry.
type CartLineRequest struct {
	ArticleID string `json:"articleId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1,max=99"`
}

// CheckoutRequest is the cart submitted for payment.
type CheckoutRequest struct {
	Items []CartLineRequest `json:"items" validate:"required,min=1,dive"`
}

// CheckoutResponse points the buyer to the hosted payment page.
type CheckoutResponse struct {
	OrderID string `json:"orderId"`
	URL     string `json:"url"`
}

// Checkout godoc
// @Summary Pay for a cart
// @Description Creates a pending order from the cart and the saved shipping profile.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CheckoutRequest true "Cart"
// @Success 201 {object} CheckoutResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /checkout [post]
func (h *OrderHandler) Checkout(c echo.Context) error {
	var req CheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart := make([]service.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		cart = append(cart, service.CartLine{ArticleID: item.ArticleID, Quantity: item.Quantity})
	}

	result, err := h.svc.Checkout(c.Request().Context(), auth.GetSession(c), cart)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, CheckoutResponse{OrderID: result.OrderID, URL: result.URL})
}

// ListMine godoc
// @Summary List own orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Order
// @Router /orders [get]
func (h *OrderHandler) ListMine(c echo.Context) error {
	orders, err := h.svc.ListMine(c.Request().Context(), auth.GetSession(c))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Get godoc
// @Summary Get an order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} model.Order
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	order, err := h.svc.Get(c.Request().Context(), auth.GetSession(c), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// ListAll godoc
// @Summary List all orders
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Order status"
// @Success 200 {array} model.Order
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/orders [get]
func (h *OrderHandler) ListAll(c echo.Context) error {
	orders, err := h.svc.ListAll(c.Request().Context(), model.OrderStatus(c.QueryParam("status")))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

// MarkPaid godoc
// @Summary Mark an order paid
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} model.Order
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/orders/{id}/paid [post]
func (h *OrderHandler) MarkPaid(c echo.Context) error {
	order, err := h.svc.MarkPaid(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// MarkCancelled godoc
// @Summary Cancel an order
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} model.Order
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/orders/{id}/cancelled [post]
func (h *OrderHandler) MarkCancelled(c echo.Context) error {
	order, err := h.svc.MarkCancelled(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// Webhook godoc
// @Summary Payment provider webhook
// @Tags payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Payload signature"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /webhooks/payment [post]
func (h *OrderHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "unreadable body",
			Code:  "INVALID_REQUEST",
		})
	}

	if err := h.svc.HandleWebhook(c.Request().Context(), payload, c.Request().Header.Get("Stripe-Signature")); err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "received"})
}
