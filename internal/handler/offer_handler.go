package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"cardshop/internal/auth"
	"cardshop/internal/model"
	"cardshop/internal/service"
)

// OfferHandler serves the resale workflow for sellers and admins.
type OfferHandler struct {
	svc service.OfferService
}

// NewOfferHandler creates a new offer handler.
func NewOfferHandler(svc service.OfferService) *OfferHandler {
	return &OfferHandler{svc: svc}
}

// OfferRequest is the content of a resale offer.
type OfferRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" swaggertype:"string" example:"100.00"`
	Images      []string        `json:"images" validate:"min=1,max=10"`
}

func (r OfferRequest) input() service.OfferInput {
	return service.OfferInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Images:      r.Images,
	}
}

// TrackingRequest carries the parcel tracking number.
type TrackingRequest struct {
	TrackNumber string `json:"tracknumber" validate:"required,max=100"`
}

// ListMine godoc
// @Summary List own offers
// @Tags offers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Offer
// @Failure 401 {object} errors.ErrorResponse
// @Router /offers [get]
func (h *OfferHandler) ListMine(c echo.Context) error {
	offers, err := h.svc.ListMine(c.Request().Context(), auth.GetSession(c))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, offers)
}

// Create godoc
// @Summary Submit an offer
// @Tags offers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OfferRequest true "Offer"
// @Success 201 {object} model.Offer
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /offers [post]
func (h *OfferHandler) Create(c echo.Context) error {
	var req OfferRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	offer, err := h.svc.Create(c.Request().Context(), auth.GetSession(c), req.input())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, offer)
}

// Get godoc
// @Summary Get an offer
// @Tags offers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 200 {object} model.Offer
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /offers/{id} [get]
func (h *OfferHandler) Get(c echo.Context) error {
	offer, err := h.svc.Get(c.Request().Context(), auth.GetSession(c), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, offer)
}

// Update godoc
// @Summary Edit a submitted offer
// @Tags offers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Param request body OfferRequest true "Offer"
// @Success 200 {object} model.Offer
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /offers/{id} [put]
func (h *OfferHandler) Update(c echo.Context) error {
	var req OfferRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	offer, err := h.svc.Update(c.Request().Context(), auth.GetSession(c), c.Param("id"), req.input())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, offer)
}

// Delete godoc
// @Summary Delete an offer
// @Description Owners may delete offers still awaiting review, admins any offer.
// @Tags offers
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /offers/{id} [delete]
func (h *OfferHandler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), auth.GetSession(c), c.Param("id")); err != nil {
		return respondError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddTracking godoc
// @Summary Record the shipment of an accepted offer
// @Tags offers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Param request body TrackingRequest true "Tracking number"
// @Success 200 {object} model.Offer
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /offers/{id}/tracking [post]
func (h *OfferHandler) AddTracking(c echo.Context) error {
	var req TrackingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	offer, err := h.svc.AddTracking(c.Request().Context(), auth.GetSession(c), c.Param("id"), req.TrackNumber)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, offer)
}

// ListAll godoc
// @Summary List all offers
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Offer status"
// @Success 200 {array} model.Offer
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/offers [get]
func (h *OfferHandler) ListAll(c echo.Context) error {
	status := model.OfferStatus(c.QueryParam("status"))
	offers, err := h.svc.ListAll(c.Request().Context(), auth.GetSession(c), status)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, offers)
}

// Accept godoc
// @Summary Accept an offer
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 200 {object} model.Offer
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/offers/{id}/accept [post]
func (h *OfferHandler) Accept(c echo.Context) error {
	return h.review(c, h.svc.Accept)
}

// Deny godoc
// @Summary Deny an offer
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 200 {object} model.Offer
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/offers/{id}/deny [post]
func (h *OfferHandler) Deny(c echo.Context) error {
	return h.review(c, h.svc.Deny)
}

// ConfirmPayment godoc
// @Summary Confirm the payout of a shipped offer
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 200 {object} model.Offer
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/offers/{id}/confirm-payment [post]
func (h *OfferHandler) ConfirmPayment(c echo.Context) error {
	return h.review(c, h.svc.ConfirmPayment)
}

type reviewFunc func(ctx context.Context, session *auth.Session, id string) (*model.Offer, error)

func (h *OfferHandler) review(c echo.Context, apply reviewFunc) error {
	offer, err := apply(c.Request().Context(), auth.GetSession(c), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, offer)
}
