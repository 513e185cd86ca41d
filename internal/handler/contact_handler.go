package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cardshop/internal/service"
)

// ContactHandler serves the public contact form.
type ContactHandler struct {
	svc service.ContactService
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(svc service.ContactService) *ContactHandler {
	return &ContactHandler{svc: svc}
}

// ContactRequest is a message to the shop.
type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// Send godoc
// @Summary Send a message to the shop
// @Tags contact
// @Accept json
// @Produce json
// @Param request body ContactRequest true "Message"
// @Success 202 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /contact [post]
func (h *ContactHandler) Send(c echo.Context) error {
	var req ContactRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	err := h.svc.Send(c.Request().Context(), service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusAccepted, MessageResponse{Message: "message sent"})
}
