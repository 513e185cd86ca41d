package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cardshop/internal/auth"
	"cardshop/internal/model"
	"cardshop/internal/service"
)

// UserHandler serves the account and admin user endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateMeRequest changes the display name.
type UpdateMeRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// ChangePasswordRequest replaces the password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ProfileRequest is the shipping address form.
type ProfileRequest struct {
	FullName   string `json:"fullname" validate:"required"`
	Address    string `json:"address" validate:"required"`
	PostalCode int    `json:"postal_code" validate:"gt=0"`
	City       string `json:"city" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// ProfileResponse reports the profile and whether checkout can use it.
type ProfileResponse struct {
	Profile  *model.Profile `json:"profile"`
	Complete bool           `json:"complete"`
}

// SetAdminRequest grants or revokes the admin flag.
type SetAdminRequest struct {
	Admin *bool `json:"admin" validate:"required"`
}

// AdjustPointsRequest adds (or with a negative delta removes) reward points.
type AdjustPointsRequest struct {
	Delta int `json:"delta"`
}

// Me godoc
// @Summary Current user
// @Tags account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.svc.Me(c.Request().Context(), auth.GetSession(c))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe godoc
// @Summary Change display name
// @Tags account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateMeRequest true "New name"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /me [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req UpdateMeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.UpdateName(c.Request().Context(), auth.GetSession(c), req.Name)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword godoc
// @Summary Change password
// @Tags account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Passwords"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /me/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.svc.ChangePassword(c.Request().Context(), auth.GetSession(c), req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}

// GetProfile godoc
// @Summary Shipping profile
// @Tags account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /me/profile [get]
func (h *UserHandler) GetProfile(c echo.Context) error {
	profile, err := h.svc.GetProfile(c.Request().Context(), auth.GetSession(c))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, ProfileResponse{Profile: profile, Complete: profile != nil})
}

// SaveProfile godoc
// @Summary Create or replace the shipping profile
// @Tags account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProfileRequest true "Shipping address"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /me/profile [put]
func (h *UserHandler) SaveProfile(c echo.Context) error {
	var req ProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	profile, err := h.svc.SaveProfile(c.Request().Context(), auth.GetSession(c), service.ProfileInput{
		FullName:   req.FullName,
		Address:    req.Address,
		PostalCode: req.PostalCode,
		City:       req.City,
		Country:    req.Country,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, ProfileResponse{Profile: profile, Complete: true})
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// SetAdmin godoc
// @Summary Grant or revoke admin
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body SetAdminRequest true "Admin flag"
// @Success 200 {object} model.User
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/admin [put]
func (h *UserHandler) SetAdmin(c echo.Context) error {
	var req SetAdminRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.SetAdmin(c.Request().Context(), c.Param("id"), *req.Admin)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// AdjustPoints godoc
// @Summary Adjust reward points
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body AdjustPointsRequest true "Delta"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/points [post]
func (h *UserHandler) AdjustPoints(c echo.Context) error {
	var req AdjustPointsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.AdjustPoints(c.Request().Context(), c.Param("id"), req.Delta)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, user)
}
