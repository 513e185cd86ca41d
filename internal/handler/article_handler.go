package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"cardshop/internal/service"
)

// ArticleHandler serves the catalog.
type ArticleHandler struct {
	svc service.ArticleService
}

// NewArticleHandler creates a new article handler.
func NewArticleHandler(svc service.ArticleService) *ArticleHandler {
	return &ArticleHandler{svc: svc}
}

// ArticleRequest is the admin article form.
type ArticleRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description"`
	Edition     string          `json:"edition"`
	Type        string          `json:"type" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price" swaggertype:"string" example:"4.50"`
	Amount      int             `json:"amount" validate:"gte=0"`
	Image       string          `json:"image"`
}

func (r ArticleRequest) input() service.ArticleInput {
	return service.ArticleInput{
		Title:       r.Title,
		Description: r.Description,
		Edition:     r.Edition,
		Type:        r.Type,
		Price:       r.Price,
		Amount:      r.Amount,
		Image:       r.Image,
	}
}

// List godoc
// @Summary List catalog articles
// @Tags articles
// @Produce json
// @Param type query string false "Article type"
// @Success 200 {array} model.Article
// @Router /articles [get]
func (h *ArticleHandler) List(c echo.Context) error {
	articles, err := h.svc.List(c.Request().Context(), c.QueryParam("type"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, articles)
}

// Get godoc
// @Summary Get an article
// @Tags articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} model.Article
// @Failure 404 {object} errors.ErrorResponse
// @Router /articles/{id} [get]
func (h *ArticleHandler) Get(c echo.Context) error {
	article, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, article)
}

// Create godoc
// @Summary Create an article
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ArticleRequest true "Article"
// @Success 201 {object} model.Article
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/articles [post]
func (h *ArticleHandler) Create(c echo.Context) error {
	var req ArticleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	article, err := h.svc.Create(c.Request().Context(), req.input())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, article)
}

// Update godoc
// @Summary Replace an article
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Param request body ArticleRequest true "Article"
// @Success 200 {object} model.Article
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/articles/{id} [put]
func (h *ArticleHandler) Update(c echo.Context) error {
	var req ArticleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	article, err := h.svc.Update(c.Request().Context(), c.Param("id"), req.input())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, article)
}

// Delete godoc
// @Summary Delete an article
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/articles/{id} [delete]
func (h *ArticleHandler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
