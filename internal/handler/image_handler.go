package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"cardshop/internal/auth"
	"cardshop/internal/errors"
	"cardshop/internal/service"
)

// ImageHandler serves card picture uploads.
type ImageHandler struct {
	svc service.ImageService
}

// NewImageHandler creates a new image handler.
func NewImageHandler(svc service.ImageService) *ImageHandler {
	return &ImageHandler{svc: svc}
}

// UploadResponse names the stored image.
type UploadResponse struct {
	ContentID string `json:"cid"`
}

// ImageURLResponse is a time-limited link to an image.
type ImageURLResponse struct {
	URL string `json:"url"`
}

// Upload godoc
// @Summary Upload an image
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image, at most 5 MiB"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /uploads [post]
func (h *ImageHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "file is required",
			Code:  "VALIDATION_ERROR",
		})
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(err)
	}
	defer f.Close()

	// one byte over the limit lets the service reject oversize files
	data, err := io.ReadAll(io.LimitReader(f, service.MaxImageSize+1))
	if err != nil {
		return respondError(err)
	}

	cid, err := h.svc.Upload(c.Request().Context(), auth.GetSession(c), data, fh.Header.Get(echo.HeaderContentType))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, UploadResponse{ContentID: cid})
}

// URL godoc
// @Summary Signed image URL
// @Description Uploaders and admins may read an image; images uploaded by admins are readable by every signed-in user.
// @Tags images
// @Produce json
// @Security BearerAuth
// @Param cid path string true "Content ID"
// @Success 200 {object} ImageURLResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /images/{cid} [get]
func (h *ImageHandler) URL(c echo.Context) error {
	url, err := h.svc.URL(c.Request().Context(), auth.GetSession(c), c.Param("cid"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, ImageURLResponse{URL: url})
}
