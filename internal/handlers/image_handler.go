package handlers

import (
	"net/http"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/labstack/echo/v4"
)

// ImageSource serves stored image bytes by asset id. *imagestore.Memory implements it.
type ImageSource interface {
	Get(assetID string) (data []byte, contentType string, ok bool)
}

// ImageHandler serves images kept in process when no bucket is configured.
type ImageHandler struct {
	images ImageSource
}

func NewImageHandler(images ImageSource) *ImageHandler {
	return &ImageHandler{images: images}
}

func (h *ImageHandler) RegisterImageRoutes(e *echo.Echo, prefix string) {
	e.GET(prefix+"/:id", h.GetImage)
}

func (h *ImageHandler) GetImage(c echo.Context) error {
	data, contentType, ok := h.images.Get(c.Param("id"))
	if !ok {
		return apperr.NotFound("Image not found")
	}
	return c.Blob(http.StatusOK, contentType, data)
}
