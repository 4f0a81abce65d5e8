package handlers

import (
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/anonto42/nano-feed/backend/pkg/response"
	"github.com/labstack/echo/v4"
)

// SavedPostHandler handles saving posts to the caller's collection.
type SavedPostHandler struct {
	coordinator *services.Coordinator
}

func NewSavedPostHandler(coordinator *services.Coordinator) *SavedPostHandler {
	return &SavedPostHandler{coordinator: coordinator}
}

func (h *SavedPostHandler) RegisterSavedPostRoutes(g *echo.Group) {
	g.POST("/posts/:id/save", h.SavePost)
	g.DELETE("/posts/:id/save", h.UnsavePost)
}

func (h *SavedPostHandler) SavePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	if err := h.coordinator.SavePost(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}
	return response.OK(c, "Post saved successfully", nil)
}

func (h *SavedPostHandler) UnsavePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	if err := h.coordinator.UnsavePost(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}
	return response.OK(c, "Post removed from saved", nil)
}
