package handlers

import (
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/anonto42/nano-feed/backend/pkg/response"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow requests
type FollowHandler struct {
	coordinator *services.Coordinator
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(coordinator *services.Coordinator) *FollowHandler {
	return &FollowHandler{coordinator: coordinator}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

// FollowUser follows the user identified by the path id.
func (h *FollowHandler) FollowUser(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	if err := h.coordinator.Follow(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}
	return response.OK(c, "User followed successfully", nil)
}

// UnfollowUser removes the follow edge in both directions.
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	if err := h.coordinator.Unfollow(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}
	return response.OK(c, "User unfollowed successfully", nil)
}
