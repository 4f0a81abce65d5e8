package handlers

import (
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/anonto42/nano-feed/backend/pkg/response"
	"github.com/labstack/echo/v4"
)

// UserHandler serves profiles and per-user post listings.
type UserHandler struct {
	profiles *services.ProfileService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(profiles *services.ProfileService) *UserHandler {
	return &UserHandler{profiles: profiles}
}

// RegisterProfileRoutes registers profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/:id/posts", h.GetUserPosts)
}

// GetProfile returns the caller with followers, following, posts and saves populated.
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	profile, err := h.profiles.Me(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, "Profile retrieved successfully", profile)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	profile, err := h.profiles.Public(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return response.OK(c, "User retrieved successfully", profile)
}

func (h *UserHandler) GetUserPosts(c echo.Context) error {
	p, err := pageParams(c)
	if err != nil {
		return err
	}
	page, err := h.profiles.UserPosts(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return err
	}
	return response.OK(c, "Posts retrieved successfully", page)
}
