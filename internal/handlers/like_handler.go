package handlers

import (
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/anonto42/nano-feed/backend/pkg/response"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles like/unlike requests
type LikeHandler struct {
	coordinator *services.Coordinator
}

func NewLikeHandler(coordinator *services.Coordinator) *LikeHandler {
	return &LikeHandler{coordinator: coordinator}
}

func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.LikePost)
	g.DELETE("/posts/:id/like", h.UnlikePost)
}

type likeResult struct {
	PostID    string `json:"postId"`
	LikeCount int    `json:"likeCount"`
}

func (h *LikeHandler) LikePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")
	count, err := h.coordinator.Like(c.Request().Context(), userID, postID)
	if err != nil {
		return err
	}
	return response.OK(c, "Post liked successfully", likeResult{PostID: postID, LikeCount: count})
}

func (h *LikeHandler) UnlikePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")
	count, err := h.coordinator.Unlike(c.Request().Context(), userID, postID)
	if err != nil {
		return err
	}
	return response.OK(c, "Post unliked successfully", likeResult{PostID: postID, LikeCount: count})
}
