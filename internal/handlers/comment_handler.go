package handlers

import (
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/anonto42/nano-feed/backend/pkg/response"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	coordinator *services.Coordinator
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(coordinator *services.Coordinator) *CommentHandler {
	return &CommentHandler{coordinator: coordinator}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
}

// CreateComment appends a comment to a post.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.coordinator.Comment(c.Request().Context(), userID, c.Param("id"), req.Body)
	if err != nil {
		return err
	}
	return response.Created(c, "Comment added successfully", comment)
}
