package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/imagestore"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/anonto42/nano-feed/backend/pkg/response"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	coordinator *services.Coordinator
	profiles    *services.ProfileService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(coordinator *services.Coordinator, profiles *services.ProfileService) *PostHandler {
	return &PostHandler{coordinator: coordinator, profiles: profiles}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost accepts either JSON or multipart/form-data with an optional
// "image" file part.
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var upload *models.NewImageUpload
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		if upload, err = readImage(c); err != nil {
			return err
		}
	}

	post, err := h.coordinator.CreatePost(c.Request().Context(), userID, req, upload)
	if err != nil {
		return err
	}
	return response.Created(c, "Post created successfully", post)
}

func readImage(c echo.Context) (*models.NewImageUpload, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.BadRequest("Invalid image upload")
	}
	if fh.Size > imagestore.MaxImageBytes {
		return nil, apperr.BadRequest("Image exceeds 10MB")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperr.BadRequest("Invalid image upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, imagestore.MaxImageBytes+1))
	if err != nil {
		return nil, apperr.BadRequest("Invalid image upload")
	}
	return &models.NewImageUpload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.profiles.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return response.OK(c, "Post retrieved successfully", post)
}

// DeletePost deletes a post owned by the caller.
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	if err := h.coordinator.DeletePost(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}
	return response.OK(c, "Post deleted successfully", nil)
}
