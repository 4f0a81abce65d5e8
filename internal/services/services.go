// Package services holds the feed composer, the ranking-backed readers and
// the mutation coordinator that owns every write to users and posts.
package services

import (
	"context"
	"errors"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/pagination"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
)

// PostPage is one page of a post listing.
type PostPage struct {
	Posts      []models.Post      `json:"posts"`
	Pagination pagination.Summary `json:"pagination"`
}

// translate maps repository sentinels onto the error taxonomy. Errors that
// already carry a kind pass through.
func translate(err error) error {
	var ae *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperr.NotFound("User not found")
	case errors.Is(err, repositories.ErrPostNotFound):
		return apperr.NotFound("Post not found")
	case errors.Is(err, repositories.ErrDuplicateUser):
		return apperr.Conflict("User with this email or username already exists")
	default:
		return apperr.Internal("Internal server error", err)
	}
}

// caller resolves the requesting user. A missing id or an unknown user is Unauthorized.
func caller(ctx context.Context, users repositories.UserRepository, userID string) (*models.User, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}
	user, err := users.GetUserByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperr.Unauthorized("User not found")
	}
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}
