package services

import (
	"context"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/pagination"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
)

// ProfileService reads users and posts with their relations resolved.
type ProfileService struct {
	users repositories.UserRepository
	posts repositories.PostRepository
}

func NewProfileService(users repositories.UserRepository, posts repositories.PostRepository) *ProfileService {
	return &ProfileService{users: users, posts: posts}
}

// Me returns the caller's own profile, including email and saved posts.
func (s *ProfileService) Me(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := caller(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, user, true)
}

// Public returns another user's profile without private relations.
func (s *ProfileService) Public(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	return s.populate(ctx, user, false)
}

func (s *ProfileService) populate(ctx context.Context, user *models.User, private bool) (*models.Profile, error) {
	following, err := s.summaries(ctx, user.Following)
	if err != nil {
		return nil, err
	}
	followers, err := s.summaries(ctx, user.Followers)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.GetPostsByIDs(ctx, user.Posts)
	if err != nil {
		return nil, translate(err)
	}

	profile := &models.Profile{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Bio:         user.Bio,
		AvatarURL:   user.AvatarURL,
		Following:   following,
		Followers:   followers,
		Posts:       posts,
		CreatedAt:   user.CreatedAt,
	}
	if private {
		profile.Email = user.Email
		if profile.Saves, err = s.posts.GetPostsByIDs(ctx, user.Saves); err != nil {
			return nil, translate(err)
		}
	}
	return profile, nil
}

func (s *ProfileService) summaries(ctx context.Context, ids []string) ([]models.AuthorSummary, error) {
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]models.AuthorSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

// GetPost returns a single post.
func (s *ProfileService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, translate(err)
	}
	return post, nil
}

// UserPosts lists a user's posts newest first.
func (s *ProfileService) UserPosts(ctx context.Context, userID string, p pagination.Params) (*PostPage, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, translate(err)
	}
	filter := repositories.PostFilter{Authors: []string{userID}}
	posts, err := s.posts.ListRecent(ctx, filter, p.Skip(), p.Limit)
	if err != nil {
		return nil, translate(err)
	}
	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, translate(err)
	}
	return &PostPage{Posts: posts, Pagination: pagination.Summarize(total, p.Page, p.Limit)}, nil
}
