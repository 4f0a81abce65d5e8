package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/ranking"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrPostNotFound  = errors.New("post not found")
	ErrDuplicateUser = errors.New("user with this email or username already exists")
)

// Transactor runs fn as one atomic unit of work. Repository calls made with
// the ctx passed to fn join the transaction. Storage write races surface as
// apperr.KindTransientConflict errors.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserSet names a set-valued field of a user document.
type UserSet string

const (
	SetFollowing UserSet = "following"
	SetFollowers UserSet = "followers"
	SetSaves     UserSet = "saves"
	SetPosts     UserSet = "posts"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	// AddToSet adds value to the named set and reports whether it was absent.
	AddToSet(ctx context.Context, userID string, set UserSet, value string) (bool, error)
	// RemoveFromSet removes value from the named set and reports whether it was present.
	RemoveFromSet(ctx context.Context, userID string, set UserSet, value string) (bool, error)
}

// PostFilter narrows post queries. A nil Authors places no author restriction.
type PostFilter struct {
	Authors        []string
	ExcludeAuthors []string
	CreatedBefore  time.Time
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []string) ([]models.Post, error)
	DeletePost(ctx context.Context, id string) error

	// AddLike reports whether userID was newly added and the resulting like count.
	AddLike(ctx context.Context, postID, userID string) (bool, int, error)
	// RemoveLike reports whether userID was present and the resulting like count.
	RemoveLike(ctx context.Context, postID, userID string) (bool, int, error)
	AddComment(ctx context.Context, postID string, comment models.Comment) error

	// ListRecent returns matching posts newest first.
	ListRecent(ctx context.Context, f PostFilter, skip, limit int) ([]models.Post, error)
	Count(ctx context.Context, f PostFilter) (int64, error)
	// Sample returns up to n matching posts chosen uniformly at random.
	Sample(ctx context.Context, f PostFilter, n int) ([]models.Post, error)

	// Search returns posts whose title or body matches m, ordered by
	// title-match tier then newest first.
	Search(ctx context.Context, m *ranking.Matcher, f PostFilter, skip, limit int) ([]models.Post, error)
	CountSearch(ctx context.Context, m *ranking.Matcher, f PostFilter) (int64, error)

	// ListPopular orders every post by popularity score, then newest first.
	ListPopular(ctx context.Context, skip, limit int) ([]models.Post, error)
}

// PageCache stores rendered list pages keyed by generation, page and limit.
// Invalidate advances the generation. Readers take the generation once and
// use it for both Get and Set, so a page computed before an invalidation is
// never stored under the newer generation.
type PageCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, page, limit int, dest any) (bool, error)
	Set(ctx context.Context, gen int64, page, limit int, value any) error
	Invalidate(ctx context.Context) error
}
