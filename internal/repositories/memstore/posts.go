package memstore

import (
	"context"
	"slices"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/ranking"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/google/uuid"
)

var _ repositories.PostRepository = (*Store)(nil)

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	return s.write(ctx, func(st *state) error {
		if post.ID == "" {
			post.ID = uuid.NewString()
		}
		if post.CreatedAt.IsZero() {
			post.CreatedAt = now()
		}
		post.UpdatedAt = post.CreatedAt
		if post.Likes == nil {
			post.Likes = []string{}
		}
		if post.Comments == nil {
			post.Comments = []models.Comment{}
		}
		st.posts[post.ID] = clonePost(post)
		return nil
	})
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var found *models.Post
	err := s.read(ctx, func(st *state) error {
		p, ok := st.posts[id]
		if !ok {
			return repositories.ErrPostNotFound
		}
		found = clonePost(p)
		return nil
	})
	return found, err
}

func (s *Store) GetPostsByIDs(ctx context.Context, ids []string) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.read(ctx, func(st *state) error {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if p, ok := st.posts[id]; ok && !seen[id] {
				seen[id] = true
				posts = append(posts, *clonePost(p))
			}
		}
		return nil
	})
	ranking.SortRecent(posts)
	return posts, err
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.posts[id]; !ok {
			return repositories.ErrPostNotFound
		}
		delete(st.posts, id)
		return nil
	})
}

func (s *Store) AddLike(ctx context.Context, postID, userID string) (bool, int, error) {
	var (
		added bool
		count int
	)
	err := s.write(ctx, func(st *state) error {
		p, ok := st.posts[postID]
		if !ok {
			return repositories.ErrPostNotFound
		}
		if !p.IsLikedBy(userID) {
			p.Likes = append(p.Likes, userID)
			added = true
		}
		count = p.LikeCount()
		return nil
	})
	return added, count, err
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID string) (bool, int, error) {
	var (
		removed bool
		count   int
	)
	err := s.write(ctx, func(st *state) error {
		p, ok := st.posts[postID]
		if !ok {
			return repositories.ErrPostNotFound
		}
		if i := slices.Index(p.Likes, userID); i >= 0 {
			p.Likes = slices.Delete(p.Likes, i, i+1)
			removed = true
		}
		count = p.LikeCount()
		return nil
	})
	return removed, count, err
}

func (s *Store) AddComment(ctx context.Context, postID string, comment models.Comment) error {
	return s.write(ctx, func(st *state) error {
		p, ok := st.posts[postID]
		if !ok {
			return repositories.ErrPostNotFound
		}
		p.Comments = append(p.Comments, comment)
		p.UpdatedAt = now()
		return nil
	})
}

func (s *Store) ListRecent(ctx context.Context, f repositories.PostFilter, skip, limit int) ([]models.Post, error) {
	posts, err := s.collect(ctx, func(p *models.Post) bool { return matchFilter(p, f) })
	if err != nil {
		return nil, err
	}
	ranking.SortRecent(posts)
	return window(posts, skip, limit), nil
}

func (s *Store) Count(ctx context.Context, f repositories.PostFilter) (int64, error) {
	posts, err := s.collect(ctx, func(p *models.Post) bool { return matchFilter(p, f) })
	return int64(len(posts)), err
}

func (s *Store) Sample(ctx context.Context, f repositories.PostFilter, n int) ([]models.Post, error) {
	if n <= 0 {
		return []models.Post{}, nil
	}
	posts, err := s.collect(ctx, func(p *models.Post) bool { return matchFilter(p, f) })
	if err != nil {
		return nil, err
	}
	// Map iteration order is not a uniform shuffle.
	ranking.SortRecent(posts)
	s.shuffle(len(posts), func(i, j int) { posts[i], posts[j] = posts[j], posts[i] })
	return window(posts, 0, n), nil
}

func (s *Store) Search(ctx context.Context, m *ranking.Matcher, f repositories.PostFilter, skip, limit int) ([]models.Post, error) {
	posts, err := s.collect(ctx, func(p *models.Post) bool { return matchFilter(p, f) && m.Matches(p) })
	if err != nil {
		return nil, err
	}
	ranking.SortSearch(posts, m)
	return window(posts, skip, limit), nil
}

func (s *Store) CountSearch(ctx context.Context, m *ranking.Matcher, f repositories.PostFilter) (int64, error) {
	posts, err := s.collect(ctx, func(p *models.Post) bool { return matchFilter(p, f) && m.Matches(p) })
	return int64(len(posts)), err
}

func (s *Store) ListPopular(ctx context.Context, skip, limit int) ([]models.Post, error) {
	posts, err := s.collect(ctx, func(*models.Post) bool { return true })
	if err != nil {
		return nil, err
	}
	ranking.SortRecent(posts)
	ranking.SortByPopularity(posts)
	return window(posts, skip, limit), nil
}

func (s *Store) collect(ctx context.Context, keep func(*models.Post) bool) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.read(ctx, func(st *state) error {
		for _, p := range st.posts {
			if keep(p) {
				posts = append(posts, *clonePost(p))
			}
		}
		return nil
	})
	return posts, err
}

func matchFilter(p *models.Post, f repositories.PostFilter) bool {
	if f.Authors != nil && !slices.Contains(f.Authors, p.Author.ID) {
		return false
	}
	if slices.Contains(f.ExcludeAuthors, p.Author.ID) {
		return false
	}
	if !f.CreatedBefore.IsZero() && p.CreatedAt.After(f.CreatedBefore) {
		return false
	}
	return true
}

func window(posts []models.Post, skip, limit int) []models.Post {
	if skip < 0 || skip >= len(posts) || limit <= 0 {
		return []models.Post{}
	}
	end := min(skip+limit, len(posts))
	return posts[skip:end]
}
