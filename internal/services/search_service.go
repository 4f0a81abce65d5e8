package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/metrics"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/pagination"
	"github.com/anonto42/nano-feed/backend/internal/ranking"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

// SearchService answers keyword searches, blending matches from the caller's
// network with matches from everyone else.
type SearchService struct {
	users  repositories.UserRepository
	posts  repositories.PostRepository
	ratio  float64
	logger logrus.FieldLogger
	now    func() time.Time
}

func NewSearchService(users repositories.UserRepository, posts repositories.PostRepository, ratio float64, logger logrus.FieldLogger) *SearchService {
	return &SearchService{
		users:  users,
		posts:  posts,
		ratio:  ratio,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Search pages both match streams off the same limit. Each page takes the
// network share of the limit from network matches and the rest from
// discovery matches; once either stream runs dry the other fills the page.
// total counts matches in both streams.
func (s *SearchService) Search(ctx context.Context, userID, query string, p pagination.Params) (*PostPage, error) {
	start := time.Now()
	user, err := caller(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	m, err := ranking.NewMatcher(query)
	if err != nil {
		return nil, err
	}

	// Both streams share one cutoff so posts created mid-request cannot
	// shift the windows between the counts and the page reads.
	now := s.now()
	network := user.Network()
	networkFilter := repositories.PostFilter{Authors: network, CreatedBefore: now}
	discoveryFilter := repositories.PostFilter{ExcludeAuthors: network, CreatedBefore: now}

	networkTotal, err := s.posts.CountSearch(ctx, m, networkFilter)
	if err != nil {
		return nil, translate(err)
	}
	discoveryTotal, err := s.posts.CountSearch(ctx, m, discoveryFilter)
	if err != nil {
		return nil, translate(err)
	}

	networkLimit, _ := pagination.SplitLimit(p.Limit, s.ratio)
	w := pagination.SplitWindow(p.Page, p.Limit, networkLimit, networkTotal, discoveryTotal)

	var networkPosts, discovery []models.Post
	if w.NetworkTake > 0 {
		if networkPosts, err = s.posts.Search(ctx, m, networkFilter, w.NetworkSkip, w.NetworkTake); err != nil {
			return nil, translate(err)
		}
	}
	if w.DiscoveryTake > 0 {
		if discovery, err = s.posts.Search(ctx, m, discoveryFilter, w.DiscoverySkip, w.DiscoveryTake); err != nil {
			return nil, translate(err)
		}
	}

	posts := make([]models.Post, 0, len(networkPosts)+len(discovery))
	posts = append(posts, networkPosts...)
	posts = append(posts, discovery...)

	metrics.RecordRead("search", time.Since(start), len(networkPosts), len(discovery))
	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"query":   m.Query(),
		"matches": networkTotal + discoveryTotal,
	}).Debug("search served")

	return &PostPage{
		Posts:      posts,
		Pagination: pagination.Summarize(networkTotal+discoveryTotal, p.Page, p.Limit),
	}, nil
}
