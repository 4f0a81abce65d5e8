package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/metrics"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/pagination"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

// FeedService composes a caller's feed from their network stream and a
// random discovery stream.
type FeedService struct {
	users  repositories.UserRepository
	posts  repositories.PostRepository
	ratio  float64
	logger logrus.FieldLogger
	now    func() time.Time
}

func NewFeedService(users repositories.UserRepository, posts repositories.PostRepository, ratio float64, logger logrus.FieldLogger) *FeedService {
	return &FeedService{
		users:  users,
		posts:  posts,
		ratio:  ratio,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ComposeFeed returns one page of the caller's feed.
//
// The network stream advances networkLimit posts per page and anchors the
// pagination: total counts network posts only, perPage reports networkLimit,
// and totalPages is the number of pages needed to drain the network stream. Discovery posts are sampled
// on page one and to fill any network shortfall; they are random per request
// and never repeat the network stream.
func (s *FeedService) ComposeFeed(ctx context.Context, userID string, p pagination.Params) (*PostPage, error) {
	start := time.Now()
	user, err := caller(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	networkLimit, discoveryLimit := pagination.SplitLimit(p.Limit, s.ratio)
	network := user.Network()
	now := s.now()

	networkFilter := repositories.PostFilter{Authors: network, CreatedBefore: now}
	networkPosts, err := s.posts.ListRecent(ctx, networkFilter, pagination.Skip(p.Page, networkLimit), networkLimit)
	if err != nil {
		return nil, translate(err)
	}
	total, err := s.posts.Count(ctx, networkFilter)
	if err != nil {
		return nil, translate(err)
	}

	want := networkLimit - len(networkPosts)
	if p.Page == 1 {
		want += discoveryLimit
	}
	var discovery []models.Post
	if want > 0 {
		discovery, err = s.posts.Sample(ctx, repositories.PostFilter{ExcludeAuthors: network, CreatedBefore: now}, want)
		if err != nil {
			return nil, translate(err)
		}
	}

	posts := make([]models.Post, 0, len(networkPosts)+len(discovery))
	posts = append(posts, networkPosts...)
	posts = append(posts, discovery...)

	summary := pagination.Summarize(total, p.Page, networkLimit)
	summary.Limit = p.Limit

	metrics.RecordRead("feed", time.Since(start), len(networkPosts), len(discovery))
	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"page":      p.Page,
		"network":   len(networkPosts),
		"discovery": len(discovery),
	}).Debug("feed composed")

	return &PostPage{Posts: posts, Pagination: summary}, nil
}

// FollowingFeed is the network stream alone, paged by the full limit.
func (s *FeedService) FollowingFeed(ctx context.Context, userID string, p pagination.Params) (*PostPage, error) {
	start := time.Now()
	user, err := caller(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	filter := repositories.PostFilter{Authors: user.Network(), CreatedBefore: s.now()}
	posts, err := s.posts.ListRecent(ctx, filter, p.Skip(), p.Limit)
	if err != nil {
		return nil, translate(err)
	}
	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, translate(err)
	}

	metrics.RecordRead("following_feed", time.Since(start), len(posts), 0)
	return &PostPage{Posts: posts, Pagination: pagination.Summarize(total, p.Page, p.Limit)}, nil
}
