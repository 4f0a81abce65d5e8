package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/metrics"
	"github.com/anonto42/nano-feed/backend/internal/pagination"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

// TrendingService ranks the whole corpus by popularity. Pages are served
// from cache when one is configured.
type TrendingService struct {
	posts  repositories.PostRepository
	cache  repositories.PageCache
	logger logrus.FieldLogger
}

// NewTrendingService builds the service. cache may be nil.
func NewTrendingService(posts repositories.PostRepository, cache repositories.PageCache, logger logrus.FieldLogger) *TrendingService {
	return &TrendingService{posts: posts, cache: cache, logger: logger}
}

func (s *TrendingService) Trending(ctx context.Context, p pagination.Params) (*PostPage, error) {
	start := time.Now()

	cache := s.cache
	var gen int64
	if cache != nil {
		var err error
		if gen, err = cache.Generation(ctx); err != nil {
			metrics.TrendingCacheLookups.WithLabelValues("error").Inc()
			s.logger.WithError(err).Warn("trending cache generation read failed")
			cache = nil
		}
	}

	if cache != nil {
		var cached PostPage
		hit, err := cache.Get(ctx, gen, p.Page, p.Limit, &cached)
		switch {
		case err != nil:
			metrics.TrendingCacheLookups.WithLabelValues("error").Inc()
			s.logger.WithError(err).Warn("trending cache read failed")
		case hit:
			metrics.TrendingCacheLookups.WithLabelValues("hit").Inc()
			metrics.RecordRead("trending", time.Since(start), len(cached.Posts), 0)
			return &cached, nil
		default:
			metrics.TrendingCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	posts, err := s.posts.ListPopular(ctx, p.Skip(), p.Limit)
	if err != nil {
		return nil, translate(err)
	}
	total, err := s.posts.Count(ctx, repositories.PostFilter{})
	if err != nil {
		return nil, translate(err)
	}
	page := &PostPage{Posts: posts, Pagination: pagination.Summarize(total, p.Page, p.Limit)}

	// Written under the generation read before the query; an invalidation
	// that raced the query leaves this page unaddressed.
	if cache != nil {
		if err := cache.Set(ctx, gen, p.Page, p.Limit, page); err != nil {
			s.logger.WithError(err).Warn("trending cache write failed")
		}
	}
	metrics.RecordRead("trending", time.Since(start), len(posts), 0)
	return page, nil
}
