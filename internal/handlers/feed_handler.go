package handlers

import (
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/anonto42/nano-feed/backend/pkg/response"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the personalized feed, search and trending listings.
type FeedHandler struct {
	feed     *services.FeedService
	search   *services.SearchService
	trending *services.TrendingService
}

func NewFeedHandler(feed *services.FeedService, search *services.SearchService, trending *services.TrendingService) *FeedHandler {
	return &FeedHandler{feed: feed, search: search, trending: trending}
}

// RegisterFeedRoutes registers the routes that need a caller.
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.GET("/feed/following", h.GetFollowingFeed)
	g.GET("/posts/search", h.SearchPosts)
}

// RegisterPublicRoutes registers listings that do not depend on the caller.
func (h *FeedHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/posts/trending", h.GetTrending)
}

// GetFeed returns network posts merged with discovery posts. Its pagination
// counts network posts only; perPage carries the network share of limit that
// totalPages is computed from.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	p, err := pageParams(c)
	if err != nil {
		return err
	}
	page, err := h.feed.ComposeFeed(c.Request().Context(), userID, p)
	if err != nil {
		return err
	}
	return response.OK(c, "Feed retrieved successfully", page)
}

func (h *FeedHandler) GetFollowingFeed(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	p, err := pageParams(c)
	if err != nil {
		return err
	}
	page, err := h.feed.FollowingFeed(c.Request().Context(), userID, p)
	if err != nil {
		return err
	}
	return response.OK(c, "Following feed retrieved successfully", page)
}

// SearchPosts ranks posts matching ?q= by relevance tier, then recency.
func (h *FeedHandler) SearchPosts(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	p, err := pageParams(c)
	if err != nil {
		return err
	}
	page, err := h.search.Search(c.Request().Context(), userID, c.QueryParam("q"), p)
	if err != nil {
		return err
	}
	return response.OK(c, "Search results retrieved successfully", page)
}

func (h *FeedHandler) GetTrending(c echo.Context) error {
	p, err := pageParams(c)
	if err != nil {
		return err
	}
	page, err := h.trending.Trending(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return response.OK(c, "Trending posts retrieved successfully", page)
}
