package services

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/events"
	"github.com/anonto42/nano-feed/backend/internal/imagestore"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/pagination"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/anonto42/nano-feed/backend/internal/repositories/memstore"
	"github.com/sirupsen/logrus"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	store         *memstore.Store
	images        *imagestore.Memory
	events        *events.Recorder
	notifications *memstore.Notifications
	cache         *mapCache
	coordinator   *Coordinator
	feed          *FeedService
	search        *SearchService
	trending      *TrendingService
	profiles      *ProfileService
	logger        *logrus.Logger
	seq           int
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	e := &env{
		store:         memstore.New(42),
		images:        imagestore.NewMemory("http://images.test"),
		events:        &events.Recorder{},
		notifications: memstore.NewNotifications(),
		cache:         newMapCache(),
		logger:        logger,
	}
	e.coordinator = NewCoordinator(CoordinatorDeps{
		Transactor:    e.store,
		Users:         e.store,
		Posts:         e.store,
		Images:        e.images,
		Notifications: NewNotificationService(e.notifications, logger),
		Publisher:     e.events,
		Trending:      e.cache,
		Backoff:       func(int) time.Duration { return 0 },
		Logger:        logger,
	})
	e.feed = NewFeedService(e.store, e.store, 0.3, logger)
	e.search = NewSearchService(e.store, e.store, 0.3, logger)
	e.trending = NewTrendingService(e.store, e.cache, logger)
	e.profiles = NewProfileService(e.store, e.store)
	return e
}

func (e *env) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com"}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// post seeds a post at base+minute, registering it with its author.
func (e *env) post(t *testing.T, author *models.User, minute int, title, body string) *models.Post {
	t.Helper()
	ctx := context.Background()
	e.seq++
	p := &models.Post{
		ID:        fmt.Sprintf("%s-%03d-%d", author.Username, minute, e.seq),
		Title:     title,
		Body:      body,
		Author:    author.Summary(),
		CreatedAt: base.Add(time.Duration(minute) * time.Minute),
	}
	if err := e.store.CreatePost(ctx, p); err != nil {
		t.Fatal(err)
	}
	if _, err := e.store.AddToSet(ctx, author.ID, repositories.SetPosts, p.ID); err != nil {
		t.Fatal(err)
	}
	return p
}

func (e *env) reload(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := e.store.GetUserByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func postIDs(posts []models.Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

// mapCache is an in-memory PageCache. Invalidate drops every stored page
// and advances the generation.
type mapCache struct {
	pages       map[string]any
	gen         int64
	invalidated int
}

func newMapCache() *mapCache { return &mapCache{pages: map[string]any{}} }

func (c *mapCache) key(gen int64, page, limit int) string {
	return fmt.Sprintf("%d:%d:%d", gen, page, limit)
}

func (c *mapCache) Generation(context.Context) (int64, error) { return c.gen, nil }

func (c *mapCache) Get(_ context.Context, gen int64, page, limit int, dest any) (bool, error) {
	v, ok := c.pages[c.key(gen, page, limit)]
	if !ok {
		return false, nil
	}
	*dest.(*PostPage) = *v.(*PostPage)
	return true, nil
}

func (c *mapCache) Set(_ context.Context, gen int64, page, limit int, value any) error {
	c.pages[c.key(gen, page, limit)] = value
	return nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.pages = map[string]any{}
	c.gen++
	c.invalidated++
	return nil
}

func pagination1() pagination.Params { return pagination.Params{Page: 1, Limit: 10} }
