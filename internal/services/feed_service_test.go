package services

import (
	"context"
	"slices"
	"testing"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/pagination"
)

// feedScenario: u follows a and b, who have five posts each; twenty other
// users have one post each.
func feedScenario(t *testing.T) (*env, *models.User, []string) {
	t.Helper()
	ctx := context.Background()
	e := newEnv(t)
	u := e.user(t, "u")
	a := e.user(t, "a")
	b := e.user(t, "b")
	for _, target := range []*models.User{a, b} {
		if err := e.coordinator.Follow(ctx, u.ID, target.ID); err != nil {
			t.Fatal(err)
		}
	}

	var network []*models.Post
	for i := range 5 {
		network = append(network, e.post(t, a, 100+2*i, "a post", "body"))
		network = append(network, e.post(t, b, 101+2*i, "b post", "body"))
	}
	for i := range 20 {
		e.post(t, e.user(t, "other"+string(rune('a'+i))), i, "other post", "body")
	}

	// newest first
	slices.Reverse(network)
	ids := make([]string, len(network))
	for i, p := range network {
		ids[i] = p.ID
	}
	return e, u, ids
}

func TestComposeFeedBlendsNetworkAndDiscovery(t *testing.T) {
	e, u, network := feedScenario(t)

	page, err := e.feed.ComposeFeed(context.Background(), u.ID, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}

	if len(page.Posts) != 10 {
		t.Fatalf("got %d posts, want 10", len(page.Posts))
	}
	if got := postIDs(page.Posts[:3]); !slices.Equal(got, network[:3]) {
		t.Fatalf("network portion = %v, want %v", got, network[:3])
	}
	seen := map[string]bool{}
	for _, p := range page.Posts[3:] {
		if p.Author.ID == u.ID || slices.Contains(network, p.ID) {
			t.Fatalf("discovery returned network post %s", p.ID)
		}
		if seen[p.ID] {
			t.Fatalf("discovery repeated %s", p.ID)
		}
		seen[p.ID] = true
	}

	want := pagination.Summary{Total: 10, Page: 1, Limit: 10, PerPage: 3, TotalPages: 4, HasMore: true, NextPage: ptr(2)}
	assertSummary(t, page.Pagination, want)
	if got := page.Pagination; int64(got.TotalPages) != (got.Total+int64(got.PerPage)-1)/int64(got.PerPage) {
		t.Errorf("totalPages %d is not ceil(total/perPage) for %+v", got.TotalPages, got)
	}
}

func TestComposeFeedLaterPages(t *testing.T) {
	e, u, network := feedScenario(t)
	ctx := context.Background()

	page2, err := e.feed.ComposeFeed(ctx, u.ID, pagination.Params{Page: 2, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if got := postIDs(page2.Posts); !slices.Equal(got, network[3:6]) {
		t.Fatalf("page 2 = %v, want only %v", got, network[3:6])
	}

	page4, err := e.feed.ComposeFeed(ctx, u.ID, pagination.Params{Page: 4, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(page4.Posts) != 3 || page4.Posts[0].ID != network[9] {
		t.Fatalf("page 4 = %v, want %s plus two discovery posts", postIDs(page4.Posts), network[9])
	}
	if page4.Pagination.HasMore || page4.Pagination.NextPage != nil {
		t.Fatalf("last page reports more: %+v", page4.Pagination)
	}
}

func TestComposeFeedOutOfRangePageIsEmptyNetwork(t *testing.T) {
	e, u, network := feedScenario(t)

	page, err := e.feed.ComposeFeed(context.Background(), u.ID, pagination.Params{Page: 1 << 62, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range page.Posts {
		if slices.Contains(network, p.ID) {
			t.Fatalf("page beyond the network stream returned network post %s", p.ID)
		}
	}
	if page.Pagination.HasMore || page.Pagination.Total != 10 {
		t.Errorf("pagination = %+v", page.Pagination)
	}
}

func TestComposeFeedIncludesOwnPosts(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "u")
	mine := e.post(t, u, 1, "mine", "body")

	page, err := e.feed.ComposeFeed(context.Background(), u.ID, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Posts) != 1 || page.Posts[0].ID != mine.ID || page.Pagination.Total != 1 {
		t.Fatalf("feed = %v total %d", postIDs(page.Posts), page.Pagination.Total)
	}
}

func TestComposeFeedRequiresCaller(t *testing.T) {
	e := newEnv(t)
	for _, id := range []string{"", "ghost"} {
		_, err := e.feed.ComposeFeed(context.Background(), id, pagination.Params{Page: 1, Limit: 10})
		if !apperr.Is(err, apperr.KindUnauthorized) {
			t.Errorf("ComposeFeed(%q) = %v, want Unauthorized", id, err)
		}
	}
}

func TestFollowingFeedSkipsDiscovery(t *testing.T) {
	e, u, network := feedScenario(t)

	page, err := e.feed.FollowingFeed(context.Background(), u.ID, pagination.Params{Page: 1, Limit: 4})
	if err != nil {
		t.Fatal(err)
	}
	if got := postIDs(page.Posts); !slices.Equal(got, network[:4]) {
		t.Fatalf("following feed = %v, want %v", got, network[:4])
	}
	want := pagination.Summary{Total: 10, Page: 1, Limit: 4, TotalPages: 3, HasMore: true, NextPage: ptr(2)}
	assertSummary(t, page.Pagination, want)
}

func ptr(i int) *int { return &i }

func assertSummary(t *testing.T, got, want pagination.Summary) {
	t.Helper()
	eq := func(a, b *int) bool { return (a == nil && b == nil) || (a != nil && b != nil && *a == *b) }
	if got.Total != want.Total || got.Page != want.Page || got.Limit != want.Limit ||
		(want.PerPage != 0 && got.PerPage != want.PerPage) ||
		got.TotalPages != want.TotalPages || got.HasMore != want.HasMore ||
		!eq(got.NextPage, want.NextPage) || !eq(got.PrevPage, want.PrevPage) {
		t.Fatalf("pagination = %+v, want %+v", got, want)
	}
}
