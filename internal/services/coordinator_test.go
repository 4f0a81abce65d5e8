package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"reflect"
	"slices"
	"testing"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/events"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/retry"
)

func TestFollowIsSymmetric(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.user(t, "alice")
	b := e.user(t, "bob")

	if err := e.coordinator.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	if !e.reload(t, a.ID).IsFollowing(b.ID) || !slices.Contains(e.reload(t, b.ID).Followers, a.ID) {
		t.Fatal("follow not recorded on both sides")
	}

	if err := e.coordinator.Unfollow(ctx, a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	if e.reload(t, a.ID).IsFollowing(b.ID) || slices.Contains(e.reload(t, b.ID).Followers, a.ID) {
		t.Fatal("unfollow left a dangling side")
	}

	want := []string{events.SubjectUserFollowed, events.SubjectUserUnfollowed}
	if got := e.events.Subjects(); !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestFollowRejections(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.user(t, "alice")
	b := e.user(t, "bob")
	if err := e.coordinator.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	beforeA, beforeB := e.reload(t, a.ID), e.reload(t, b.ID)
	commits := e.store.Commits()

	tests := []struct {
		name string
		run  func() error
		kind apperr.Kind
	}{
		{"follow again", func() error { return e.coordinator.Follow(ctx, a.ID, b.ID) }, apperr.KindConflict},
		{"follow self", func() error { return e.coordinator.Follow(ctx, a.ID, a.ID) }, apperr.KindConflict},
		{"unfollow not followed", func() error { return e.coordinator.Unfollow(ctx, b.ID, a.ID) }, apperr.KindConflict},
		{"follow missing", func() error { return e.coordinator.Follow(ctx, a.ID, "ghost") }, apperr.KindNotFound},
		{"missing follower", func() error { return e.coordinator.Follow(ctx, "ghost", a.ID) }, apperr.KindNotFound},
		{"anonymous", func() error { return e.coordinator.Follow(ctx, "", a.ID) }, apperr.KindUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !apperr.Is(err, tt.kind) {
				t.Fatalf("err = %v, want %s", err, tt.kind)
			}
		})
	}

	if !reflect.DeepEqual(beforeA, e.reload(t, a.ID)) || !reflect.DeepEqual(beforeB, e.reload(t, b.ID)) {
		t.Fatal("rejected operations changed the graph")
	}
	if e.store.Commits() != commits {
		t.Fatalf("rejected operations committed %d times", e.store.Commits()-commits)
	}
}

func TestFollowRetriesTransientConflicts(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.user(t, "alice")
	b := e.user(t, "bob")

	e.store.InjectConflicts(2)

	if err := e.coordinator.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Follow after two conflicts: %v", err)
	}
	if e.store.Commits() != 1 {
		t.Fatalf("commits = %d, want exactly 1", e.store.Commits())
	}
	if got := e.reload(t, a.ID).Following; !slices.Equal(got, []string{b.ID}) {
		t.Fatalf("following = %v", got)
	}
	if got := e.reload(t, b.ID).Followers; !slices.Equal(got, []string{a.ID}) {
		t.Fatalf("followers = %v", got)
	}
}

func TestRetryExhaustionIsInternal(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.user(t, "alice")
	b := e.user(t, "bob")
	e.store.InjectConflicts(DefaultMaxAttempts)

	err := e.coordinator.Follow(ctx, a.ID, b.ID)
	if !apperr.Is(err, apperr.KindInternal) || !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("err = %v, want Internal wrapping ErrExhausted", err)
	}
	if e.store.Commits() != 0 || e.reload(t, a.ID).IsFollowing(b.ID) {
		t.Fatal("exhausted follow left a trace")
	}
	if len(e.events.Subjects()) != 0 {
		t.Fatal("event published for an uncommitted follow")
	}
}

func TestLikeTwiceIsConflict(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	w := e.user(t, "writer")
	fan := e.user(t, "fan")
	p := e.post(t, w, 1, "t", "b")

	n, err := e.coordinator.Like(ctx, fan.ID, p.ID)
	if err != nil || n != 1 {
		t.Fatalf("Like = %d, %v", n, err)
	}
	if _, err := e.coordinator.Like(ctx, fan.ID, p.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second Like = %v, want Conflict", err)
	}
	got, _ := e.store.GetPostByID(ctx, p.ID)
	if got.LikeCount() != 1 {
		t.Fatalf("likes = %v", got.Likes)
	}

	n, err = e.coordinator.Unlike(ctx, fan.ID, p.ID)
	if err != nil || n != 0 {
		t.Fatalf("Unlike = %d, %v", n, err)
	}
	if _, err := e.coordinator.Unlike(ctx, fan.ID, p.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second Unlike = %v, want Conflict", err)
	}
	if _, err := e.coordinator.Unlike(ctx, fan.ID, "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("Unlike missing post = %v, want NotFound", err)
	}
}

func TestLikeNotifiesAuthorButNotSelf(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	w := e.user(t, "writer")
	fan := e.user(t, "fan")
	p := e.post(t, w, 1, "t", "b")

	if _, err := e.coordinator.Like(ctx, w.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.coordinator.Like(ctx, fan.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.coordinator.Comment(ctx, fan.ID, p.ID, "hello"); err != nil {
		t.Fatal(err)
	}

	items, total, _ := e.notifications.GetByRecipientID(ctx, w.ID, 0, 10)
	if total != 2 {
		t.Fatalf("writer has %d notifications, want 2", total)
	}
	if items[0].Type != models.NotificationComment || items[1].Type != models.NotificationLike {
		t.Fatalf("notifications = %+v", items)
	}
	if items[1].ActorID != fan.ID || items[1].Message != "fan liked your post" {
		t.Fatalf("like notification = %+v", items[1])
	}
}

func TestCommentAppendsSnapshot(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	w := e.user(t, "writer")
	fan := e.user(t, "fan")
	p := e.post(t, w, 1, "t", "b")

	c, err := e.coordinator.Comment(ctx, fan.ID, p.ID, "  first!  ")
	if err != nil {
		t.Fatal(err)
	}
	if c.Body != "first!" || c.Author.ID != fan.ID || c.Author.Username != "fan" || c.ID == "" {
		t.Fatalf("comment = %+v", c)
	}
	got, _ := e.store.GetPostByID(ctx, p.ID)
	if len(got.Comments) != 1 || got.Comments[0].ID != c.ID {
		t.Fatalf("comments = %+v", got.Comments)
	}

	if _, err := e.coordinator.Comment(ctx, fan.ID, "missing", "x"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("comment on missing post = %v", err)
	}
	if _, err := e.coordinator.Comment(ctx, "ghost", p.ID, "x"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("comment by missing user = %v", err)
	}
	if _, err := e.coordinator.Comment(ctx, fan.ID, p.ID, " "); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("blank comment = %v", err)
	}
}

func pngUpload(t *testing.T) *models.NewImageUpload {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatal(err)
	}
	return &models.NewImageUpload{Name: "p.png", ContentType: "image/png", Data: buf.Bytes()}
}

func TestCreateAndDeletePost(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	w := e.user(t, "writer")
	other := e.user(t, "other")

	post, err := e.coordinator.CreatePost(ctx, w.ID, models.CreatePostRequest{Title: "Hello", Body: "World"}, pngUpload(t))
	if err != nil {
		t.Fatal(err)
	}
	if post.Image == nil || post.Image.Width != 3 || post.Image.Height != 2 || post.Image.Format != "png" {
		t.Fatalf("image = %+v", post.Image)
	}
	if post.Author.ID != w.ID || !e.reload(t, w.ID).HasAuthored(post.ID) {
		t.Fatal("post not linked to its author")
	}

	if err := e.coordinator.DeletePost(ctx, other.ID, post.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("delete by other = %v, want Forbidden", err)
	}
	if err := e.coordinator.DeletePost(ctx, w.ID, post.ID); err != nil {
		t.Fatal(err)
	}
	if e.reload(t, w.ID).HasAuthored(post.ID) {
		t.Fatal("deleted post still listed on author")
	}
	if e.images.Has(post.Image.AssetID) {
		t.Fatal("image not released")
	}
	if err := e.coordinator.DeletePost(ctx, w.ID, post.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("second delete = %v, want NotFound", err)
	}

	want := []string{events.SubjectPostCreated, events.SubjectPostDeleted}
	if got := e.events.Subjects(); !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestCreatePostValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	w := e.user(t, "writer")

	tests := []struct {
		name   string
		author string
		req    models.CreatePostRequest
		kind   apperr.Kind
	}{
		{"anonymous", "", models.CreatePostRequest{Title: "t", Body: "b"}, apperr.KindUnauthorized},
		{"blank title", w.ID, models.CreatePostRequest{Title: " ", Body: "b"}, apperr.KindBadRequest},
		{"blank body", w.ID, models.CreatePostRequest{Title: "t"}, apperr.KindBadRequest},
		{"unknown author", "ghost", models.CreatePostRequest{Title: "t", Body: "b"}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.coordinator.CreatePost(ctx, tt.author, tt.req, nil); !apperr.Is(err, tt.kind) {
				t.Fatalf("err = %v, want %s", err, tt.kind)
			}
		})
	}

	_, err := e.coordinator.CreatePost(ctx, w.ID, models.CreatePostRequest{Title: "t", Body: "b"},
		&models.NewImageUpload{Data: []byte("not an image")})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("bad image = %v, want BadRequest", err)
	}
}

func TestCreatePostReleasesImageWhenCommitFails(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	w := e.user(t, "writer")
	e.store.InjectConflicts(DefaultMaxAttempts)

	_, err := e.coordinator.CreatePost(ctx, w.ID, models.CreatePostRequest{Title: "t", Body: "b"}, pngUpload(t))
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("err = %v, want Internal", err)
	}
	if e.images.Len() != 0 {
		t.Fatalf("%d orphaned images left behind", e.images.Len())
	}
	if len(e.reload(t, w.ID).Posts) != 0 {
		t.Fatal("uncommitted post linked to author")
	}
}

func TestSaveAndUnsave(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.user(t, "reader")
	p := e.post(t, e.user(t, "writer"), 1, "t", "b")

	if err := e.coordinator.SavePost(ctx, u.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	if err := e.coordinator.SavePost(ctx, u.ID, p.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second save = %v, want Conflict", err)
	}
	if err := e.coordinator.SavePost(ctx, u.ID, "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("save missing = %v, want NotFound", err)
	}
	if err := e.coordinator.UnsavePost(ctx, u.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	if err := e.coordinator.UnsavePost(ctx, u.ID, p.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second unsave = %v, want Conflict", err)
	}
	if e.reload(t, u.ID).HasSaved(p.ID) {
		t.Fatal("post still saved")
	}
}
