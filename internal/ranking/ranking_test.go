package ranking

import (
	"testing"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/models"
)

func TestNewMatcherRejectsBlankQuery(t *testing.T) {
	for _, q := range []string{"", "   "} {
		if _, err := NewMatcher(q); !apperr.Is(err, apperr.KindBadRequest) {
			t.Errorf("NewMatcher(%q) error = %v, want BadRequest", q, err)
		}
	}
}

func TestMatcher(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
		want  bool
	}{
		{"case insensitive", "react", "Learning React today", true},
		{"whole word only", "react", "reactive streams", false},
		{"metacharacters are literal", "a.b", "axb", false},
		{"escaped dot matches itself", "a.b", "see a.b here", true},
		{"parentheses do not break the pattern", "go(lang", "go(lang rocks", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.query)
			if err != nil {
				t.Fatalf("NewMatcher() error = %v", err)
			}
			if got := m.MatchString(tt.text); got != tt.want {
				t.Errorf("MatchString(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSortSearchRanksTitleAboveBody(t *testing.T) {
	m, err := NewMatcher("react")
	if err != nil {
		t.Fatal(err)
	}
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	posts := []models.Post{
		{ID: "b", Title: "Frontend notes", Body: "I tried react once", CreatedAt: ts},
		{ID: "a", Title: "React Basics", Body: "components", CreatedAt: ts},
	}
	SortSearch(posts, m)
	if posts[0].ID != "a" {
		t.Errorf("first result = %s, want title match a", posts[0].ID)
	}
}

func TestSortSearchNewestWithinTier(t *testing.T) {
	m, _ := NewMatcher("go")
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	posts := []models.Post{
		{ID: "old", Title: "Go tips", CreatedAt: base},
		{ID: "body", Title: "misc", Body: "go go go", CreatedAt: base.Add(48 * time.Hour)},
		{ID: "new", Title: "Go generics", CreatedAt: base.Add(time.Hour)},
	}
	SortSearch(posts, m)
	got := []string{posts[0].ID, posts[1].ID, posts[2].ID}
	want := []string{"new", "old", "body"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestScore(t *testing.T) {
	if got := Score(4, 0); got != 4 {
		t.Errorf("Score(4,0) = %v, want 4", got)
	}
	if got := Score(2, 2); got != 5 {
		t.Errorf("Score(2,2) = %v, want 5", got)
	}
}

func TestSortByPopularity(t *testing.T) {
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a := models.Post{ID: "a", Likes: []string{"u1", "u2", "u3", "u4"}, CreatedAt: ts}
	b := models.Post{ID: "b", Likes: []string{"u1", "u2"}, Comments: []models.Comment{{ID: "c1"}, {ID: "c2"}}, CreatedAt: ts}
	quiet := models.Post{ID: "quiet", CreatedAt: ts.Add(time.Hour)}
	tie := models.Post{ID: "tie", Likes: []string{"u9", "u8", "u7", "u6"}, CreatedAt: ts.Add(time.Minute)}

	posts := []models.Post{quiet, a, b, tie}
	SortByPopularity(posts)

	want := []string{"b", "tie", "a", "quiet"}
	for i, id := range want {
		if posts[i].ID != id {
			t.Fatalf("position %d = %s, want %s (full order %v)", i, posts[i].ID, id, ids(posts))
		}
	}
}

func ids(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i := range posts {
		out[i] = posts[i].ID
	}
	return out
}
