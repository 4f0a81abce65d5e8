// Package ranking orders posts for search and trending endpoints.
package ranking

import (
	"regexp"
	"sort"
	"strings"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/models"
)

const (
	TierTitle   = 1
	TierBody    = 2
	TierNoMatch = 0
)

// Matcher is a whole-word, case-insensitive literal matcher built from a user query.
type Matcher struct {
	query   string
	pattern string
	re      *regexp.Regexp
}

// NewMatcher escapes query so that regex metacharacters match literally.
func NewMatcher(query string) (*Matcher, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, apperr.BadRequest("Search query is required")
	}
	pattern := `\b` + regexp.QuoteMeta(q) + `\b`
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, apperr.BadRequest("Invalid search query")
	}
	return &Matcher{query: q, pattern: pattern, re: re}, nil
}

func (m *Matcher) Query() string { return m.query }

// Pattern is the expression without flags, for stores that take
// case-insensitivity as a separate option.
func (m *Matcher) Pattern() string { return m.pattern }

func (m *Matcher) MatchString(s string) bool { return m.re.MatchString(s) }

// Tier ranks a title match above a body-only match.
func (m *Matcher) Tier(title, body string) int {
	switch {
	case m.re.MatchString(title):
		return TierTitle
	case m.re.MatchString(body):
		return TierBody
	default:
		return TierNoMatch
	}
}

// Matches reports whether p's title or body contains the query.
func (m *Matcher) Matches(p *models.Post) bool {
	return m.Tier(p.Title, p.Body) != TierNoMatch
}

// SortSearch orders posts by tier, then newest first.
func SortSearch(posts []models.Post, m *Matcher) {
	tiers := make(map[string]int, len(posts))
	for i := range posts {
		tiers[posts[i].ID] = m.Tier(posts[i].Title, posts[i].Body)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		ti, tj := tiers[posts[i].ID], tiers[posts[j].ID]
		if ti != tj {
			return ti < tj
		}
		return newer(&posts[i], &posts[j])
	})
}

func newer(a, b *models.Post) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// SortRecent orders posts newest first.
func SortRecent(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool { return newer(&posts[i], &posts[j]) })
}
