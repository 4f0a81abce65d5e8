// Package pagination parses page/limit parameters and computes page windows
// and navigation metadata for list endpoints.
package pagination

import (
	"math"
	"strconv"
	"strings"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50
	// MaxOffset bounds (page-1)*limit so window offsets stay representable
	// in every store.
	MaxOffset = math.MaxInt32
)

// Params is a validated page request.
type Params struct {
	Page  int
	Limit int
}

// Parse validates raw page and limit values. Empty values fall back to the defaults.
func Parse(rawPage, rawLimit string) (Params, error) {
	page, err := parsePositive(rawPage, DefaultPage, "page")
	if err != nil {
		return Params{}, err
	}
	limit, err := parsePositive(rawLimit, DefaultLimit, "limit")
	if err != nil {
		return Params{}, err
	}
	if limit > MaxLimit {
		return Params{}, apperr.BadRequest("Invalid limit: must be at most " + strconv.Itoa(MaxLimit))
	}
	if int64(page-1)*int64(limit) > MaxOffset {
		return Params{}, apperr.BadRequest("Invalid page: out of range")
	}
	return Params{Page: page, Limit: limit}, nil
}

func parsePositive(raw string, def int, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequest("Invalid " + name + ": must be a number")
	}
	if n < 1 {
		return 0, apperr.BadRequest("Invalid " + name + ": must be at least 1")
	}
	return n, nil
}

// Skip returns the number of items before the given page.
func Skip(page, limit int) int {
	return (page - 1) * limit
}

// Skip is the window offset of p.
func (p Params) Skip() int { return Skip(p.Page, p.Limit) }

// Summary describes where a page sits in the full result set. PerPage is how
// many of Total each page consumes; TotalPages is always ceil(Total/PerPage).
// It differs from Limit only when a page blends streams and Total counts one of them.
type Summary struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	PerPage    int   `json:"perPage"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
	NextPage   *int  `json:"nextPage"`
	PrevPage   *int  `json:"prevPage"`
}

// Summarize builds navigation metadata for page over total items.
func Summarize(total int64, page, limit int) Summary {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	s := Summary{
		Total:      total,
		Page:       page,
		Limit:      limit,
		PerPage:    limit,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
	if s.HasMore {
		next := page + 1
		s.NextPage = &next
	}
	if page > 1 {
		prev := page - 1
		s.PrevPage = &prev
	}
	return s
}
