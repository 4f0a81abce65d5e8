package ranking

import (
	"sort"

	"github.com/anonto42/nano-feed/backend/internal/models"
)

// Engagement weights for the popularity score.
const (
	WeightLikes    = 1.0
	WeightComments = 1.5
)

// Score is the weighted engagement of a post.
func Score(likes, comments int) float64 {
	return float64(likes)*WeightLikes + float64(comments)*WeightComments
}

// PostScore scores p from its like set and comment list.
func PostScore(p *models.Post) float64 {
	return Score(len(p.Likes), len(p.Comments))
}

// SortByPopularity orders posts by score descending, then newest first.
func SortByPopularity(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		si, sj := PostScore(&posts[i]), PostScore(&posts[j])
		if si != sj {
			return si > sj
		}
		return newer(&posts[i], &posts[j])
	})
}
