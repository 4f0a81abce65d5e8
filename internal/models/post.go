package models

import (
	"slices"
	"time"
)

// AuthorSummary is a denormalized author snapshot taken when a post or
// comment is created. It is not refreshed when the author edits their profile.
type AuthorSummary struct {
	ID        string `json:"id" bson:"id"`
	Username  string `json:"username" bson:"username"`
	AvatarURL string `json:"avatarUrl,omitempty" bson:"avatar_url,omitempty"`
}

// Image references an asset held by the image store.
type Image struct {
	URL     string `json:"url" bson:"url"`
	AssetID string `json:"assetId" bson:"asset_id"`
	Width   int    `json:"width" bson:"width"`
	Height  int    `json:"height" bson:"height"`
	Format  string `json:"format" bson:"format"`
}

// Post represents a blog post stored in MongoDB
type Post struct {
	ID        string        `json:"id" bson:"_id"`
	Title     string        `json:"title" bson:"title"`
	Body      string        `json:"body" bson:"body"`
	Image     *Image        `json:"image,omitempty" bson:"image,omitempty"`
	Author    AuthorSummary `json:"author" bson:"author"`
	Likes     []string      `json:"likes" bson:"likes"`
	Comments  []Comment     `json:"comments" bson:"comments"`
	CreatedAt time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" bson:"updated_at"`
}

func (p *Post) LikeCount() int               { return len(p.Likes) }
func (p *Post) IsLikedBy(userID string) bool { return slices.Contains(p.Likes, userID) }

// NewImageUpload is an image supplied with a create-post request.
type NewImageUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreatePostRequest defines the multipart/JSON fields for creating a post
type CreatePostRequest struct {
	Title string `json:"title" form:"title" validate:"required,min=1,max=200"`
	Body  string `json:"body" form:"body" validate:"required,min=1,max=20000"`
}
