package models

import "time"

// Comment is embedded in its Post; ID is unique within the post only.
type Comment struct {
	ID        string        `json:"id" bson:"id"`
	Author    AuthorSummary `json:"author" bson:"author"`
	Body      string        `json:"body" bson:"body"`
	CreatedAt time.Time     `json:"createdAt" bson:"created_at"`
}

// CreateCommentRequest defines the request body for commenting on a post
type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}
