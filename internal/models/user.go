package models

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is a member of the social graph. Relations are held as plain ids and
// resolved through the repositories, never as embedded documents.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	FirebaseUID  string    `json:"-" bson:"firebase_uid,omitempty"`
	DisplayName  string    `json:"displayName,omitempty" bson:"display_name,omitempty"`
	Bio          string    `json:"bio,omitempty" bson:"bio,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty" bson:"avatar_url,omitempty"`
	Following    []string  `json:"following" bson:"following"`
	Followers    []string  `json:"followers" bson:"followers"`
	Saves        []string  `json:"saves" bson:"saves"`
	Posts        []string  `json:"posts" bson:"posts"` // authored post ids, oldest first
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// Summary snapshots the author fields embedded into posts and comments.
func (u *User) Summary() AuthorSummary {
	return AuthorSummary{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}

func (u *User) IsFollowing(userID string) bool { return slices.Contains(u.Following, userID) }
func (u *User) HasAuthored(postID string) bool { return slices.Contains(u.Posts, postID) }
func (u *User) HasSaved(postID string) bool    { return slices.Contains(u.Saves, postID) }

// Network is the set of authors whose posts make up the user's network stream:
// everyone they follow plus themselves.
func (u *User) Network() []string {
	network := make([]string, 0, len(u.Following)+1)
	network = append(network, u.ID)
	for _, id := range u.Following {
		if id != u.ID {
			network = append(network, id)
		}
	}
	return network
}

// Profile is a user with relations resolved for display.
type Profile struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email,omitempty"`
	DisplayName string          `json:"displayName,omitempty"`
	Bio         string          `json:"bio,omitempty"`
	AvatarURL   string          `json:"avatarUrl,omitempty"`
	Following   []AuthorSummary `json:"following"`
	Followers   []AuthorSummary `json:"followers"`
	Posts       []Post          `json:"posts"`
	Saves       []Post          `json:"saves,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type SignupRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"displayName" validate:"omitempty,max=50"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
