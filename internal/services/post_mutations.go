package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/events"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/google/uuid"
)

// CreatePost stores an optional image, then inserts the post and appends it
// to the author's posts in one transaction. If the transaction does not
// commit the uploaded image is released.
func (c *Coordinator) CreatePost(ctx context.Context, authorID string, req models.CreatePostRequest, upload *models.NewImageUpload) (*models.Post, error) {
	if authorID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}
	title, body := strings.TrimSpace(req.Title), strings.TrimSpace(req.Body)
	if title == "" || body == "" {
		return nil, apperr.BadRequest("Title and body are required")
	}
	if _, err := c.users.GetUserByID(ctx, authorID); err != nil {
		return nil, translate(err)
	}

	var image *models.Image
	if upload != nil {
		if c.images == nil {
			return nil, apperr.BadRequest("Image uploads are not enabled")
		}
		img, err := c.images.Put(ctx, *upload)
		if err != nil {
			if apperr.Is(err, apperr.KindBadRequest) {
				return nil, err
			}
			return nil, apperr.Internal("Image upload failed", err)
		}
		image = img
	}

	post, err := mutate(ctx, c, "create_post", func(ctx context.Context) (*models.Post, error) {
		author, err := c.users.GetUserByID(ctx, authorID)
		if err != nil {
			return nil, err
		}
		post := &models.Post{
			Title:  title,
			Body:   body,
			Image:  image,
			Author: author.Summary(),
		}
		if err := c.posts.CreatePost(ctx, post); err != nil {
			return nil, err
		}
		if _, err := c.users.AddToSet(ctx, author.ID, repositories.SetPosts, post.ID); err != nil {
			return nil, err
		}
		return post, nil
	})
	if err != nil {
		if image != nil {
			c.releaseImage(ctx, image.AssetID, "create_post_failed")
		}
		return nil, err
	}

	c.afterCommit(ctx, events.New(events.SubjectPostCreated, authorID, post.ID, nil), true)
	return post, nil
}

// DeletePost removes a post the caller authored. A missing post is NotFound
// even for its former author, so deleting twice reports NotFound.
func (c *Coordinator) DeletePost(ctx context.Context, userID, postID string) error {
	if userID == "" {
		return apperr.Unauthorized("Authentication required")
	}
	image, err := mutate(ctx, c, "delete_post", func(ctx context.Context) (*models.Image, error) {
		user, err := c.users.GetUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		post, err := c.posts.GetPostByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		if !user.HasAuthored(postID) {
			return nil, apperr.Forbidden("You can only delete your own posts")
		}
		if err := c.posts.DeletePost(ctx, postID); err != nil {
			return nil, err
		}
		if _, err := c.users.RemoveFromSet(ctx, userID, repositories.SetPosts, postID); err != nil {
			return nil, err
		}
		return post.Image, nil
	})
	if err != nil {
		return err
	}

	if image != nil {
		c.releaseImage(ctx, image.AssetID, "post_deleted")
	}
	c.afterCommit(ctx, events.New(events.SubjectPostDeleted, userID, postID, nil), true)
	return nil
}

type likeOutcome struct {
	count  int
	author string
	actor  models.AuthorSummary
}

// Like adds the caller to the post's likes and returns the new like count.
// Liking an already liked post is a Conflict.
func (c *Coordinator) Like(ctx context.Context, userID, postID string) (int, error) {
	out, err := c.toggleLike(ctx, "like", userID, postID, true)
	if err != nil {
		return 0, err
	}
	c.notifications.Notify(ctx, models.Notification{
		Type:        models.NotificationLike,
		ActorID:     userID,
		ActorName:   out.actor.Username,
		RecipientID: out.author,
		TargetID:    postID,
		TargetType:  "post",
		Message:     out.actor.Username + " liked your post",
	})
	c.afterCommit(ctx, events.New(events.SubjectPostLiked, userID, postID,
		map[string]string{"likes": strconv.Itoa(out.count)}), true)
	return out.count, nil
}

// Unlike removes the caller from the post's likes and returns the new like
// count. Unliking a post the caller has not liked is a Conflict.
func (c *Coordinator) Unlike(ctx context.Context, userID, postID string) (int, error) {
	out, err := c.toggleLike(ctx, "unlike", userID, postID, false)
	if err != nil {
		return 0, err
	}
	c.afterCommit(ctx, events.New(events.SubjectPostUnliked, userID, postID,
		map[string]string{"likes": strconv.Itoa(out.count)}), true)
	return out.count, nil
}

func (c *Coordinator) toggleLike(ctx context.Context, op, userID, postID string, add bool) (likeOutcome, error) {
	if userID == "" {
		return likeOutcome{}, apperr.Unauthorized("Authentication required")
	}
	return mutate(ctx, c, op, func(ctx context.Context) (likeOutcome, error) {
		user, err := c.users.GetUserByID(ctx, userID)
		if err != nil {
			return likeOutcome{}, err
		}
		post, err := c.posts.GetPostByID(ctx, postID)
		if err != nil {
			return likeOutcome{}, err
		}

		var (
			changed bool
			count   int
		)
		if add {
			changed, count, err = c.posts.AddLike(ctx, postID, userID)
		} else {
			changed, count, err = c.posts.RemoveLike(ctx, postID, userID)
		}
		if err != nil {
			return likeOutcome{}, err
		}
		if !changed && add {
			return likeOutcome{}, apperr.Conflict("You have already liked this post")
		}
		if !changed {
			return likeOutcome{}, apperr.Conflict("You have not liked this post")
		}
		return likeOutcome{count: count, author: post.Author.ID, actor: user.Summary()}, nil
	})
}

// Comment appends a comment by the caller to the post.
func (c *Coordinator) Comment(ctx context.Context, userID, postID, body string) (*models.Comment, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.BadRequest("Comment body is required")
	}

	var postAuthor string
	comment, err := mutate(ctx, c, "comment", func(ctx context.Context) (*models.Comment, error) {
		user, err := c.users.GetUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		post, err := c.posts.GetPostByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		comment := models.Comment{
			ID:        uuid.NewString(),
			Author:    user.Summary(),
			Body:      body,
			CreatedAt: time.Now().UTC(),
		}
		if err := c.posts.AddComment(ctx, postID, comment); err != nil {
			return nil, err
		}
		postAuthor = post.Author.ID
		return &comment, nil
	})
	if err != nil {
		return nil, err
	}

	c.notifications.Notify(ctx, models.Notification{
		Type:        models.NotificationComment,
		ActorID:     userID,
		ActorName:   comment.Author.Username,
		RecipientID: postAuthor,
		TargetID:    postID,
		TargetType:  "post",
		Message:     comment.Author.Username + " commented on your post",
	})
	c.afterCommit(ctx, events.New(events.SubjectPostCommented, userID, postID,
		map[string]string{"commentId": comment.ID}), true)
	return comment, nil
}

// SavePost adds the post to the caller's saves.
func (c *Coordinator) SavePost(ctx context.Context, userID, postID string) error {
	return c.toggleSave(ctx, "save_post", userID, postID, true)
}

// UnsavePost removes the post from the caller's saves. The post itself may
// already be gone.
func (c *Coordinator) UnsavePost(ctx context.Context, userID, postID string) error {
	return c.toggleSave(ctx, "unsave_post", userID, postID, false)
}

func (c *Coordinator) toggleSave(ctx context.Context, op, userID, postID string, add bool) error {
	if userID == "" {
		return apperr.Unauthorized("Authentication required")
	}
	_, err := mutate(ctx, c, op, func(ctx context.Context) (struct{}, error) {
		if add {
			if _, err := c.posts.GetPostByID(ctx, postID); err != nil {
				return struct{}{}, err
			}
			added, err := c.users.AddToSet(ctx, userID, repositories.SetSaves, postID)
			if err != nil {
				return struct{}{}, err
			}
			if !added {
				return struct{}{}, apperr.Conflict("Post already saved")
			}
			return struct{}{}, nil
		}
		removed, err := c.users.RemoveFromSet(ctx, userID, repositories.SetSaves, postID)
		if err != nil {
			return struct{}{}, err
		}
		if !removed {
			return struct{}{}, apperr.Conflict("Post is not saved")
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	subject := events.SubjectPostSaved
	if !add {
		subject = events.SubjectPostUnsaved
	}
	c.afterCommit(ctx, events.New(subject, userID, postID, nil), false)
	return nil
}
