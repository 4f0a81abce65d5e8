package services

import (
	"context"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/events"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
)

// Follow makes followerID follow targetID, updating both sides of the
// relation in one transaction.
func (c *Coordinator) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == "" {
		return apperr.Unauthorized("Authentication required")
	}
	if followerID == targetID {
		return apperr.Conflict("You cannot follow yourself")
	}

	follower, err := mutate(ctx, c, "follow", func(ctx context.Context) (*models.User, error) {
		follower, target, err := c.pair(ctx, followerID, targetID)
		if err != nil {
			return nil, err
		}
		if follower.IsFollowing(target.ID) {
			return nil, apperr.Conflict("You are already following this user")
		}
		if _, err := c.users.AddToSet(ctx, followerID, repositories.SetFollowing, targetID); err != nil {
			return nil, err
		}
		if _, err := c.users.AddToSet(ctx, targetID, repositories.SetFollowers, followerID); err != nil {
			return nil, err
		}
		return follower, nil
	})
	if err != nil {
		return err
	}

	c.notifications.Notify(ctx, models.Notification{
		Type:        models.NotificationFollow,
		ActorID:     followerID,
		ActorName:   follower.Username,
		RecipientID: targetID,
		TargetID:    followerID,
		TargetType:  "user",
		Message:     follower.Username + " started following you",
	})
	c.afterCommit(ctx, events.New(events.SubjectUserFollowed, followerID, targetID, nil), false)
	return nil
}

// Unfollow removes both sides of the follow relation.
func (c *Coordinator) Unfollow(ctx context.Context, followerID, targetID string) error {
	if followerID == "" {
		return apperr.Unauthorized("Authentication required")
	}
	if followerID == targetID {
		return apperr.Conflict("You cannot unfollow yourself")
	}

	_, err := mutate(ctx, c, "unfollow", func(ctx context.Context) (struct{}, error) {
		follower, target, err := c.pair(ctx, followerID, targetID)
		if err != nil {
			return struct{}{}, err
		}
		if !follower.IsFollowing(target.ID) {
			return struct{}{}, apperr.Conflict("You are not following this user")
		}
		if _, err := c.users.RemoveFromSet(ctx, followerID, repositories.SetFollowing, targetID); err != nil {
			return struct{}{}, err
		}
		if _, err := c.users.RemoveFromSet(ctx, targetID, repositories.SetFollowers, followerID); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	c.afterCommit(ctx, events.New(events.SubjectUserUnfollowed, followerID, targetID, nil), false)
	return nil
}

func (c *Coordinator) pair(ctx context.Context, followerID, targetID string) (*models.User, *models.User, error) {
	follower, err := c.users.GetUserByID(ctx, followerID)
	if err != nil {
		return nil, nil, err
	}
	target, err := c.users.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	return follower, target, nil
}
