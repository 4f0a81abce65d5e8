package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/metrics"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/pagination"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

// NotificationService writes and reads per-user notifications.
type NotificationService struct {
	repo   repositories.NotificationRepository
	logger logrus.FieldLogger
}

func NewNotificationService(repo repositories.NotificationRepository, logger logrus.FieldLogger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger}
}

// Notify records n for its recipient. Self-actions are skipped and failures
// are logged, never returned. A nil service does nothing.
func (s *NotificationService) Notify(ctx context.Context, n models.Notification) {
	if s == nil || n.RecipientID == "" || n.RecipientID == n.ActorID {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := s.repo.CreateNotification(ctx, &n)
	metrics.RecordNotification(n.Type, err)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"type":         n.Type,
			"recipient_id": n.RecipientID,
			"target_id":    n.TargetID,
		}).Warn("notification write failed")
	}
}

// NotificationPage is one page of a user's notifications.
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Pagination    pagination.Summary    `json:"pagination"`
}

func (s *NotificationService) List(ctx context.Context, userID string, p pagination.Params) (*NotificationPage, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}
	items, total, err := s.repo.GetByRecipientID(ctx, userID, p.Skip(), p.Limit)
	if err != nil {
		return nil, apperr.Internal("Failed to load notifications", err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return &NotificationPage{Notifications: items, Pagination: pagination.Summarize(total, p.Page, p.Limit)}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, apperr.Unauthorized("Authentication required")
	}
	n, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return 0, apperr.Internal("Failed to count notifications", err)
	}
	return n, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID string, id uint) error {
	if userID == "" {
		return apperr.Unauthorized("Authentication required")
	}
	ok, err := s.repo.MarkAsRead(ctx, userID, id)
	if err != nil {
		return apperr.Internal("Failed to update notification", err)
	}
	if !ok {
		return apperr.NotFound("Notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	if userID == "" {
		return apperr.Unauthorized("Authentication required")
	}
	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return apperr.Internal("Failed to update notifications", err)
	}
	return nil
}
