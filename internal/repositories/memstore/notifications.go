package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
)

// Notifications is an in-memory NotificationRepository.
type Notifications struct {
	mu     sync.RWMutex
	nextID uint
	items  []models.Notification
}

var _ repositories.NotificationRepository = (*Notifications)(nil)

func NewNotifications() *Notifications {
	return &Notifications{}
}

func (n *Notifications) CreateNotification(_ context.Context, notification *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	notification.ID = n.nextID
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = now()
	}
	n.items = append(n.items, *notification)
	return nil
}

// GetByRecipientID returns the recipient's notifications newest first.
func (n *Notifications) GetByRecipientID(_ context.Context, recipientID string, skip, limit int) ([]models.Notification, int64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var mine []models.Notification
	for _, item := range slices.Backward(n.items) {
		if item.RecipientID == recipientID {
			mine = append(mine, item)
		}
	}
	total := int64(len(mine))
	if skip >= len(mine) {
		return []models.Notification{}, total, nil
	}
	return mine[skip:min(skip+limit, len(mine))], total, nil
}

func (n *Notifications) GetUnreadCount(_ context.Context, recipientID string) (int64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var count int64
	for _, item := range n.items {
		if item.RecipientID == recipientID && !item.IsRead {
			count++
		}
	}
	return count, nil
}

func (n *Notifications) MarkAsRead(_ context.Context, recipientID string, notificationID uint) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.items {
		if n.items[i].ID == notificationID && n.items[i].RecipientID == recipientID {
			n.items[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (n *Notifications) MarkAllAsRead(_ context.Context, recipientID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.items {
		if n.items[i].RecipientID == recipientID {
			n.items[i].IsRead = true
		}
	}
	return nil
}
