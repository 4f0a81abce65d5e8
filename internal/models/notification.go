package models

import "time"

const (
	NotificationFollow  = "follow"
	NotificationLike    = "like"
	NotificationComment = "comment"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:30;index"` // follow, like, comment
	ActorID     string    `json:"actorId" gorm:"size:64;index"`
	ActorName   string    `json:"actorName" gorm:"size:64"`
	RecipientID string    `json:"recipientId" gorm:"size:64;index"`
	TargetID    string    `json:"targetId" gorm:"size:64"` // post ID or user ID
	TargetType  string    `json:"targetType" gorm:"size:20"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"isRead" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
}
