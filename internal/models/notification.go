package models

import "time"

// Notification types
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
)

// Notification represents a user notification (PostgreSQL). Immutable after
// creation except for the is_read false->true transition. The actor name is
// denormalized at creation time so the feed never re-reads accounts.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:20;index"`
	ActorID     string    `json:"actor_id" gorm:"size:64;index"`
	ActorName   string    `json:"actor_name" gorm:"size:50"`
	RecipientID string    `json:"recipient_id" gorm:"size:64;index"`
	EntryID     string    `json:"entry_id,omitempty" gorm:"size:32"`
	Snippet     string    `json:"snippet,omitempty" gorm:"size:120"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
