package models

import "gorm.io/gorm"

// Comment represents a comment on an entry
type Comment struct {
	gorm.Model
	EntryID  string `json:"entry_id" gorm:"size:32;index"` // MongoDB ObjectID as string
	AuthorID string `json:"author_id" gorm:"size:64;index"`
	Content  string `json:"content" validate:"required,min=1,max=500"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
