package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entry kinds
const (
	KindJournal = "journal"
	KindVoting  = "voting"
	KindCapsule = "capsule" // time-locked, content hidden until UnlocksAt
)

// PollOption is a single choice on a voting entry.
type PollOption struct {
	ID    string `json:"id" bson:"id"`
	Text  string `json:"text" bson:"text"`
	Votes int    `json:"votes" bson:"votes"`
}

// Entry represents a journal post, poll or capsule stored in MongoDB.
// Engagement sets live on the document: likes must always equal the size of
// liked_by, and the option vote counts must sum to the size of voted_by.
type Entry struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID      string             `json:"owner_id" bson:"owner_id"`
	Kind         string             `json:"kind" bson:"kind"`
	Content      string             `json:"content" bson:"content"`
	Mood         string             `json:"mood,omitempty" bson:"mood,omitempty"`
	MediaURLs    []string           `json:"media_urls,omitempty" bson:"media_urls,omitempty"`
	Options      []PollOption       `json:"options,omitempty" bson:"options,omitempty"`
	VotedBy      []string           `json:"voted_by,omitempty" bson:"voted_by,omitempty"`
	Likes        int                `json:"likes" bson:"likes"`
	LikedBy      []string           `json:"liked_by,omitempty" bson:"liked_by,omitempty"`
	BookmarkedBy []string           `json:"bookmarked_by,omitempty" bson:"bookmarked_by,omitempty"`
	UnlocksAt    *time.Time         `json:"unlocks_at,omitempty" bson:"unlocks_at,omitempty"`
	Version      int64              `json:"-" bson:"version"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.MediaURLs = append([]string(nil), e.MediaURLs...)
	c.Options = append([]PollOption(nil), e.Options...)
	c.VotedBy = append([]string(nil), e.VotedBy...)
	c.LikedBy = append([]string(nil), e.LikedBy...)
	c.BookmarkedBy = append([]string(nil), e.BookmarkedBy...)
	if e.UnlocksAt != nil {
		t := *e.UnlocksAt
		c.UnlocksAt = &t
	}
	return &c
}

// HasLiked reports whether id is in the liked_by set.
func (e *Entry) HasLiked(id string) bool { return contains(e.LikedBy, id) }

// HasBookmarked reports whether id is in the bookmarked_by set.
func (e *Entry) HasBookmarked(id string) bool { return contains(e.BookmarkedBy, id) }

// HasVoted reports whether id is in the voted_by set.
func (e *Entry) HasVoted(id string) bool { return contains(e.VotedBy, id) }

// Locked reports whether the entry is a capsule whose unlock time has not
// passed yet.
func (e *Entry) Locked(now time.Time) bool {
	return e.Kind == KindCapsule && e.UnlocksAt != nil && now.Before(*e.UnlocksAt)
}

func contains(set []string, id string) bool {
	for _, s := range set {
		if s == id {
			return true
		}
	}
	return false
}

// EntryView is an entry decorated with the requesting account's engagement
// state. Capsule content is blanked for everyone but the owner until unlock.
type EntryView struct {
	Entry
	Liked      bool `json:"liked"`
	Bookmarked bool `json:"bookmarked"`
	Voted      bool `json:"voted"`
	IsLocked   bool `json:"is_locked"`
}

// NewEntryView builds the view of an entry for the given account.
func NewEntryView(e *Entry, accountID string, now time.Time) EntryView {
	v := EntryView{
		Entry:      *e.Clone(),
		Liked:      e.HasLiked(accountID),
		Bookmarked: e.HasBookmarked(accountID),
		Voted:      e.HasVoted(accountID),
	}
	if e.Locked(now) && e.OwnerID != accountID {
		v.IsLocked = true
		v.Content = ""
		v.MediaURLs = nil
	}
	return v
}

// CreateEntryRequest defines the request body for creating a new entry
type CreateEntryRequest struct {
	Kind      string     `json:"kind" validate:"required,oneof=journal voting capsule"`
	Content   string     `json:"content" validate:"required,min=1,max=2000"`
	Mood      string     `json:"mood,omitempty" validate:"omitempty,max=30"`
	MediaURLs []string   `json:"media_urls,omitempty" validate:"omitempty,dive,url"`
	Options   []string   `json:"options,omitempty" validate:"omitempty,min=2,max=5,dive,min=1,max=100"`
	UnlocksAt *time.Time `json:"unlocks_at,omitempty"`
}

// UpdateEntryRequest defines the request body for updating an existing entry
type UpdateEntryRequest struct {
	Content   string   `json:"content,omitempty" validate:"omitempty,min=1,max=2000"`
	Mood      string   `json:"mood,omitempty" validate:"omitempty,max=30"`
	MediaURLs []string `json:"media_urls,omitempty" validate:"omitempty,dive,url"`
	Options   []string `json:"options,omitempty" validate:"omitempty,min=2,max=5,dive,min=1,max=100"`
}

// CastVoteRequest defines the request body for voting on a poll entry
type CastVoteRequest struct {
	OptionIndex *int `json:"option_index" validate:"required,min=0"`
}
