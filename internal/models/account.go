package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// PointsPerLevel is the number of points needed to advance one level.
const PointsPerLevel = 50

// Account represents a MoodLink user stored in MongoDB. Follower and
// following sets are denormalized onto the document so a profile read is a
// single fetch; both sides of an edge are kept in sync by the social graph.
type Account struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Email       string    `json:"email" bson:"email"`
	Avatar      string    `json:"avatar" bson:"avatar"` // emoji glyph shown next to the name
	Bio         string    `json:"bio" bson:"bio"`
	Password    string    `json:"-" bson:"password,omitempty"`
	FirebaseUID string    `json:"firebase_uid,omitempty" bson:"firebase_uid,omitempty"`
	Followers   []string  `json:"followers" bson:"followers"`
	Following   []string  `json:"following" bson:"following"`
	Points      int       `json:"points" bson:"points"`
	Level       int       `json:"level" bson:"level"`
	Version     int64     `json:"-" bson:"version"` // optimistic-lock counter, bumped on every replace
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Clone returns a deep copy so callers can mutate the result without
// touching shared state.
func (a *Account) Clone() *Account {
	c := *a
	c.Followers = append([]string(nil), a.Followers...)
	c.Following = append([]string(nil), a.Following...)
	return &c
}

// IsFollowing reports whether the account's following set contains id.
func (a *Account) IsFollowing(id string) bool {
	for _, f := range a.Following {
		if f == id {
			return true
		}
	}
	return false
}

// AccountCompact is the trimmed representation embedded in lists and feeds.
type AccountCompact struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Level  int    `json:"level"`
}

// ToCompact converts an account to its compact representation.
func (a *Account) ToCompact() AccountCompact {
	return AccountCompact{ID: a.ID, Name: a.Name, Avatar: a.Avatar, Level: a.Level}
}

// CreateLocalAccountRequest defines the request body for email/password signup
type CreateLocalAccountRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Avatar   string `json:"avatar" validate:"omitempty,max=8"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateProfileRequest defines the request body for profile updates
type UpdateProfileRequest struct {
	Name   string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Avatar string `json:"avatar,omitempty" validate:"omitempty,max=8"`
	Bio    string `json:"bio,omitempty" validate:"omitempty,max=300"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}
