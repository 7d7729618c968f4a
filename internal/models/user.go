package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered community member.
type User struct {
	BaseModel
	Name          string `json:"name"`
	Email         string `gorm:"uniqueIndex" json:"email"`
	PasswordHash  string `json:"-"`
	PhotoURL      string `json:"photo_url"`
	EmailVerified bool   `json:"email_verified"`

	// Points accumulate via deltas recorded in point_events and are never
	// recomputed from history. The balance may go negative.
	Points int `json:"points"`

	IsVerified          bool `json:"is_verified"`
	VerificationAwarded bool `json:"verification_awarded"`

	Notifications []Notification `json:"notifications,omitempty"`
}

// Notification is a single entry in a user's in-app notification feed.
// Rows are append-only and rendered newest-first.
type Notification struct {
	BaseModel
	UserID  uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Message string    `json:"message"`
}

// PointEvent records one applied reputation event. The unique event key is
// what makes every grant exactly-once: replaying a decision hits the index
// and the surrounding transaction rolls back as a no-op.
type PointEvent struct {
	BaseModel
	UserID   uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	EventKey string    `gorm:"uniqueIndex" json:"event_key"`
	Delta    int       `json:"delta"`
}

// EmailVerification keeps track of signup confirmation codes.
type EmailVerification struct {
	BaseModel
	Email     string     `gorm:"index" json:"email"`
	Code      string     `json:"code"`
	ExpiresAt time.Time  `json:"expires_at"`
	Verified  bool       `json:"verified"`
	UsedAt    *time.Time `json:"used_at"`
}
