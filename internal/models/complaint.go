package models

import (
	"github.com/google/uuid"
)

// Complaint statuses.
const (
	ComplaintStatusOpen     = "open"
	ComplaintStatusResolved = "resolved"
)

// Helper and edit-request statuses. Pending entries move to accepted or
// rejected exactly once; both are terminal.
const (
	EntryStatusPending  = "pending"
	EntryStatusAccepted = "accepted"
	EntryStatusRejected = "rejected"
)

// Complaint is a location-tagged help request created by a user.
type Complaint struct {
	BaseModel
	UserID        uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Name          string    `json:"name"`
	ContactNumber string    `json:"contact_number"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Status        string    `gorm:"index;default:open" json:"status"`

	Helpers      []ComplaintHelper `gorm:"constraint:OnDelete:CASCADE" json:"helpers,omitempty"`
	EditRequests []EditRequest     `gorm:"constraint:OnDelete:CASCADE" json:"edit_requests,omitempty"`
	SpamVotes    []SpamVote        `gorm:"constraint:OnDelete:CASCADE" json:"spam_votes,omitempty"`
}

// ComplaintHelper tracks one volunteer per complaint. Rows are keyed by
// (complaint_id, user_id) so status updates address a row, never a
// full-value match against a stale copy.
type ComplaintHelper struct {
	BaseModel
	ComplaintID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_helper_complaint_user" json:"complaint_id"`
	UserID      uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_helper_complaint_user" json:"user_id"`
	Name        string    `json:"name"`
	Status      string    `gorm:"default:pending" json:"status"`
}

// EditRequest is a proposed change to a complaint's editable fields,
// submitted by a non-creator and subject to the creator's approval.
type EditRequest struct {
	BaseModel
	ComplaintID   uuid.UUID `gorm:"type:uuid;index" json:"complaint_id"`
	EditorID      uuid.UUID `gorm:"type:uuid;index" json:"editor_id"`
	EditorName    string    `json:"editor_name"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ContactNumber string    `json:"contact_number"`
	Status        string    `gorm:"default:pending" json:"status"`
}

// SpamVote is a flag cast against a complaint by a distinct eligible voter.
type SpamVote struct {
	BaseModel
	ComplaintID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_spam_complaint_user" json:"complaint_id"`
	UserID      uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_spam_complaint_user" json:"user_id"`
}
