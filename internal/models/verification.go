package models

import (
	"github.com/google/uuid"
)

// Verification request statuses.
const (
	VerificationStatusPending  = "pending"
	VerificationStatusApproved = "approved"
	VerificationStatusRejected = "rejected"
)

// VerificationRequest is a user's application to become a verified
// professional. Approved or rejected requests are consumed: the profile
// mutation is applied once and the row is deleted so it cannot be replayed.
type VerificationRequest struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Profession string    `json:"profession"`
	IDNumber   string    `json:"id_number"`
	Notes      string    `json:"notes"`
	ProofURL   string    `json:"proof_url"`
	Status     string    `gorm:"index;default:pending" json:"status"`
}
