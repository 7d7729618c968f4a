// Package ledger applies reputation decisions: every accept/reject outcome
// becomes a point delta and a notification on exactly one user, recorded
// together with the authoritative state change in a single transaction.
// Events are keyed, so replaying a decision can never double-grant.
package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/VaibhavSingh085/heroes-server/internal/models"
)

// Point deltas per decision event.
const (
	HelperAcceptedDelta    = 20
	HelperRejectedDelta    = -2
	EditAcceptedDelta      = 5
	EditRejectedDelta      = -2
	VerificationAwardDelta = 100
)

var (
	// ErrAlreadyApplied signals a duplicate delivery of an event that has
	// already taken effect. Callers treat it as a no-op, not a failure.
	ErrAlreadyApplied = errors.New("ledger: event already applied")

	// ErrNotPending signals a decision on an entry in a terminal state.
	ErrNotPending = errors.New("ledger: entry is not pending")
)

// Ledger owns the reputation bookkeeping for decision events.
type Ledger struct {
	db *gorm.DB
}

// New constructs a Ledger on top of the shared database handle.
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// DecideHelper resolves a pending helper entry on a complaint. Accepting
// grants the helper points; rejecting deducts them. The status change, the
// point event, the balance update, and the notification commit atomically.
func (l *Ledger) DecideHelper(complaintID, helperEntryID uuid.UUID, accepted bool) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var helper models.ComplaintHelper
		if err := tx.First(&helper, "id = ? AND complaint_id = ?", helperEntryID, complaintID).Error; err != nil {
			return err
		}

		if helper.Status != models.EntryStatusPending {
			return ErrNotPending
		}

		var complaint models.Complaint
		if err := tx.First(&complaint, "id = ?", complaintID).Error; err != nil {
			return err
		}

		newStatus := models.EntryStatusRejected
		delta := HelperRejectedDelta
		if accepted {
			newStatus = models.EntryStatusAccepted
			delta = HelperAcceptedDelta
		}

		// Guard on the prior status so a concurrent decision loses cleanly.
		res := tx.Model(&models.ComplaintHelper{}).
			Where("id = ? AND status = ?", helper.ID, models.EntryStatusPending).
			Update("status", newStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotPending
		}

		var message string
		if accepted {
			message = fmt.Sprintf("%s accepted your help offer on %q. You earned %d points.",
				complaint.Name, complaint.Title, HelperAcceptedDelta)
		} else {
			message = fmt.Sprintf("%s rejected your help offer on %q. You lost %d points.",
				complaint.Name, complaint.Title, -HelperRejectedDelta)
		}

		key := fmt.Sprintf("helper:%s:%s:%s", complaintID, helper.UserID, newStatus)
		return l.apply(tx, helper.UserID, key, delta, message)
	})
}

// DecideEditRequest resolves a pending edit request. Accepting applies the
// proposed fields to the complaint in the same transaction as the editor's
// point grant; rejecting leaves the complaint untouched.
func (l *Ledger) DecideEditRequest(complaintID, requestID uuid.UUID, accepted bool) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var req models.EditRequest
		if err := tx.First(&req, "id = ? AND complaint_id = ?", requestID, complaintID).Error; err != nil {
			return err
		}

		if req.Status != models.EntryStatusPending {
			return ErrNotPending
		}

		var complaint models.Complaint
		if err := tx.First(&complaint, "id = ?", complaintID).Error; err != nil {
			return err
		}

		newStatus := models.EntryStatusRejected
		delta := EditRejectedDelta
		if accepted {
			newStatus = models.EntryStatusAccepted
			delta = EditAcceptedDelta
		}

		res := tx.Model(&models.EditRequest{}).
			Where("id = ? AND status = ?", req.ID, models.EntryStatusPending).
			Update("status", newStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotPending
		}

		var message string
		if accepted {
			if err := tx.Model(&models.Complaint{}).Where("id = ?", complaintID).Updates(map[string]interface{}{
				"title":          req.Title,
				"description":    req.Description,
				"contact_number": req.ContactNumber,
			}).Error; err != nil {
				return err
			}
			message = fmt.Sprintf("Your edit request for %q was accepted. You earned %d points.",
				complaint.Title, EditAcceptedDelta)
		} else {
			message = fmt.Sprintf("Your edit request for %q was rejected. You lost %d points.",
				complaint.Title, -EditRejectedDelta)
		}

		key := fmt.Sprintf("edit:%s:%s", requestID, newStatus)
		return l.apply(tx, req.EditorID, key, delta, message)
	})
}

// ConsumeVerification applies an admin review decision to the requester's
// profile and deletes the request so it cannot be replayed. Approval flips
// is_verified and, exactly once per user, grants the verification bonus.
func (l *Ledger) ConsumeVerification(requestID uuid.UUID, approved bool) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var req models.VerificationRequest
		if err := tx.First(&req, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAlreadyApplied
			}
			return err
		}

		// Deleting first is the consumption guard: a concurrent or repeated
		// delivery of the same decision finds no row and applies nothing.
		res := tx.Delete(&models.VerificationRequest{}, "id = ?", req.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyApplied
		}

		if !approved {
			key := fmt.Sprintf("verification:%s:rejected", req.ID)
			return l.apply(tx, req.UserID, key, 0, "Your verification request was rejected.")
		}

		var user models.User
		if err := tx.First(&user, "id = ?", req.UserID).Error; err != nil {
			return err
		}

		if !user.IsVerified {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
				Update("is_verified", true).Error; err != nil {
				return err
			}

			key := fmt.Sprintf("verification:%s:approved", req.ID)
			if err := l.apply(tx, user.ID, key, 0, "Your verification request was approved!"); err != nil {
				return err
			}
		}

		// The one-time bonus: guarded by the flag and, underneath, by the
		// per-user event key.
		if !user.VerificationAwarded {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
				Update("verification_awarded", true).Error; err != nil {
				return err
			}

			key := fmt.Sprintf("verification:award:%s", user.ID)
			message := fmt.Sprintf("You are now a Verified Professional! (+%d points)", VerificationAwardDelta)
			if err := l.apply(tx, user.ID, key, VerificationAwardDelta, message); err != nil {
				return err
			}
		}

		return nil
	})
}

// Notify appends a plain notification with no point effect.
func (l *Ledger) Notify(userID uuid.UUID, message string) error {
	return l.db.Create(&models.Notification{UserID: userID, Message: message}).Error
}

// apply records one point event inside tx: the event row (exactly-once via
// the unique key), the balance increment, and the notification.
func (l *Ledger) apply(tx *gorm.DB, userID uuid.UUID, eventKey string, delta int, message string) error {
	var existing models.PointEvent
	err := tx.First(&existing, "event_key = ?", eventKey).Error
	if err == nil {
		return ErrAlreadyApplied
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	event := models.PointEvent{
		UserID:   userID,
		EventKey: eventKey,
		Delta:    delta,
	}
	if err := tx.Create(&event).Error; err != nil {
		return err
	}

	if delta != 0 {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("points", gorm.Expr("points + ?", delta)).Error; err != nil {
			return err
		}
	}

	return tx.Create(&models.Notification{
		UserID:  userID,
		Message: message,
	}).Error
}
