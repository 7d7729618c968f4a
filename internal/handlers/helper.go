package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/VaibhavSingh085/heroes-server/internal/ledger"
	"github.com/VaibhavSingh085/heroes-server/internal/middleware"
	"github.com/VaibhavSingh085/heroes-server/internal/models"
)

// HelperHandler manages volunteering and helper decisions.
type HelperHandler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

// NewHelperHandler constructs HelperHandler.
func NewHelperHandler(db *gorm.DB, lg *ledger.Ledger) *HelperHandler {
	return &HelperHandler{db: db, ledger: lg}
}

// Volunteer adds the current user as a pending helper on a complaint.
// A user gets at most one entry per complaint; any prior entry, including a
// rejected one, blocks a new application.
func (h *HelperHandler) Volunteer(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	complaintID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var complaint models.Complaint
	if err := h.db.First(&complaint, "id = ?", complaintID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "complaint not found")
		}
		return err
	}

	if complaint.Status != models.ComplaintStatusOpen {
		return fiber.NewError(fiber.StatusBadRequest, "complaint is not open")
	}

	if complaint.UserID == userID {
		return fiber.NewError(fiber.StatusBadRequest, "cannot volunteer on your own complaint")
	}

	var existing models.ComplaintHelper
	if err := h.db.Where("complaint_id = ? AND user_id = ?", complaintID, userID).
		First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "already volunteered")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	helper := models.ComplaintHelper{
		ComplaintID: complaintID,
		UserID:      userID,
		Name:        user.Name,
		Status:      models.EntryStatusPending,
	}

	if err := h.db.Create(&helper).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    helper,
	})
}

// ListHelpers returns the helper entries of a complaint. Creator only.
func (h *HelperHandler) ListHelpers(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	complaintID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var complaint models.Complaint
	if err := h.db.First(&complaint, "id = ?", complaintID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "complaint not found")
		}
		return err
	}

	if complaint.UserID != userID {
		return fiber.NewError(fiber.StatusForbidden, "only the creator can list helpers")
	}

	var helpers []models.ComplaintHelper
	if err := h.db.Where("complaint_id = ?", complaintID).
		Order("created_at asc").
		Find(&helpers).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": helpers})
}

type helperDecisionRequest struct {
	Status string `json:"status"`
}

// DecideHelper accepts or rejects a pending helper. Creator only. The
// reputation effect and the status change commit together.
func (h *HelperHandler) DecideHelper(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	complaintID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	helperUserID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid helper user id")
	}

	var req helperDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Status != models.EntryStatusAccepted && req.Status != models.EntryStatusRejected {
		return fiber.NewError(fiber.StatusBadRequest, "status must be accepted or rejected")
	}

	var complaint models.Complaint
	if err := h.db.First(&complaint, "id = ?", complaintID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "complaint not found")
		}
		return err
	}

	if complaint.UserID != userID {
		return fiber.NewError(fiber.StatusForbidden, "only the creator can decide on helpers")
	}

	var helper models.ComplaintHelper
	if err := h.db.Where("complaint_id = ? AND user_id = ?", complaintID, helperUserID).
		First(&helper).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "helper not found")
		}
		return err
	}

	if err := h.ledger.DecideHelper(complaintID, helper.ID, req.Status == models.EntryStatusAccepted); err != nil {
		if errors.Is(err, ledger.ErrNotPending) {
			return fiber.NewError(fiber.StatusConflict, "helper entry already decided")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "helper " + req.Status})
}
