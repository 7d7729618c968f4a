package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/VaibhavSingh085/heroes-server/internal/config"
	"github.com/VaibhavSingh085/heroes-server/internal/ledger"
	"github.com/VaibhavSingh085/heroes-server/internal/middleware"
	"github.com/VaibhavSingh085/heroes-server/internal/models"
)

// EditRequestHandler manages proposed edits to complaints.
type EditRequestHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	ledger *ledger.Ledger
}

// NewEditRequestHandler constructs EditRequestHandler.
func NewEditRequestHandler(db *gorm.DB, cfg *config.Config, lg *ledger.Ledger) *EditRequestHandler {
	return &EditRequestHandler{db: db, cfg: cfg, ledger: lg}
}

type submitEditRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	ContactNumber string `json:"contact_number"`
}

// SubmitEditRequest files a proposed change against a complaint. Requesters
// need more than the configured minimum of points; the creator is notified.
func (h *EditRequestHandler) SubmitEditRequest(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	complaintID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req submitEditRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title is required")
	}
	if len(req.Title) > maxTitleLength {
		return fiber.NewError(fiber.StatusBadRequest, "title must be less than 120 characters")
	}

	var editor models.User
	if err := h.db.First(&editor, "id = ?", userID).Error; err != nil {
		return err
	}

	if editor.Points <= h.cfg.EditRequestMinPoints {
		return fiber.NewError(fiber.StatusForbidden, "not enough points to request an edit")
	}

	var complaint models.Complaint
	if err := h.db.First(&complaint, "id = ?", complaintID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "complaint not found")
		}
		return err
	}

	if complaint.UserID == userID {
		return fiber.NewError(fiber.StatusBadRequest, "creators edit their own complaints directly")
	}

	request := models.EditRequest{
		ComplaintID:   complaintID,
		EditorID:      userID,
		EditorName:    editor.Name,
		Title:         req.Title,
		Description:   req.Description,
		ContactNumber: req.ContactNumber,
		Status:        models.EntryStatusPending,
	}

	if err := h.db.Create(&request).Error; err != nil {
		return err
	}

	message := fmt.Sprintf("%s requested to edit your complaint %q.", editor.Name, complaint.Title)
	if err := h.ledger.Notify(complaint.UserID, message); err != nil {
		log.Printf("edit request notification failed: %v", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    request,
	})
}

// ListEditRequests returns pending edit requests for a complaint. Creator only.
func (h *EditRequestHandler) ListEditRequests(c *fiber.Ctx) error {
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
		return fiber.NewError(fiber.StatusForbidden, "only the creator can list edit requests")
	}

	var requests []models.EditRequest
	if err := h.db.Where("complaint_id = ? AND status = ?", complaintID, models.EntryStatusPending).
		Order("created_at asc").
		Find(&requests).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": requests})
}

type editDecisionRequest struct {
	Status string `json:"status"`
}

// DecideEditRequest accepts or rejects a pending edit request. Creator only.
// Acceptance applies the proposed fields and credits the editor atomically.
func (h *EditRequestHandler) DecideEditRequest(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	complaintID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	requestID, err := uuid.Parse(c.Params("reqId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request id")
	}

	var req editDecisionRequest
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
		return fiber.NewError(fiber.StatusForbidden, "only the creator can decide on edit requests")
	}

	if err := h.ledger.DecideEditRequest(complaintID, requestID, req.Status == models.EntryStatusAccepted); err != nil {
		if errors.Is(err, ledger.ErrNotPending) {
			return fiber.NewError(fiber.StatusConflict, "edit request already decided")
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "edit request not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "edit request " + req.Status})
}
